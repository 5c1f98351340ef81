package invoicing

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agrinxt/agrinxt/internal/shared"
)

// Repository provides PostgreSQL backed persistence for invoices.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// WithTx wraps a pricing unit of work in a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return fmt.Errorf("invoicing: begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(ctx, &txRepository{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("invoicing: commit tx: %w", err)
	}
	return nil
}

// GetInvoice retrieves an invoice with lines, payments and balance.
func (r *Repository) GetInvoice(ctx context.Context, id int64) (*InvoiceDetails, error) {
	var details InvoiceDetails
	err := r.pool.QueryRow(ctx, `
		SELECT id, number, buyer_id, farmer_id, invoice_date, grand_total, status, created_at, updated_at
		FROM invoices
		WHERE id = $1`, id,
	).Scan(
		&details.ID, &details.Number, &details.BuyerID, &details.FarmerID,
		&details.InvoiceDate, &details.GrandTotal, &details.Status,
		&details.CreatedAt, &details.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("%w: invoice %d", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	lineRows, err := r.pool.Query(ctx, `
		SELECT id, invoice_id, record_id, commodity, weight_kg, price_per_kg, subtotal
		FROM invoice_lines
		WHERE invoice_id = $1
		ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer lineRows.Close()
	for lineRows.Next() {
		var line InvoiceLine
		if err := lineRows.Scan(&line.ID, &line.InvoiceID, &line.RecordID, &line.Commodity, &line.WeightKg, &line.PricePerKg, &line.Subtotal); err != nil {
			return nil, err
		}
		details.Lines = append(details.Lines, line)
	}
	if err := lineRows.Err(); err != nil {
		return nil, err
	}

	payRows, err := r.pool.Query(ctx, `
		SELECT id, receipt, amount, mode, COALESCE(transaction_ref, ''), paid_at
		FROM payments
		WHERE invoice_id = $1
		ORDER BY paid_at, id`, id)
	if err != nil {
		return nil, err
	}
	defer payRows.Close()
	for payRows.Next() {
		var p PaymentSummary
		if err := payRows.Scan(&p.ID, &p.Receipt, &p.Amount, &p.Mode, &p.TransactionRef, &p.PaidAt); err != nil {
			return nil, err
		}
		details.Payments = append(details.Payments, p)
		details.PaidAmount += p.Amount
	}
	if err := payRows.Err(); err != nil {
		return nil, err
	}

	details.Balance = details.GrandTotal - details.PaidAmount
	return &details, nil
}

// ListInvoices returns invoices with optional filtering.
func (r *Repository) ListInvoices(ctx context.Context, filter ListFilter) ([]Invoice, error) {
	query := `
		SELECT id, number, buyer_id, farmer_id, invoice_date, grand_total, status, created_at, updated_at
		FROM invoices
		WHERE 1=1`

	args := []any{}
	argNum := 1

	if filter.FarmerID > 0 {
		query += fmt.Sprintf(" AND farmer_id = $%d", argNum)
		args = append(args, filter.FarmerID)
		argNum++
	}
	if filter.BuyerID > 0 {
		query += fmt.Sprintf(" AND buyer_id = $%d", argNum)
		args = append(args, filter.BuyerID)
		argNum++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, string(filter.Status))
		argNum++
	}
	if !filter.FromDate.IsZero() {
		query += fmt.Sprintf(" AND invoice_date >= $%d", argNum)
		args = append(args, filter.FromDate)
		argNum++
	}
	if !filter.ToDate.IsZero() {
		query += fmt.Sprintf(" AND invoice_date <= $%d", argNum)
		args = append(args, filter.ToDate)
		argNum++
	}

	query += " ORDER BY invoice_date, id"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, filter.Limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []Invoice
	for rows.Next() {
		var inv Invoice
		if err := rows.Scan(&inv.ID, &inv.Number, &inv.BuyerID, &inv.FarmerID, &inv.InvoiceDate, &inv.GrandTotal, &inv.Status, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

// OutstandingDues aggregates the still-unpaid balance per farmer across
// PENDING invoices.
func (r *Repository) OutstandingDues(ctx context.Context) ([]FarmerDue, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT i.farmer_id,
			COUNT(*) AS pending_invoices,
			SUM(i.grand_total - COALESCE(p.paid, 0)) AS outstanding
		FROM invoices i
		LEFT JOIN (
			SELECT invoice_id, SUM(amount) AS paid
			FROM payments
			GROUP BY invoice_id
		) p ON p.invoice_id = i.id
		WHERE i.status = 'PENDING'
		GROUP BY i.farmer_id
		ORDER BY i.farmer_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dues []FarmerDue
	for rows.Next() {
		var due FarmerDue
		if err := rows.Scan(&due.FarmerID, &due.PendingInvoices, &due.Outstanding); err != nil {
			return nil, err
		}
		dues = append(dues, due)
	}
	return dues, rows.Err()
}
