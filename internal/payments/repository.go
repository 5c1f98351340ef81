package payments

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for payments.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// WithTx wraps an allocation unit of work in a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return fmt.Errorf("payments: begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(ctx, &txRepository{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("payments: commit tx: %w", err)
	}
	return nil
}

// ListPayments returns a farmer's payments, newest first.
func (r *Repository) ListPayments(ctx context.Context, farmerID int64) ([]Payment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, receipt, invoice_id, buyer_id, farmer_id, amount, mode, COALESCE(transaction_ref, ''), paid_at
		FROM payments
		WHERE farmer_id = $1
		ORDER BY paid_at DESC, id DESC`, farmerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.Receipt, &p.InvoiceID, &p.BuyerID, &p.FarmerID, &p.Amount, &p.Mode, &p.TransactionRef, &p.PaidAt); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// txRepository implements TxRepository on top of one open transaction.
type txRepository struct {
	tx pgx.Tx
}

// SelectPendingForUpdate loads the farmer's PENDING invoices oldest-first,
// taking row locks for the duration of the allocation.
func (t *txRepository) SelectPendingForUpdate(ctx context.Context, farmerID int64) ([]pendingInvoice, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT id, number, buyer_id, farmer_id, invoice_date, grand_total
		FROM invoices
		WHERE farmer_id = $1 AND status = 'PENDING'
		ORDER BY invoice_date, id
		FOR UPDATE`, farmerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []pendingInvoice
	for rows.Next() {
		var inv pendingInvoice
		if err := rows.Scan(&inv.ID, &inv.Number, &inv.BuyerID, &inv.FarmerID, &inv.InvoiceDate, &inv.GrandTotal); err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

// PaidAmounts sums existing payments per invoice.
func (t *txRepository) PaidAmounts(ctx context.Context, invoiceIDs []int64) (map[int64]float64, error) {
	paid := make(map[int64]float64, len(invoiceIDs))
	if len(invoiceIDs) == 0 {
		return paid, nil
	}
	rows, err := t.tx.Query(ctx, `
		SELECT invoice_id, SUM(amount)
		FROM payments
		WHERE invoice_id = ANY($1)
		GROUP BY invoice_id`, invoiceIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var invoiceID int64
		var amount float64
		if err := rows.Scan(&invoiceID, &amount); err != nil {
			return nil, err
		}
		paid[invoiceID] = amount
	}
	return paid, rows.Err()
}

// InsertPayment persists one allocation.
func (t *txRepository) InsertPayment(ctx context.Context, p *Payment) error {
	var ref any
	if p.TransactionRef != "" {
		ref = p.TransactionRef
	}
	return t.tx.QueryRow(ctx, `
		INSERT INTO payments (receipt, invoice_id, buyer_id, farmer_id, amount, mode, transaction_ref, paid_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		p.Receipt, p.InvoiceID, p.BuyerID, p.FarmerID, p.Amount, string(p.Mode), ref, p.PaidAt,
	).Scan(&p.ID)
}

// MarkInvoicePaid transitions an invoice PENDING -> PAID.
func (t *txRepository) MarkInvoicePaid(ctx context.Context, invoiceID int64) error {
	cmdTag, err := t.tx.Exec(ctx, `
		UPDATE invoices SET status = 'PAID', updated_at = NOW()
		WHERE id = $1 AND status = 'PENDING'`, invoiceID)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("invoice %d not in PENDING status", invoiceID)
	}
	return nil
}
