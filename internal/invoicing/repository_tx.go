package invoicing

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/agrinxt/agrinxt/internal/collection"
)

// txRepository implements TxRepository on top of one open transaction.
type txRepository struct {
	tx pgx.Tx
}

// UpsertPurchasePrice writes a catalog entry inside the pricing transaction.
func (t *txRepository) UpsertPurchasePrice(ctx context.Context, date time.Time, commodity string, pricePerKg float64) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO purchase_prices (price_date, commodity, price_per_kg, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (price_date, commodity)
		DO UPDATE SET price_per_kg = EXCLUDED.price_per_kg, updated_at = NOW()`,
		date, commodity, pricePerKg)
	return err
}

// SelectUnpricedForUpdate loads all unpriced records for a date with their
// line items, taking row locks so a concurrent run blocks until commit.
func (t *txRepository) SelectUnpricedForUpdate(ctx context.Context, date time.Time) ([]collection.Record, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT id, buyer_id, farmer_id, collected_on, total_weight_kg, priced, created_at
		FROM collection_records
		WHERE collected_on = $1 AND priced = FALSE
		ORDER BY id
		FOR UPDATE`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []collection.Record
	index := make(map[int64]int)
	var ids []int64
	for rows.Next() {
		var rec collection.Record
		if err := rows.Scan(&rec.ID, &rec.BuyerID, &rec.FarmerID, &rec.CollectedOn, &rec.TotalWeightKg, &rec.Priced, &rec.CreatedAt); err != nil {
			return nil, err
		}
		index[rec.ID] = len(records)
		ids = append(ids, rec.ID)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return records, nil
	}

	itemRows, err := t.tx.Query(ctx, `
		SELECT id, record_id, commodity, weight_kg
		FROM collection_items
		WHERE record_id = ANY($1)
		ORDER BY id`, ids)
	if err != nil {
		return nil, err
	}
	defer itemRows.Close()
	for itemRows.Next() {
		var item collection.LineItem
		var recordID int64
		if err := itemRows.Scan(&item.ID, &recordID, &item.Commodity, &item.WeightKg); err != nil {
			return nil, err
		}
		if i, ok := index[recordID]; ok {
			records[i].Items = append(records[i].Items, item)
		}
	}
	return records, itemRows.Err()
}

// NextInvoiceNumber bumps the per-year counter and formats the number.
// The counter row lock makes numbers strictly increasing within a year.
func (t *txRepository) NextInvoiceNumber(ctx context.Context, year int) (string, error) {
	var seq int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO invoice_counters (year, last_seq)
		VALUES ($1, 1)
		ON CONFLICT (year)
		DO UPDATE SET last_seq = invoice_counters.last_seq + 1
		RETURNING last_seq`, year,
	).Scan(&seq)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("INV-%d-%05d", year, seq), nil
}

// InsertInvoice persists an invoice and fills generated fields.
func (t *txRepository) InsertInvoice(ctx context.Context, inv *Invoice) error {
	return t.tx.QueryRow(ctx, `
		INSERT INTO invoices (number, buyer_id, farmer_id, invoice_date, grand_total, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id, created_at, updated_at`,
		inv.Number, inv.BuyerID, inv.FarmerID, inv.InvoiceDate, inv.GrandTotal, string(inv.Status),
	).Scan(&inv.ID, &inv.CreatedAt, &inv.UpdatedAt)
}

// InsertLine persists an invoice line.
func (t *txRepository) InsertLine(ctx context.Context, line *InvoiceLine) error {
	return t.tx.QueryRow(ctx, `
		INSERT INTO invoice_lines (invoice_id, record_id, commodity, weight_kg, price_per_kg, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		line.InvoiceID, line.RecordID, line.Commodity, line.WeightKg, line.PricePerKg, line.Subtotal,
	).Scan(&line.ID)
}

// MarkRecordsPriced flips priced on the source records of one invoice group.
func (t *txRepository) MarkRecordsPriced(ctx context.Context, recordIDs []int64) error {
	cmdTag, err := t.tx.Exec(ctx, `
		UPDATE collection_records SET priced = TRUE
		WHERE id = ANY($1) AND priced = FALSE`, recordIDs)
	if err != nil {
		return err
	}
	if int(cmdTag.RowsAffected()) != len(recordIDs) {
		return fmt.Errorf("marked %d of %d records priced", cmdTag.RowsAffected(), len(recordIDs))
	}
	return nil
}
