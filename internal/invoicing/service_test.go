package invoicing

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/agrinxt/agrinxt/internal/collection"
	"github.com/agrinxt/agrinxt/internal/shared"
)

type memoryInvoicingRepo struct {
	records    []collection.Record
	prices     map[string]float64
	invoices   map[int64]*Invoice
	lines      map[int64][]InvoiceLine
	seq        map[int]int64
	nextID     int64
	nextLineID int64
}

func newMemoryInvoicingRepo() *memoryInvoicingRepo {
	return &memoryInvoicingRepo{
		prices:   make(map[string]float64),
		invoices: make(map[int64]*Invoice),
		lines:    make(map[int64][]InvoiceLine),
		seq:      make(map[int]int64),
	}
}

func (r *memoryInvoicingRepo) addRecord(buyerID, farmerID int64, date time.Time, items ...collection.LineItem) {
	var total float64
	for _, item := range items {
		total += item.WeightKg
	}
	r.records = append(r.records, collection.Record{
		ID:            int64(len(r.records) + 1),
		BuyerID:       buyerID,
		FarmerID:      farmerID,
		CollectedOn:   date,
		Items:         items,
		TotalWeightKg: total,
	})
}

func (r *memoryInvoicingRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, r)
}

func (r *memoryInvoicingRepo) UpsertPurchasePrice(ctx context.Context, date time.Time, commodity string, pricePerKg float64) error {
	r.prices[commodity] = pricePerKg
	return nil
}

func (r *memoryInvoicingRepo) SelectUnpricedForUpdate(ctx context.Context, date time.Time) ([]collection.Record, error) {
	var out []collection.Record
	for _, rec := range r.records {
		if rec.CollectedOn.Equal(date) && !rec.Priced {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *memoryInvoicingRepo) NextInvoiceNumber(ctx context.Context, year int) (string, error) {
	r.seq[year]++
	return fmt.Sprintf("INV-%d-%05d", year, r.seq[year]), nil
}

func (r *memoryInvoicingRepo) InsertInvoice(ctx context.Context, inv *Invoice) error {
	r.nextID++
	inv.ID = r.nextID
	stored := *inv
	r.invoices[inv.ID] = &stored
	return nil
}

func (r *memoryInvoicingRepo) InsertLine(ctx context.Context, line *InvoiceLine) error {
	r.nextLineID++
	line.ID = r.nextLineID
	r.lines[line.InvoiceID] = append(r.lines[line.InvoiceID], *line)
	return nil
}

func (r *memoryInvoicingRepo) MarkRecordsPriced(ctx context.Context, recordIDs []int64) error {
	for _, id := range recordIDs {
		for i := range r.records {
			if r.records[i].ID == id {
				r.records[i].Priced = true
			}
		}
	}
	return nil
}

func (r *memoryInvoicingRepo) GetInvoice(ctx context.Context, id int64) (*InvoiceDetails, error) {
	inv, ok := r.invoices[id]
	if !ok {
		return nil, fmt.Errorf("%w: invoice %d", shared.ErrNotFound, id)
	}
	return &InvoiceDetails{Invoice: *inv, Lines: r.lines[id]}, nil
}

func (r *memoryInvoicingRepo) ListInvoices(ctx context.Context, filter ListFilter) ([]Invoice, error) {
	var out []Invoice
	for _, inv := range r.invoices {
		out = append(out, *inv)
	}
	return out, nil
}

func (r *memoryInvoicingRepo) OutstandingDues(ctx context.Context) ([]FarmerDue, error) {
	return nil, nil
}

type stubLocker struct {
	held     bool
	acquired []string
}

func (l *stubLocker) Acquire(ctx context.Context, key string) (func(context.Context) error, error) {
	if l.held {
		return nil, fmt.Errorf("acquire %s: %w", key, shared.ErrLockHeld)
	}
	l.acquired = append(l.acquired, key)
	return func(context.Context) error { return nil }, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testDate() time.Time {
	return time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)
}

func TestGenerateInvoicesPricesRecord(t *testing.T) {
	repo := newMemoryInvoicingRepo()
	repo.addRecord(7, 42, testDate(),
		collection.LineItem{Commodity: "Tomato", WeightKg: 10},
		collection.LineItem{Commodity: "Potato", WeightKg: 5},
	)
	svc := NewService(repo, &stubLocker{}, nil, nil, testLogger())

	result, err := svc.GenerateInvoices(context.Background(), testDate(), map[string]float64{"Tomato": 20, "Potato": 15})
	require.NoError(t, err)
	require.Equal(t, 1, result.InvoicesCreated)
	require.InDelta(t, 275.0, result.TotalAmount, 1e-9)

	inv := result.Invoices[0]
	require.Equal(t, "INV-2026-00001", inv.Number)
	require.Equal(t, StatusPending, inv.Status)
	require.InDelta(t, 275.0, inv.GrandTotal, 1e-9)

	lines := repo.lines[inv.ID]
	require.Len(t, lines, 2)
	subtotals := map[string]float64{}
	for _, line := range lines {
		subtotals[line.Commodity] = line.Subtotal
	}
	require.InDelta(t, 200.0, subtotals["Tomato"], 1e-9)
	require.InDelta(t, 75.0, subtotals["Potato"], 1e-9)

	require.True(t, repo.records[0].Priced)
}

func TestGenerateInvoicesIdempotentRerun(t *testing.T) {
	repo := newMemoryInvoicingRepo()
	repo.addRecord(7, 42, testDate(), collection.LineItem{Commodity: "Tomato", WeightKg: 10})
	svc := NewService(repo, &stubLocker{}, nil, nil, testLogger())
	prices := map[string]float64{"Tomato": 20}

	first, err := svc.GenerateInvoices(context.Background(), testDate(), prices)
	require.NoError(t, err)
	require.Equal(t, 1, first.InvoicesCreated)

	second, err := svc.GenerateInvoices(context.Background(), testDate(), prices)
	require.NoError(t, err)
	require.Equal(t, 0, second.InvoicesCreated)
	require.Zero(t, second.TotalAmount)
	require.Len(t, repo.invoices, 1)
}

func TestGenerateInvoicesGroupsByBuyerFarmerPair(t *testing.T) {
	repo := newMemoryInvoicingRepo()
	repo.addRecord(7, 42, testDate(), collection.LineItem{Commodity: "Tomato", WeightKg: 10})
	repo.addRecord(7, 42, testDate(), collection.LineItem{Commodity: "Tomato", WeightKg: 2})
	repo.addRecord(8, 42, testDate(), collection.LineItem{Commodity: "Tomato", WeightKg: 3})
	svc := NewService(repo, &stubLocker{}, nil, nil, testLogger())

	result, err := svc.GenerateInvoices(context.Background(), testDate(), map[string]float64{"Tomato": 10})
	require.NoError(t, err)
	require.Equal(t, 2, result.InvoicesCreated)

	// Deterministic emission order: buyer 7 before buyer 8, numbers in
	// sequence.
	require.Equal(t, "INV-2026-00001", result.Invoices[0].Number)
	require.Equal(t, int64(7), result.Invoices[0].BuyerID)
	require.InDelta(t, 120.0, result.Invoices[0].GrandTotal, 1e-9)
	require.Equal(t, "INV-2026-00002", result.Invoices[1].Number)
	require.Equal(t, int64(8), result.Invoices[1].BuyerID)
	require.InDelta(t, 30.0, result.Invoices[1].GrandTotal, 1e-9)
}

func TestGenerateInvoicesMissingPriceZeroSubtotal(t *testing.T) {
	repo := newMemoryInvoicingRepo()
	repo.addRecord(7, 42, testDate(),
		collection.LineItem{Commodity: "Tomato", WeightKg: 10},
		collection.LineItem{Commodity: "Okra", WeightKg: 4},
	)
	svc := NewService(repo, &stubLocker{}, nil, nil, testLogger())

	result, err := svc.GenerateInvoices(context.Background(), testDate(), map[string]float64{"Tomato": 20})
	require.NoError(t, err)
	require.Equal(t, 1, result.InvoicesCreated)
	require.InDelta(t, 200.0, result.TotalAmount, 1e-9)

	lines := repo.lines[result.Invoices[0].ID]
	require.Len(t, lines, 2)
	for _, line := range lines {
		if line.Commodity == "Okra" {
			require.Zero(t, line.Subtotal)
			require.Zero(t, line.PricePerKg)
		}
	}
}

func TestGenerateInvoicesValidation(t *testing.T) {
	svc := NewService(newMemoryInvoicingRepo(), &stubLocker{}, nil, nil, testLogger())
	ctx := context.Background()

	_, err := svc.GenerateInvoices(ctx, time.Time{}, map[string]float64{"Tomato": 20})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.GenerateInvoices(ctx, testDate(), nil)
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.GenerateInvoices(ctx, testDate(), map[string]float64{"Tomato": -1})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.GenerateInvoices(ctx, testDate(), map[string]float64{"Tomato": math.NaN()})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.GenerateInvoices(ctx, testDate(), map[string]float64{" ": 10})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestGenerateInvoicesConflictWhenLockHeld(t *testing.T) {
	repo := newMemoryInvoicingRepo()
	repo.addRecord(7, 42, testDate(), collection.LineItem{Commodity: "Tomato", WeightKg: 10})
	svc := NewService(repo, &stubLocker{held: true}, nil, nil, testLogger())

	_, err := svc.GenerateInvoices(context.Background(), testDate(), map[string]float64{"Tomato": 20})
	require.ErrorIs(t, err, shared.ErrConflict)
	require.Empty(t, repo.invoices)
}
