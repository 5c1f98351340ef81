package invoicing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/agrinxt/agrinxt/internal/collection"
	"github.com/agrinxt/agrinxt/internal/shared"
)

// TxRepository exposes the operations available inside one pricing unit of work.
type TxRepository interface {
	UpsertPurchasePrice(ctx context.Context, date time.Time, commodity string, pricePerKg float64) error
	SelectUnpricedForUpdate(ctx context.Context, date time.Time) ([]collection.Record, error)
	NextInvoiceNumber(ctx context.Context, year int) (string, error)
	InsertInvoice(ctx context.Context, inv *Invoice) error
	InsertLine(ctx context.Context, line *InvoiceLine) error
	MarkRecordsPriced(ctx context.Context, recordIDs []int64) error
}

// RepositoryPort defines data access methods for invoicing.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetInvoice(ctx context.Context, id int64) (*InvoiceDetails, error)
	ListInvoices(ctx context.Context, filter ListFilter) ([]Invoice, error)
	OutstandingDues(ctx context.Context) ([]FarmerDue, error)
}

// Notifier dispatches post-commit invoice notifications. Failures degrade
// to logging and never roll back the settlement mutation.
type Notifier interface {
	InvoiceIssued(ctx context.Context, inv Invoice) error
}

// ReportInvalidator invalidates cached profit reports after a pricing run.
type ReportInvalidator interface {
	Bump(ctx context.Context) error
}

// Service turns unpriced collection records into invoices.
type Service struct {
	repo     RepositoryPort
	locker   shared.Locker
	notifier Notifier
	reports  ReportInvalidator
	logger   *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, locker shared.Locker, notifier Notifier, reports ReportInvalidator, logger *slog.Logger) *Service {
	return &Service{repo: repo, locker: locker, notifier: notifier, reports: reports, logger: logger}
}

// GenerateInvoices prices all unpriced collection records for a date, one
// invoice per (buyer, farmer) pair. The run is guarded by a per-date lock
// and executes as a single transaction, so a concurrent or retried run can
// never double-invoice a record: the second run simply selects nothing.
// Commodities present in collections but missing from priceMap get a zero
// subtotal, flagged for admin attention rather than failing the run.
func (s *Service) GenerateInvoices(ctx context.Context, date time.Time, priceMap map[string]float64) (*GenerateResult, error) {
	if date.IsZero() {
		return nil, fmt.Errorf("%w: date required", shared.ErrValidation)
	}
	if len(priceMap) == 0 {
		return nil, fmt.Errorf("%w: price map must not be empty", shared.ErrValidation)
	}
	for commodity, price := range priceMap {
		if strings.TrimSpace(commodity) == "" {
			return nil, fmt.Errorf("%w: empty commodity in price map", shared.ErrValidation)
		}
		if math.IsNaN(price) || math.IsInf(price, 0) {
			return nil, fmt.Errorf("%w: price for %s must be finite", shared.ErrValidation, commodity)
		}
		if price < 0 {
			return nil, fmt.Errorf("%w: price for %s must not be negative", shared.ErrValidation, commodity)
		}
	}

	if s.locker != nil {
		release, err := s.locker.Acquire(ctx, shared.PricingLockKey(date))
		if err != nil {
			if errors.Is(err, shared.ErrLockHeld) {
				return nil, fmt.Errorf("%w: invoice generation already in progress for %s", shared.ErrConflict, date.Format("2006-01-02"))
			}
			return nil, err
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				s.logger.Warn("release pricing lock", slog.Any("error", err))
			}
		}()
	}

	result := &GenerateResult{}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		for _, commodity := range sortedCommodities(priceMap) {
			if err := tx.UpsertPurchasePrice(ctx, date, commodity, priceMap[commodity]); err != nil {
				return fmt.Errorf("upsert price %s: %w", commodity, err)
			}
		}

		records, err := tx.SelectUnpricedForUpdate(ctx, date)
		if err != nil {
			return fmt.Errorf("select unpriced records: %w", err)
		}
		if len(records) == 0 {
			return nil
		}

		groups := make(map[PartyKey][]collection.Record)
		for _, rec := range records {
			key := PartyKey{BuyerID: rec.BuyerID, FarmerID: rec.FarmerID}
			groups[key] = append(groups[key], rec)
		}
		keys := make([]PartyKey, 0, len(groups))
		for key := range groups {
			keys = append(keys, key)
		}
		sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

		for _, key := range keys {
			group := groups[key]

			var lines []InvoiceLine
			var grandTotal float64
			var recordIDs []int64
			for _, rec := range group {
				recordIDs = append(recordIDs, rec.ID)
				for _, item := range rec.Items {
					subtotal := round2(item.WeightKg * priceMap[item.Commodity])
					lines = append(lines, InvoiceLine{
						RecordID:   rec.ID,
						Commodity:  item.Commodity,
						WeightKg:   item.WeightKg,
						PricePerKg: priceMap[item.Commodity],
						Subtotal:   subtotal,
					})
					grandTotal += subtotal
				}
			}
			grandTotal = round2(grandTotal)

			number, err := tx.NextInvoiceNumber(ctx, date.Year())
			if err != nil {
				return fmt.Errorf("next invoice number: %w", err)
			}

			inv := Invoice{
				Number:      number,
				BuyerID:     key.BuyerID,
				FarmerID:    key.FarmerID,
				InvoiceDate: date,
				GrandTotal:  grandTotal,
				Status:      StatusPending,
			}
			if err := tx.InsertInvoice(ctx, &inv); err != nil {
				return fmt.Errorf("insert invoice %s: %w", number, err)
			}
			for i := range lines {
				lines[i].InvoiceID = inv.ID
				if err := tx.InsertLine(ctx, &lines[i]); err != nil {
					return fmt.Errorf("insert line for %s: %w", number, err)
				}
			}
			if err := tx.MarkRecordsPriced(ctx, recordIDs); err != nil {
				return fmt.Errorf("mark records priced for %s: %w", number, err)
			}

			result.InvoicesCreated++
			result.TotalAmount = round2(result.TotalAmount + grandTotal)
			result.Invoices = append(result.Invoices, inv)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, result.Invoices)
	return result, nil
}

// afterCommit runs best-effort side channels outside the transactional boundary.
func (s *Service) afterCommit(ctx context.Context, invoices []Invoice) {
	if s.notifier != nil {
		for _, inv := range invoices {
			if err := s.notifier.InvoiceIssued(ctx, inv); err != nil {
				s.logger.Warn("enqueue invoice notification",
					slog.String("number", inv.Number), slog.Any("error", err))
			}
		}
	}
	if s.reports != nil && len(invoices) > 0 {
		if err := s.reports.Bump(ctx); err != nil {
			s.logger.Warn("bump report cache", slog.Any("error", err))
		}
	}
}

// GetInvoice returns an invoice with lines, payments and balance.
func (s *Service) GetInvoice(ctx context.Context, id int64) (*InvoiceDetails, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: invoice id required", shared.ErrValidation)
	}
	return s.repo.GetInvoice(ctx, id)
}

// ListInvoices returns invoices matching the filter.
func (s *Service) ListInvoices(ctx context.Context, filter ListFilter) ([]Invoice, error) {
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 200
	}
	return s.repo.ListInvoices(ctx, filter)
}

// OutstandingDues returns the per-farmer outstanding balance list.
func (s *Service) OutstandingDues(ctx context.Context) ([]FarmerDue, error) {
	return s.repo.OutstandingDues(ctx)
}

func sortedCommodities(priceMap map[string]float64) []string {
	commodities := make([]string, 0, len(priceMap))
	for commodity := range priceMap {
		commodities = append(commodities, commodity)
	}
	sort.Strings(commodities)
	return commodities
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
