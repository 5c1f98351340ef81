package collection

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/agrinxt/agrinxt/internal/shared"
)

// RecordInput is a validated pickup ready for persistence.
type RecordInput struct {
	BuyerID     int64
	FarmerID    int64
	CollectedOn time.Time
	Items       []LineItem
}

// RepositoryPort defines data access methods for the collection ledger.
type RepositoryPort interface {
	CreateRecord(ctx context.Context, input RecordInput, totalWeightKg float64) (*Record, error)
	ListRecords(ctx context.Context, filter Filter) ([]Record, error)
	CreateRoute(ctx context.Context, buyerID int64, date time.Time, distanceKm float64) (*Route, error)
	ListRoutes(ctx context.Context, date time.Time) ([]Route, error)
	DayCommodityWeights(ctx context.Context, date time.Time) ([]CommodityWeight, error)
}

// ReportInvalidator invalidates cached profit reports after ledger writes.
type ReportInvalidator interface {
	Bump(ctx context.Context) error
}

// Service handles collection ledger business logic. Record creation only
// appends new unpriced records and never touches priced ones, so it runs
// fully concurrently across buyers and zones.
type Service struct {
	repo    RepositoryPort
	reports ReportInvalidator
	logger  *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, reports ReportInvalidator, logger *slog.Logger) *Service {
	return &Service{repo: repo, reports: reports, logger: logger}
}

// RecordCollection appends one unpriced pickup to the ledger. The total
// weight is derived from the line items, never taken from the caller.
func (s *Service) RecordCollection(ctx context.Context, input RecordInput) (*Record, error) {
	if input.BuyerID <= 0 {
		return nil, fmt.Errorf("%w: buyer id required", shared.ErrValidation)
	}
	if input.FarmerID <= 0 {
		return nil, fmt.Errorf("%w: farmer id required", shared.ErrValidation)
	}
	if input.CollectedOn.IsZero() {
		return nil, fmt.Errorf("%w: collection date required", shared.ErrValidation)
	}
	if len(input.Items) == 0 {
		return nil, fmt.Errorf("%w: at least one line item required", shared.ErrValidation)
	}

	var total float64
	for i, item := range input.Items {
		if strings.TrimSpace(item.Commodity) == "" {
			return nil, fmt.Errorf("%w: item %d: commodity required", shared.ErrValidation, i+1)
		}
		if math.IsNaN(item.WeightKg) || math.IsInf(item.WeightKg, 0) || item.WeightKg <= 0 {
			return nil, fmt.Errorf("%w: item %d: weight must be positive", shared.ErrValidation, i+1)
		}
		total += item.WeightKg
	}

	record, err := s.repo.CreateRecord(ctx, input, total)
	if err != nil {
		return nil, err
	}
	s.invalidateReports(ctx)
	return record, nil
}

// ListCollections returns ledger records matching the filter.
func (s *Service) ListCollections(ctx context.Context, filter Filter) ([]Record, error) {
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 200
	}
	return s.repo.ListRecords(ctx, filter)
}

// RecordRoute captures a buyer's travelled distance for a day.
func (s *Service) RecordRoute(ctx context.Context, buyerID int64, date time.Time, distanceKm float64) (*Route, error) {
	if buyerID <= 0 {
		return nil, fmt.Errorf("%w: buyer id required", shared.ErrValidation)
	}
	if date.IsZero() {
		return nil, fmt.Errorf("%w: route date required", shared.ErrValidation)
	}
	if math.IsNaN(distanceKm) || math.IsInf(distanceKm, 0) || distanceKm <= 0 {
		return nil, fmt.Errorf("%w: distance must be positive", shared.ErrValidation)
	}
	route, err := s.repo.CreateRoute(ctx, buyerID, date, distanceKm)
	if err != nil {
		return nil, err
	}
	s.invalidateReports(ctx)
	return route, nil
}

// ListRoutes returns all routes recorded for a date.
func (s *Service) ListRoutes(ctx context.Context, date time.Time) ([]Route, error) {
	return s.repo.ListRoutes(ctx, date)
}

// DaySummary aggregates a day's collected weight per commodity. The admin
// pricing screen uses it to see which commodities still need prices.
func (s *Service) DaySummary(ctx context.Context, date time.Time) ([]CommodityWeight, error) {
	return s.repo.DayCommodityWeights(ctx, date)
}

func (s *Service) invalidateReports(ctx context.Context) {
	if s.reports == nil {
		return
	}
	if err := s.reports.Bump(ctx); err != nil && s.logger != nil {
		s.logger.Warn("bump report cache", slog.Any("error", err))
	}
}
