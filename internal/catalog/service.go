package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/agrinxt/agrinxt/internal/shared"
)

// RepositoryPort defines data access methods for price catalogs and config.
type RepositoryPort interface {
	UpsertPurchasePrice(ctx context.Context, date time.Time, commodity string, pricePerKg float64) error
	ListPurchasePrices(ctx context.Context, date time.Time) ([]PriceEntry, error)
	UpsertSellingPrice(ctx context.Context, date time.Time, commodity string, pricePerKg float64) error
	GetSellingPrice(ctx context.Context, date time.Time, commodity string) (*PriceEntry, error)
	ListSellingPrices(ctx context.Context, date time.Time) ([]PriceEntry, error)
	GetConfig(ctx context.Context) (*SystemConfig, error)
	UpdateDeliveryRate(ctx context.Context, rate float64) (*SystemConfig, error)
	UpdateCommissionRate(ctx context.Context, rate float64) (*SystemConfig, error)
}

// ReportInvalidator invalidates cached profit reports after catalog writes.
type ReportInvalidator interface {
	Bump(ctx context.Context) error
}

// Service handles catalog business logic.
type Service struct {
	repo    RepositoryPort
	reports ReportInvalidator
	logger  *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, reports ReportInvalidator, logger *slog.Logger) *Service {
	return &Service{repo: repo, reports: reports, logger: logger}
}

// ValidatePrice rejects negative or non-finite prices.
func ValidatePrice(pricePerKg float64) error {
	if math.IsNaN(pricePerKg) || math.IsInf(pricePerKg, 0) {
		return fmt.Errorf("%w: price must be finite", shared.ErrValidation)
	}
	if pricePerKg < 0 {
		return fmt.Errorf("%w: price must not be negative", shared.ErrValidation)
	}
	return nil
}

// GetPurchasePrices lists the purchase catalog for a date.
func (s *Service) GetPurchasePrices(ctx context.Context, date time.Time) ([]PriceEntry, error) {
	return s.repo.ListPurchasePrices(ctx, date)
}

// SetSellingPrice upserts a selling price for (date, commodity).
func (s *Service) SetSellingPrice(ctx context.Context, date time.Time, commodity string, pricePerKg float64) error {
	if commodity == "" {
		return fmt.Errorf("%w: commodity required", shared.ErrValidation)
	}
	if err := ValidatePrice(pricePerKg); err != nil {
		return err
	}
	if err := s.repo.UpsertSellingPrice(ctx, date, commodity, pricePerKg); err != nil {
		return err
	}
	s.invalidateReports(ctx)
	return nil
}

// GetSellingPrice returns the selling price for (date, commodity).
func (s *Service) GetSellingPrice(ctx context.Context, date time.Time, commodity string) (*PriceEntry, error) {
	if commodity == "" {
		return nil, fmt.Errorf("%w: commodity required", shared.ErrValidation)
	}
	return s.repo.GetSellingPrice(ctx, date, commodity)
}

// ListSellingPrices lists the selling catalog for a date.
func (s *Service) ListSellingPrices(ctx context.Context, date time.Time) ([]PriceEntry, error) {
	return s.repo.ListSellingPrices(ctx, date)
}

// GetConfig returns the singleton configuration, creating defaults on first read.
func (s *Service) GetConfig(ctx context.Context) (*SystemConfig, error) {
	return s.repo.GetConfig(ctx)
}

// SetDeliveryRate updates the per-kilometre delivery rate.
func (s *Service) SetDeliveryRate(ctx context.Context, rate float64) (*SystemConfig, error) {
	if err := ValidatePrice(rate); err != nil {
		return nil, err
	}
	cfg, err := s.repo.UpdateDeliveryRate(ctx, rate)
	if err != nil {
		return nil, err
	}
	s.invalidateReports(ctx)
	return cfg, nil
}

// SetCommissionRate updates the farmer commission rate (a fraction, not a percent).
func (s *Service) SetCommissionRate(ctx context.Context, rate float64) (*SystemConfig, error) {
	if math.IsNaN(rate) || rate < 0 || rate >= 1 {
		return nil, fmt.Errorf("%w: commission rate must be in [0,1)", shared.ErrValidation)
	}
	cfg, err := s.repo.UpdateCommissionRate(ctx, rate)
	if err != nil {
		return nil, err
	}
	s.invalidateReports(ctx)
	return cfg, nil
}

// invalidateReports is best-effort; a stale report never blocks a catalog write.
func (s *Service) invalidateReports(ctx context.Context) {
	if s.reports == nil {
		return
	}
	if err := s.reports.Bump(ctx); err != nil && s.logger != nil {
		s.logger.Warn("bump report cache", slog.Any("error", err))
	}
}
