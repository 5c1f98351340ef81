package catalog

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/agrinxt/agrinxt/internal/shared"
)

type priceKey struct {
	date      string
	commodity string
}

type memoryCatalogRepo struct {
	purchase map[priceKey]float64
	selling  map[priceKey]float64
	config   *SystemConfig
}

func newMemoryCatalogRepo() *memoryCatalogRepo {
	return &memoryCatalogRepo{
		purchase: make(map[priceKey]float64),
		selling:  make(map[priceKey]float64),
	}
}

func key(date time.Time, commodity string) priceKey {
	return priceKey{date: date.Format("2006-01-02"), commodity: commodity}
}

func (r *memoryCatalogRepo) UpsertPurchasePrice(ctx context.Context, date time.Time, commodity string, pricePerKg float64) error {
	r.purchase[key(date, commodity)] = pricePerKg
	return nil
}

func (r *memoryCatalogRepo) ListPurchasePrices(ctx context.Context, date time.Time) ([]PriceEntry, error) {
	var out []PriceEntry
	for k, price := range r.purchase {
		if k.date == date.Format("2006-01-02") {
			out = append(out, PriceEntry{Date: date, Commodity: k.commodity, PricePerKg: price})
		}
	}
	return out, nil
}

func (r *memoryCatalogRepo) UpsertSellingPrice(ctx context.Context, date time.Time, commodity string, pricePerKg float64) error {
	r.selling[key(date, commodity)] = pricePerKg
	return nil
}

func (r *memoryCatalogRepo) GetSellingPrice(ctx context.Context, date time.Time, commodity string) (*PriceEntry, error) {
	price, ok := r.selling[key(date, commodity)]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &PriceEntry{Date: date, Commodity: commodity, PricePerKg: price}, nil
}

func (r *memoryCatalogRepo) ListSellingPrices(ctx context.Context, date time.Time) ([]PriceEntry, error) {
	var out []PriceEntry
	for k, price := range r.selling {
		if k.date == date.Format("2006-01-02") {
			out = append(out, PriceEntry{Date: date, Commodity: k.commodity, PricePerKg: price})
		}
	}
	return out, nil
}

func (r *memoryCatalogRepo) GetConfig(ctx context.Context) (*SystemConfig, error) {
	if r.config == nil {
		r.config = &SystemConfig{
			DeliveryRatePerKm:    DefaultDeliveryRatePerKm,
			FarmerCommissionRate: DefaultFarmerCommissionRate,
		}
	}
	return r.config, nil
}

func (r *memoryCatalogRepo) UpdateDeliveryRate(ctx context.Context, rate float64) (*SystemConfig, error) {
	cfg, _ := r.GetConfig(ctx)
	cfg.DeliveryRatePerKm = rate
	return cfg, nil
}

func (r *memoryCatalogRepo) UpdateCommissionRate(ctx context.Context, rate float64) (*SystemConfig, error) {
	cfg, _ := r.GetConfig(ctx)
	cfg.FarmerCommissionRate = rate
	return cfg, nil
}

type countingBumper struct {
	bumps int
}

func (b *countingBumper) Bump(ctx context.Context) error {
	b.bumps++
	return nil
}

func catalogDate() time.Time {
	return time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)
}

func TestSetSellingPriceValidatesAndBumps(t *testing.T) {
	repo := newMemoryCatalogRepo()
	bumper := &countingBumper{}
	svc := NewService(repo, bumper, nil)
	ctx := context.Background()

	require.NoError(t, svc.SetSellingPrice(ctx, catalogDate(), "Tomato", 28))
	require.Equal(t, 1, bumper.bumps)

	entry, err := svc.GetSellingPrice(ctx, catalogDate(), "Tomato")
	require.NoError(t, err)
	require.InDelta(t, 28.0, entry.PricePerKg, 1e-9)

	err = svc.SetSellingPrice(ctx, catalogDate(), "", 28)
	require.ErrorIs(t, err, shared.ErrValidation)

	err = svc.SetSellingPrice(ctx, catalogDate(), "Tomato", -3)
	require.ErrorIs(t, err, shared.ErrValidation)

	err = svc.SetSellingPrice(ctx, catalogDate(), "Tomato", math.Inf(1))
	require.ErrorIs(t, err, shared.ErrValidation)

	// Failed writes never invalidate.
	require.Equal(t, 1, bumper.bumps)
}

func TestSetSellingPriceUpsertIsIdempotent(t *testing.T) {
	repo := newMemoryCatalogRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	require.NoError(t, svc.SetSellingPrice(ctx, catalogDate(), "Tomato", 28))
	require.NoError(t, svc.SetSellingPrice(ctx, catalogDate(), "Tomato", 30))

	entry, err := svc.GetSellingPrice(ctx, catalogDate(), "Tomato")
	require.NoError(t, err)
	require.InDelta(t, 30.0, entry.PricePerKg, 1e-9)

	prices, err := svc.ListSellingPrices(ctx, catalogDate())
	require.NoError(t, err)
	require.Len(t, prices, 1)
}

func TestGetConfigDefaults(t *testing.T) {
	svc := NewService(newMemoryCatalogRepo(), nil, nil)

	cfg, err := svc.GetConfig(context.Background())
	require.NoError(t, err)
	require.InDelta(t, 10.0, cfg.DeliveryRatePerKm, 1e-9)
	require.InDelta(t, 0.05, cfg.FarmerCommissionRate, 1e-9)
}

func TestSetDeliveryRate(t *testing.T) {
	bumper := &countingBumper{}
	svc := NewService(newMemoryCatalogRepo(), bumper, nil)
	ctx := context.Background()

	cfg, err := svc.SetDeliveryRate(ctx, 12.5)
	require.NoError(t, err)
	require.InDelta(t, 12.5, cfg.DeliveryRatePerKm, 1e-9)
	require.Equal(t, 1, bumper.bumps)

	_, err = svc.SetDeliveryRate(ctx, -1)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestSetCommissionRateBounds(t *testing.T) {
	svc := NewService(newMemoryCatalogRepo(), nil, nil)
	ctx := context.Background()

	cfg, err := svc.SetCommissionRate(ctx, 0.08)
	require.NoError(t, err)
	require.InDelta(t, 0.08, cfg.FarmerCommissionRate, 1e-9)

	_, err = svc.SetCommissionRate(ctx, 1)
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.SetCommissionRate(ctx, -0.1)
	require.ErrorIs(t, err, shared.ErrValidation)
}
