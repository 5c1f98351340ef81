package catalog

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agrinxt/agrinxt/internal/shared"
)

// Repository provides PostgreSQL backed persistence for catalogs and config.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// UpsertPurchasePrice writes a (date, commodity) purchase price idempotently.
func (r *Repository) UpsertPurchasePrice(ctx context.Context, date time.Time, commodity string, pricePerKg float64) error {
	query := `
		INSERT INTO purchase_prices (price_date, commodity, price_per_kg, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (price_date, commodity)
		DO UPDATE SET price_per_kg = EXCLUDED.price_per_kg, updated_at = NOW()`

	_, err := r.pool.Exec(ctx, query, date, commodity, pricePerKg)
	return err
}

// ListPurchasePrices returns the purchase catalog for a date.
func (r *Repository) ListPurchasePrices(ctx context.Context, date time.Time) ([]PriceEntry, error) {
	return r.listPrices(ctx, "purchase_prices", date)
}

// UpsertSellingPrice writes a (date, commodity) selling price idempotently.
func (r *Repository) UpsertSellingPrice(ctx context.Context, date time.Time, commodity string, pricePerKg float64) error {
	query := `
		INSERT INTO selling_prices (price_date, commodity, price_per_kg, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (price_date, commodity)
		DO UPDATE SET price_per_kg = EXCLUDED.price_per_kg, updated_at = NOW()`

	_, err := r.pool.Exec(ctx, query, date, commodity, pricePerKg)
	return err
}

// GetSellingPrice returns a single selling price entry.
func (r *Repository) GetSellingPrice(ctx context.Context, date time.Time, commodity string) (*PriceEntry, error) {
	query := `
		SELECT price_date, commodity, price_per_kg, updated_at
		FROM selling_prices
		WHERE price_date = $1 AND commodity = $2`

	var entry PriceEntry
	err := r.pool.QueryRow(ctx, query, date, commodity).Scan(
		&entry.Date, &entry.Commodity, &entry.PricePerKg, &entry.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListSellingPrices returns the selling catalog for a date.
func (r *Repository) ListSellingPrices(ctx context.Context, date time.Time) ([]PriceEntry, error) {
	return r.listPrices(ctx, "selling_prices", date)
}

func (r *Repository) listPrices(ctx context.Context, table string, date time.Time) ([]PriceEntry, error) {
	query := `
		SELECT price_date, commodity, price_per_kg, updated_at
		FROM ` + table + `
		WHERE price_date = $1
		ORDER BY commodity`

	rows, err := r.pool.Query(ctx, query, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []PriceEntry
	for rows.Next() {
		var entry PriceEntry
		if err := rows.Scan(&entry.Date, &entry.Commodity, &entry.PricePerKg, &entry.UpdatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// GetConfig returns the singleton configuration, inserting defaults when missing.
func (r *Repository) GetConfig(ctx context.Context) (*SystemConfig, error) {
	insert := `
		INSERT INTO system_config (id, delivery_rate_per_km, farmer_commission_rate, updated_at)
		VALUES (1, $1, $2, NOW())
		ON CONFLICT (id) DO NOTHING`
	if _, err := r.pool.Exec(ctx, insert, DefaultDeliveryRatePerKm, DefaultFarmerCommissionRate); err != nil {
		return nil, err
	}

	var cfg SystemConfig
	err := r.pool.QueryRow(ctx,
		`SELECT delivery_rate_per_km, farmer_commission_rate, updated_at FROM system_config WHERE id = 1`,
	).Scan(&cfg.DeliveryRatePerKm, &cfg.FarmerCommissionRate, &cfg.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// UpdateDeliveryRate sets the per-kilometre delivery rate.
func (r *Repository) UpdateDeliveryRate(ctx context.Context, rate float64) (*SystemConfig, error) {
	if _, err := r.GetConfig(ctx); err != nil {
		return nil, err
	}
	var cfg SystemConfig
	err := r.pool.QueryRow(ctx, `
		UPDATE system_config SET delivery_rate_per_km = $1, updated_at = NOW()
		WHERE id = 1
		RETURNING delivery_rate_per_km, farmer_commission_rate, updated_at`,
		rate,
	).Scan(&cfg.DeliveryRatePerKm, &cfg.FarmerCommissionRate, &cfg.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// UpdateCommissionRate sets the farmer commission rate.
func (r *Repository) UpdateCommissionRate(ctx context.Context, rate float64) (*SystemConfig, error) {
	if _, err := r.GetConfig(ctx); err != nil {
		return nil, err
	}
	var cfg SystemConfig
	err := r.pool.QueryRow(ctx, `
		UPDATE system_config SET farmer_commission_rate = $1, updated_at = NOW()
		WHERE id = 1
		RETURNING delivery_rate_per_km, farmer_commission_rate, updated_at`,
		rate,
	).Scan(&cfg.DeliveryRatePerKm, &cfg.FarmerCommissionRate, &cfg.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}
