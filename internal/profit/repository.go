package profit

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agrinxt/agrinxt/internal/catalog"
)

// Repository loads a day's attribution inputs from PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// LoadDayInputs gathers every input the engine needs for one day: route
// distance, collected weight per commodity (priced and unpriced records
// alike), both price catalogs, and the config singleton. Purely read-only.
func (r *Repository) LoadDayInputs(ctx context.Context, date time.Time) (DayInputs, error) {
	in := DayInputs{
		Date:           date,
		Weights:        map[string]float64{},
		PurchasePrices: map[string]float64{},
		SellingPrices:  map[string]float64{},
	}

	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(total_distance_km), 0)
		FROM routes
		WHERE route_date = $1`, date).Scan(&in.TotalDistanceKm)
	if err != nil {
		return in, fmt.Errorf("profit: sum route distance: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT ci.commodity, SUM(ci.weight_kg)
		FROM collection_items ci
		JOIN collection_records cr ON cr.id = ci.record_id
		WHERE cr.collected_on = $1
		GROUP BY ci.commodity`, date)
	if err != nil {
		return in, fmt.Errorf("profit: load commodity weights: %w", err)
	}
	if err := scanPriceMap(rows, in.Weights); err != nil {
		return in, fmt.Errorf("profit: scan commodity weights: %w", err)
	}

	rows, err = r.pool.Query(ctx, `
		SELECT commodity, price_per_kg FROM purchase_prices WHERE price_date = $1`, date)
	if err != nil {
		return in, fmt.Errorf("profit: load purchase prices: %w", err)
	}
	if err := scanPriceMap(rows, in.PurchasePrices); err != nil {
		return in, fmt.Errorf("profit: scan purchase prices: %w", err)
	}

	rows, err = r.pool.Query(ctx, `
		SELECT commodity, price_per_kg FROM selling_prices WHERE price_date = $1`, date)
	if err != nil {
		return in, fmt.Errorf("profit: load selling prices: %w", err)
	}
	if err := scanPriceMap(rows, in.SellingPrices); err != nil {
		return in, fmt.Errorf("profit: scan selling prices: %w", err)
	}

	err = r.pool.QueryRow(ctx, `
		SELECT delivery_rate_per_km, farmer_commission_rate
		FROM system_config WHERE id = 1`).Scan(&in.DeliveryRatePerKm, &in.CommissionRate)
	if err == pgx.ErrNoRows {
		// Singleton not materialised yet; the catalog lazily inserts it on
		// its own read path, a report must not write.
		in.DeliveryRatePerKm = catalog.DefaultDeliveryRatePerKm
		in.CommissionRate = catalog.DefaultFarmerCommissionRate
	} else if err != nil {
		return in, fmt.Errorf("profit: load config: %w", err)
	}

	return in, nil
}

func scanPriceMap(rows pgx.Rows, dest map[string]float64) error {
	defer rows.Close()
	for rows.Next() {
		var commodity string
		var value float64
		if err := rows.Scan(&commodity, &value); err != nil {
			return err
		}
		dest[commodity] = value
	}
	return rows.Err()
}
