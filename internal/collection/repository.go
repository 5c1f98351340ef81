package collection

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agrinxt/agrinxt/internal/platform/db"
)

// Repository provides PostgreSQL backed persistence for the collection ledger.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateRecord inserts a record and its line items atomically.
func (r *Repository) CreateRecord(ctx context.Context, input RecordInput, totalWeightKg float64) (*Record, error) {
	record := &Record{
		BuyerID:       input.BuyerID,
		FarmerID:      input.FarmerID,
		CollectedOn:   input.CollectedOn,
		TotalWeightKg: totalWeightKg,
	}

	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO collection_records (buyer_id, farmer_id, collected_on, total_weight_kg, priced, created_at)
			VALUES ($1, $2, $3, $4, FALSE, NOW())
			RETURNING id, created_at`,
			input.BuyerID, input.FarmerID, input.CollectedOn, totalWeightKg,
		).Scan(&record.ID, &record.CreatedAt)
		if err != nil {
			return err
		}

		for _, item := range input.Items {
			var line LineItem
			err := tx.QueryRow(ctx, `
				INSERT INTO collection_items (record_id, commodity, weight_kg)
				VALUES ($1, $2, $3)
				RETURNING id`,
				record.ID, item.Commodity, item.WeightKg,
			).Scan(&line.ID)
			if err != nil {
				return err
			}
			line.Commodity = item.Commodity
			line.WeightKg = item.WeightKg
			record.Items = append(record.Items, line)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// ListRecords returns records with their line items.
func (r *Repository) ListRecords(ctx context.Context, filter Filter) ([]Record, error) {
	query := `
		SELECT id, buyer_id, farmer_id, collected_on, total_weight_kg, priced, created_at
		FROM collection_records
		WHERE 1=1`

	args := []any{}
	argNum := 1

	if !filter.Date.IsZero() {
		query += fmt.Sprintf(" AND collected_on = $%d", argNum)
		args = append(args, filter.Date)
		argNum++
	}
	if filter.BuyerID > 0 {
		query += fmt.Sprintf(" AND buyer_id = $%d", argNum)
		args = append(args, filter.BuyerID)
		argNum++
	}
	if filter.FarmerID > 0 {
		query += fmt.Sprintf(" AND farmer_id = $%d", argNum)
		args = append(args, filter.FarmerID)
		argNum++
	}
	if filter.Priced != nil {
		query += fmt.Sprintf(" AND priced = $%d", argNum)
		args = append(args, *filter.Priced)
		argNum++
	}

	query += " ORDER BY id"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, filter.Limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	index := make(map[int64]int)
	var ids []int64
	for rows.Next() {
		var rec Record
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

	itemRows, err := r.pool.Query(ctx, `
		SELECT id, record_id, commodity, weight_kg
		FROM collection_items
		WHERE record_id = ANY($1)
		ORDER BY id`, ids)
	if err != nil {
		return nil, err
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var item LineItem
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

// CreateRoute inserts a route distance entry.
func (r *Repository) CreateRoute(ctx context.Context, buyerID int64, date time.Time, distanceKm float64) (*Route, error) {
	route := &Route{BuyerID: buyerID, RouteDate: date, TotalDistanceKm: distanceKm}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO routes (buyer_id, route_date, total_distance_km)
		VALUES ($1, $2, $3)
		RETURNING id`,
		buyerID, date, distanceKm,
	).Scan(&route.ID)
	if err != nil {
		return nil, err
	}
	return route, nil
}

// ListRoutes returns all routes for a date.
func (r *Repository) ListRoutes(ctx context.Context, date time.Time) ([]Route, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, buyer_id, route_date, total_distance_km
		FROM routes
		WHERE route_date = $1
		ORDER BY id`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var routes []Route
	for rows.Next() {
		var route Route
		if err := rows.Scan(&route.ID, &route.BuyerID, &route.RouteDate, &route.TotalDistanceKm); err != nil {
			return nil, err
		}
		routes = append(routes, route)
	}
	return routes, rows.Err()
}

// DayCommodityWeights aggregates collected weight per commodity for a date,
// across both priced and unpriced records.
func (r *Repository) DayCommodityWeights(ctx context.Context, date time.Time) ([]CommodityWeight, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT i.commodity, SUM(i.weight_kg)
		FROM collection_items i
		JOIN collection_records c ON c.id = i.record_id
		WHERE c.collected_on = $1
		GROUP BY i.commodity
		ORDER BY i.commodity`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var weights []CommodityWeight
	for rows.Next() {
		var w CommodityWeight
		if err := rows.Scan(&w.Commodity, &w.WeightKg); err != nil {
			return nil, err
		}
		weights = append(weights, w)
	}
	return weights, rows.Err()
}
