package collection

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/agrinxt/agrinxt/internal/shared"
)

type memoryLedgerRepo struct {
	records []Record
	routes  []Route
}

func (r *memoryLedgerRepo) CreateRecord(ctx context.Context, input RecordInput, totalWeightKg float64) (*Record, error) {
	rec := Record{
		ID:            int64(len(r.records) + 1),
		BuyerID:       input.BuyerID,
		FarmerID:      input.FarmerID,
		CollectedOn:   input.CollectedOn,
		Items:         input.Items,
		TotalWeightKg: totalWeightKg,
		CreatedAt:     time.Now(),
	}
	r.records = append(r.records, rec)
	return &rec, nil
}

func (r *memoryLedgerRepo) ListRecords(ctx context.Context, filter Filter) ([]Record, error) {
	var out []Record
	for _, rec := range r.records {
		if filter.BuyerID > 0 && rec.BuyerID != filter.BuyerID {
			continue
		}
		if filter.FarmerID > 0 && rec.FarmerID != filter.FarmerID {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *memoryLedgerRepo) CreateRoute(ctx context.Context, buyerID int64, date time.Time, distanceKm float64) (*Route, error) {
	route := Route{ID: int64(len(r.routes) + 1), BuyerID: buyerID, RouteDate: date, TotalDistanceKm: distanceKm}
	r.routes = append(r.routes, route)
	return &route, nil
}

func (r *memoryLedgerRepo) ListRoutes(ctx context.Context, date time.Time) ([]Route, error) {
	return r.routes, nil
}

func (r *memoryLedgerRepo) DayCommodityWeights(ctx context.Context, date time.Time) ([]CommodityWeight, error) {
	agg := map[string]float64{}
	for _, rec := range r.records {
		if !rec.CollectedOn.Equal(date) {
			continue
		}
		for _, item := range rec.Items {
			agg[item.Commodity] += item.WeightKg
		}
	}
	var out []CommodityWeight
	for commodity, weight := range agg {
		out = append(out, CommodityWeight{Commodity: commodity, WeightKg: weight})
	}
	return out, nil
}

func pickupDate() time.Time {
	return time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)
}

func TestRecordCollectionDerivesTotalWeight(t *testing.T) {
	repo := &memoryLedgerRepo{}
	svc := NewService(repo, nil, nil)

	rec, err := svc.RecordCollection(context.Background(), RecordInput{
		BuyerID:     7,
		FarmerID:    42,
		CollectedOn: pickupDate(),
		Items: []LineItem{
			{Commodity: "Tomato", WeightKg: 10},
			{Commodity: "Potato", WeightKg: 5},
		},
	})
	require.NoError(t, err)
	require.InDelta(t, 15.0, rec.TotalWeightKg, 1e-9)
	require.False(t, rec.Priced)
}

func TestRecordCollectionValidation(t *testing.T) {
	svc := NewService(&memoryLedgerRepo{}, nil, nil)
	ctx := context.Background()
	items := []LineItem{{Commodity: "Tomato", WeightKg: 10}}

	_, err := svc.RecordCollection(ctx, RecordInput{FarmerID: 42, CollectedOn: pickupDate(), Items: items})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.RecordCollection(ctx, RecordInput{BuyerID: 7, CollectedOn: pickupDate(), Items: items})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.RecordCollection(ctx, RecordInput{BuyerID: 7, FarmerID: 42, Items: items})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.RecordCollection(ctx, RecordInput{BuyerID: 7, FarmerID: 42, CollectedOn: pickupDate()})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.RecordCollection(ctx, RecordInput{
		BuyerID: 7, FarmerID: 42, CollectedOn: pickupDate(),
		Items: []LineItem{{Commodity: "", WeightKg: 10}},
	})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.RecordCollection(ctx, RecordInput{
		BuyerID: 7, FarmerID: 42, CollectedOn: pickupDate(),
		Items: []LineItem{{Commodity: "Tomato", WeightKg: 0}},
	})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestRecordRoute(t *testing.T) {
	repo := &memoryLedgerRepo{}
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	route, err := svc.RecordRoute(ctx, 7, pickupDate(), 34.5)
	require.NoError(t, err)
	require.InDelta(t, 34.5, route.TotalDistanceKm, 1e-9)

	_, err = svc.RecordRoute(ctx, 0, pickupDate(), 34.5)
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.RecordRoute(ctx, 7, pickupDate(), 0)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestDaySummaryAggregatesPerCommodity(t *testing.T) {
	repo := &memoryLedgerRepo{}
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	_, err := svc.RecordCollection(ctx, RecordInput{
		BuyerID: 7, FarmerID: 42, CollectedOn: pickupDate(),
		Items: []LineItem{{Commodity: "Tomato", WeightKg: 10}},
	})
	require.NoError(t, err)
	_, err = svc.RecordCollection(ctx, RecordInput{
		BuyerID: 8, FarmerID: 43, CollectedOn: pickupDate(),
		Items: []LineItem{{Commodity: "Tomato", WeightKg: 4}, {Commodity: "Okra", WeightKg: 2}},
	})
	require.NoError(t, err)

	weights, err := svc.DaySummary(ctx, pickupDate())
	require.NoError(t, err)
	byCommodity := map[string]float64{}
	for _, w := range weights {
		byCommodity[w.Commodity] = w.WeightKg
	}
	require.InDelta(t, 14.0, byCommodity["Tomato"], 1e-9)
	require.InDelta(t, 2.0, byCommodity["Okra"], 1e-9)
}
