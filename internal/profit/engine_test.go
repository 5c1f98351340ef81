package profit

import (
	"math"
	"testing"
	"time"
)

func day() time.Time {
	return time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
}

func TestComputeWeightShareLogistics(t *testing.T) {
	report := Compute(DayInputs{
		Date:              day(),
		TotalDistanceKm:   100,
		Weights:           map[string]float64{"Potato": 40, "Tomato": 60},
		PurchasePrices:    map[string]float64{"Potato": 15, "Tomato": 20},
		SellingPrices:     map[string]float64{"Potato": 22, "Tomato": 28},
		DeliveryRatePerKm: 10,
		CommissionRate:    0.05,
	})

	if report.TotalDeliveryCost != 1000 {
		t.Fatalf("expected delivery cost 1000, got %v", report.TotalDeliveryCost)
	}
	if len(report.Commodities) != 2 {
		t.Fatalf("expected 2 commodities, got %d", len(report.Commodities))
	}
	// Sorted by name: Potato first.
	if report.Commodities[0].LogisticsCost != 400 || report.Commodities[1].LogisticsCost != 600 {
		t.Fatalf("expected 400/600 logistics split, got %v/%v",
			report.Commodities[0].LogisticsCost, report.Commodities[1].LogisticsCost)
	}

	tomato := report.Commodities[1]
	if tomato.Revenue != 60*28 {
		t.Fatalf("expected tomato revenue 1680, got %v", tomato.Revenue)
	}
	if tomato.CommissionEarned != 60*20*0.05 {
		t.Fatalf("expected tomato commission 60, got %v", tomato.CommissionEarned)
	}
	if tomato.NetFarmerPayout != 1200-60 {
		t.Fatalf("expected tomato net payout 1140, got %v", tomato.NetFarmerPayout)
	}
	if tomato.NetProfit != 1680-1140-600 {
		t.Fatalf("expected tomato net profit -60, got %v", tomato.NetProfit)
	}
}

func TestComputeLogisticsSumsToDeliveryCost(t *testing.T) {
	report := Compute(DayInputs{
		Date:              day(),
		TotalDistanceKm:   73.4,
		Weights:           map[string]float64{"Brinjal": 17.25, "Okra": 9.1, "Tomato": 33.333},
		PurchasePrices:    map[string]float64{"Brinjal": 12, "Okra": 30, "Tomato": 20},
		SellingPrices:     map[string]float64{"Brinjal": 18, "Okra": 41, "Tomato": 27},
		DeliveryRatePerKm: 11.5,
		CommissionRate:    0.05,
	})

	var sum float64
	for _, c := range report.Commodities {
		sum += c.LogisticsCost
	}
	if math.Abs(sum-report.TotalDeliveryCost) > 1e-6 {
		t.Fatalf("logistics costs sum to %v, delivery cost %v", sum, report.TotalDeliveryCost)
	}
}

func TestComputeZeroWeightDay(t *testing.T) {
	report := Compute(DayInputs{
		Date:              day(),
		TotalDistanceKm:   50,
		Weights:           map[string]float64{},
		DeliveryRatePerKm: 10,
		CommissionRate:    0.05,
	})
	if report.TotalDeliveryCost != 500 {
		t.Fatalf("expected delivery cost 500, got %v", report.TotalDeliveryCost)
	}
	if report.TotalWeightKg != 0 || len(report.Commodities) != 0 {
		t.Fatalf("expected empty report, got %+v", report)
	}
	if report.Totals.ProfitMarginPercent != 0 {
		t.Fatalf("expected zero margin on zero revenue, got %v", report.Totals.ProfitMarginPercent)
	}
}

func TestComputeMissingPricesSurfacedNotFatal(t *testing.T) {
	report := Compute(DayInputs{
		Date:              day(),
		TotalDistanceKm:   10,
		Weights:           map[string]float64{"Tomato": 25},
		PurchasePrices:    map[string]float64{},
		SellingPrices:     map[string]float64{},
		DeliveryRatePerKm: 10,
		CommissionRate:    0.05,
	})
	c := report.Commodities[0]
	if !c.MissingPurchasePrice || !c.MissingSellingPrice {
		t.Fatalf("expected missing price flags, got %+v", c)
	}
	if c.Revenue != 0 || c.GrossFarmerPayout != 0 {
		t.Fatalf("expected zero priced figures, got %+v", c)
	}
	if c.LogisticsCost != 100 {
		t.Fatalf("expected full logistics cost 100, got %v", c.LogisticsCost)
	}
	if c.NetProfit != -100 {
		t.Fatalf("expected net profit -100, got %v", c.NetProfit)
	}
	if c.ProfitMarginPercent != 0 {
		t.Fatalf("expected zero margin on zero revenue, got %v", c.ProfitMarginPercent)
	}
}

func TestComputeDayMarginFromTotals(t *testing.T) {
	report := Compute(DayInputs{
		Date:              day(),
		TotalDistanceKm:   0,
		Weights:           map[string]float64{"Okra": 10, "Tomato": 10},
		PurchasePrices:    map[string]float64{"Okra": 10, "Tomato": 10},
		SellingPrices:     map[string]float64{"Okra": 40, "Tomato": 10},
		DeliveryRatePerKm: 10,
		CommissionRate:    0,
	})
	// Okra margin 75%, tomato margin 0%; day margin must come from totals
	// (300 profit over 500 revenue), not a 37.5% average.
	want := 300.0 / 500.0 * 100
	if math.Abs(report.Totals.ProfitMarginPercent-want) > 1e-9 {
		t.Fatalf("expected day margin %v, got %v", want, report.Totals.ProfitMarginPercent)
	}
}
