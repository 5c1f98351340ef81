package profit

import "time"

// CommodityProfit breaks one day's margin down for a single commodity.
// A missing catalog entry on either side prices at zero and is surfaced
// via the Missing* flags; it signals an administrative gap, not an error.
type CommodityProfit struct {
	Commodity            string  `json:"commodity"`
	WeightKg             float64 `json:"weight_kg"`
	Revenue              float64 `json:"revenue"`
	GrossFarmerPayout    float64 `json:"gross_farmer_payout"`
	CommissionEarned     float64 `json:"commission_earned"`
	NetFarmerPayout      float64 `json:"net_farmer_payout"`
	LogisticsCost        float64 `json:"logistics_cost"`
	NetProfit            float64 `json:"net_profit"`
	ProfitMarginPercent  float64 `json:"profit_margin_percent"`
	MissingPurchasePrice bool    `json:"missing_purchase_price,omitempty"`
	MissingSellingPrice  bool    `json:"missing_selling_price,omitempty"`
}

// DayTotals sums the per-commodity figures. The day margin is derived
// from the summed revenue and profit, never averaged across commodities.
type DayTotals struct {
	Revenue             float64 `json:"revenue"`
	GrossFarmerPayout   float64 `json:"gross_farmer_payout"`
	CommissionEarned    float64 `json:"commission_earned"`
	NetFarmerPayout     float64 `json:"net_farmer_payout"`
	LogisticsCost       float64 `json:"logistics_cost"`
	NetProfit           float64 `json:"net_profit"`
	ProfitMarginPercent float64 `json:"profit_margin_percent"`
}

// DayProfitReport is the read-only cost attribution report for one day.
type DayProfitReport struct {
	Date              string            `json:"date"`
	TotalDistanceKm   float64           `json:"total_distance_km"`
	TotalDeliveryCost float64           `json:"total_delivery_cost"`
	TotalWeightKg     float64           `json:"total_weight_kg"`
	Commodities       []CommodityProfit `json:"commodities"`
	Totals            DayTotals         `json:"totals"`
}

// DayInputs is everything the attribution engine needs for one day,
// loaded up front so the computation itself stays pure.
type DayInputs struct {
	Date              time.Time
	TotalDistanceKm   float64
	Weights           map[string]float64
	PurchasePrices    map[string]float64
	SellingPrices     map[string]float64
	DeliveryRatePerKm float64
	CommissionRate    float64
}
