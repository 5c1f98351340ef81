package collection

import "time"

// LineItem is one commodity weighed during a pickup.
type LineItem struct {
	ID        int64   `json:"id"`
	Commodity string  `json:"commodity"`
	WeightKg  float64 `json:"weight_kg"`
}

// Record identifies one pickup event. It is mutated exactly once, when it
// transitions priced false -> true during invoice generation, and is never
// deleted while an invoice line references it.
type Record struct {
	ID            int64      `json:"id"`
	BuyerID       int64      `json:"buyer_id"`
	FarmerID      int64      `json:"farmer_id"`
	CollectedOn   time.Time  `json:"collected_on"`
	Items         []LineItem `json:"items"`
	TotalWeightKg float64    `json:"total_weight_kg"`
	Priced        bool       `json:"priced"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Route is a buyer's travelled distance for a day, an input signal to
// profit attribution only.
type Route struct {
	ID              int64     `json:"id"`
	BuyerID         int64     `json:"buyer_id"`
	RouteDate       time.Time `json:"route_date"`
	TotalDistanceKm float64   `json:"total_distance_km"`
}

// CommodityWeight aggregates a day's collected weight per commodity.
type CommodityWeight struct {
	Commodity string  `json:"commodity"`
	WeightKg  float64 `json:"weight_kg"`
}

// Filter narrows record listings.
type Filter struct {
	Date     time.Time
	BuyerID  int64
	FarmerID int64
	Priced   *bool
	Limit    int
}
