package catalog

import "time"

// PriceEntry is a per-day, per-commodity price in rupees per kilogram.
// Purchase prices feed invoice generation; selling prices feed profit
// attribution. Once any collection record of a date has been priced from a
// purchase entry, re-upserting that entry is a caller error (documented as
// unsafe, not prevented structurally).
type PriceEntry struct {
	Date       time.Time `json:"date"`
	Commodity  string    `json:"commodity"`
	PricePerKg float64   `json:"price_per_kg"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// SystemConfig is the singleton settlement configuration, lazily created
// with defaults on first read.
type SystemConfig struct {
	DeliveryRatePerKm    float64   `json:"delivery_rate_per_km"`
	FarmerCommissionRate float64   `json:"farmer_commission_rate"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// Defaults applied when the singleton row does not exist yet.
const (
	DefaultDeliveryRatePerKm    = 10.0
	DefaultFarmerCommissionRate = 0.05
)
