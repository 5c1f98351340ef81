package collection

// RecordCollectionRequest is a field buyer recording one pickup.
type RecordCollectionRequest struct {
	BuyerID  int64           `json:"buyer_id" validate:"required,gt=0"`
	FarmerID int64           `json:"farmer_id" validate:"required,gt=0"`
	Date     string          `json:"date" validate:"required"`
	Items    []LineItemInput `json:"items" validate:"required,min=1,dive"`
}

// LineItemInput is one weighed commodity in the request.
type LineItemInput struct {
	Commodity string  `json:"commodity" validate:"required,max=80"`
	WeightKg  float64 `json:"weight_kg" validate:"required,gt=0"`
}

// RecordRouteRequest captures a buyer's route distance for a day.
type RecordRouteRequest struct {
	BuyerID    int64   `json:"buyer_id" validate:"required,gt=0"`
	Date       string  `json:"date" validate:"required"`
	DistanceKm float64 `json:"distance_km" validate:"required,gt=0"`
}
