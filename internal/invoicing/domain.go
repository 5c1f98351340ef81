package invoicing

import "time"

// InvoiceStatus enumerates invoice statuses. The only transition is
// PENDING -> PAID, driven solely by the payment allocator.
type InvoiceStatus string

const (
	StatusPending InvoiceStatus = "PENDING"
	StatusPaid    InvoiceStatus = "PAID"
)

// Invoice is the priced settlement document for one (buyer, farmer, date)
// pricing run. Numbers follow INV-<year>-<5-digit-seq>, unique and strictly
// increasing within a calendar year.
type Invoice struct {
	ID          int64         `json:"id"`
	Number      string        `json:"number"`
	BuyerID     int64         `json:"buyer_id"`
	FarmerID    int64         `json:"farmer_id"`
	InvoiceDate time.Time     `json:"invoice_date"`
	GrandTotal  float64       `json:"grand_total"`
	Status      InvoiceStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// InvoiceLine prices one collected commodity, keeping the originating
// collection record reference.
type InvoiceLine struct {
	ID         int64   `json:"id"`
	InvoiceID  int64   `json:"invoice_id"`
	RecordID   int64   `json:"record_id"`
	Commodity  string  `json:"commodity"`
	WeightKg   float64 `json:"weight_kg"`
	PricePerKg float64 `json:"price_per_kg"`
	Subtotal   float64 `json:"subtotal"`
}

// PaymentSummary is a payment as seen from the invoice detail view.
type PaymentSummary struct {
	ID             int64     `json:"id"`
	Receipt        string    `json:"receipt"`
	Amount         float64   `json:"amount"`
	Mode           string    `json:"mode"`
	TransactionRef string    `json:"transaction_ref,omitempty"`
	PaidAt         time.Time `json:"paid_at"`
}

// InvoiceDetails bundles an invoice with its lines, payments and balance.
type InvoiceDetails struct {
	Invoice
	Lines      []InvoiceLine    `json:"lines"`
	Payments   []PaymentSummary `json:"payments"`
	PaidAmount float64          `json:"paid_amount"`
	Balance    float64          `json:"balance"`
}

// PartyKey is the composite grouping key for a pricing run. Grouping by an
// explicit key type keeps invoice emission order deterministic.
type PartyKey struct {
	BuyerID  int64
	FarmerID int64
}

// Less orders keys by buyer then farmer.
func (k PartyKey) Less(other PartyKey) bool {
	if k.BuyerID != other.BuyerID {
		return k.BuyerID < other.BuyerID
	}
	return k.FarmerID < other.FarmerID
}

// GenerateResult summarises one pricing run.
type GenerateResult struct {
	InvoicesCreated int       `json:"invoices_created"`
	TotalAmount     float64   `json:"total_amount"`
	Invoices        []Invoice `json:"invoices"`
}

// FarmerDue is one row of the outstanding dues report.
type FarmerDue struct {
	FarmerID        int64   `json:"farmer_id"`
	PendingInvoices int     `json:"pending_invoices"`
	Outstanding     float64 `json:"outstanding"`
}

// ListFilter narrows invoice listings.
type ListFilter struct {
	FarmerID int64
	BuyerID  int64
	Status   InvoiceStatus
	FromDate time.Time
	ToDate   time.Time
	Limit    int
}
