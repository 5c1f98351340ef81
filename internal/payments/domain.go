package payments

import "time"

// Mode enumerates accepted payment modes.
type Mode string

const (
	ModeCash         Mode = "CASH"
	ModeUPI          Mode = "UPI"
	ModeBankTransfer Mode = "BANK_TRANSFER"
)

// Valid reports whether the mode is one of the enumerated values.
func (m Mode) Valid() bool {
	switch m {
	case ModeCash, ModeUPI, ModeBankTransfer:
		return true
	}
	return false
}

// Payment is one allocation credited against a single invoice. Immutable
// once created; several payments may settle one invoice.
type Payment struct {
	ID             int64     `json:"id"`
	Receipt        string    `json:"receipt"`
	InvoiceID      int64     `json:"invoice_id"`
	BuyerID        int64     `json:"buyer_id"`
	FarmerID       int64     `json:"farmer_id"`
	Amount         float64   `json:"amount"`
	Mode           Mode      `json:"mode"`
	TransactionRef string    `json:"transaction_ref,omitempty"`
	PaidAt         time.Time `json:"paid_at"`
}

// AllocationInput is a validated incoming payment.
type AllocationInput struct {
	FarmerID       int64
	Amount         float64
	Mode           Mode
	TransactionRef string
}

// AllocationResult summarises one allocation call. RemainingBalance is the
// farmer's still-outstanding total after this allocation, not unspent
// payment; UnallocatedAmount reports any overpayment left after every
// pending invoice was satisfied (it is not persisted as credit).
type AllocationResult struct {
	AllocatedAmount   float64   `json:"allocated_amount"`
	UnallocatedAmount float64   `json:"unallocated_amount"`
	RemainingBalance  float64   `json:"remaining_balance"`
	InvoicesSettled   int       `json:"invoices_settled"`
	Payments          []Payment `json:"payments"`
}

// pendingInvoice is the allocator's view of one open invoice.
type pendingInvoice struct {
	ID          int64
	Number      string
	BuyerID     int64
	FarmerID    int64
	InvoiceDate time.Time
	GrandTotal  float64
}
