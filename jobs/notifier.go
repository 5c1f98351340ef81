package jobs

import (
	"context"

	"github.com/agrinxt/agrinxt/internal/invoicing"
	"github.com/agrinxt/agrinxt/internal/payments"
)

// SettlementNotifier enqueues farmer notifications after settlement
// mutations commit. It satisfies both the invoicing and payments notifier
// ports; enqueue failures surface to the caller, which downgrades them to
// warnings.
type SettlementNotifier struct {
	client *Client
}

// NewSettlementNotifier wires the notifier to a queue client.
func NewSettlementNotifier(client *Client) *SettlementNotifier {
	return &SettlementNotifier{client: client}
}

// InvoiceIssued enqueues an invoice notification.
func (n *SettlementNotifier) InvoiceIssued(ctx context.Context, inv invoicing.Invoice) error {
	if n == nil || n.client == nil {
		return nil
	}
	task, err := NewInvoiceIssuedTask(InvoiceIssuedPayload{
		Number:      inv.Number,
		BuyerID:     inv.BuyerID,
		FarmerID:    inv.FarmerID,
		InvoiceDate: inv.InvoiceDate,
		GrandTotal:  inv.GrandTotal,
	})
	if err != nil {
		return err
	}
	return n.client.Enqueue(ctx, task)
}

// PaymentReceived enqueues a payment notification.
func (n *SettlementNotifier) PaymentReceived(ctx context.Context, farmerID int64, amount float64, mode payments.Mode, remainingBalance float64) error {
	if n == nil || n.client == nil {
		return nil
	}
	task, err := NewPaymentReceivedTask(PaymentReceivedPayload{
		FarmerID:         farmerID,
		Amount:           amount,
		Mode:             string(mode),
		RemainingBalance: remainingBalance,
	})
	if err != nil {
		return err
	}
	return n.client.Enqueue(ctx, task)
}
