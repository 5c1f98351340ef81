package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeInvoiceIssued notifies a farmer that an invoice was generated.
	TaskTypeInvoiceIssued = "notify:invoice_issued"
	// TaskTypePaymentReceived notifies a farmer of a received payment.
	TaskTypePaymentReceived = "notify:payment_received"
	// TaskTypeReportWarmup precomputes the previous day's profit report.
	TaskTypeReportWarmup = "reports:warmup"
)

// printer renders rupee amounts with grouping (1,23,450 style is a
// followup; standard grouping is fine for SMS bodies today).
var printer = message.NewPrinter(language.English)

// InvoiceIssuedPayload carries the notification data for one new invoice.
type InvoiceIssuedPayload struct {
	Number      string    `json:"number"`
	BuyerID     int64     `json:"buyer_id"`
	FarmerID    int64     `json:"farmer_id"`
	InvoiceDate time.Time `json:"invoice_date"`
	GrandTotal  float64   `json:"grand_total"`
}

// NewInvoiceIssuedTask constructs an Asynq task.
func NewInvoiceIssuedTask(payload InvoiceIssuedPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeInvoiceIssued, data), nil
}

// HandleInvoiceIssuedTask processes TaskTypeInvoiceIssued tasks.
func HandleInvoiceIssuedTask(ctx context.Context, t *asynq.Task) error {
	var payload InvoiceIssuedPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	body := printer.Sprintf("Invoice %s issued for your %s produce: Rs %.2f payable.",
		payload.Number, payload.InvoiceDate.Format("02 Jan 2006"), payload.GrandTotal)
	// Placeholder delivery channel; SMS gateway integration is a followup.
	slog.Info("farmer notification",
		slog.Int64("farmer_id", payload.FarmerID),
		slog.String("body", body))
	return nil
}

// PaymentReceivedPayload carries the notification data for one allocation.
type PaymentReceivedPayload struct {
	FarmerID         int64   `json:"farmer_id"`
	Amount           float64 `json:"amount"`
	Mode             string  `json:"mode"`
	RemainingBalance float64 `json:"remaining_balance"`
}

// NewPaymentReceivedTask constructs an Asynq task.
func NewPaymentReceivedTask(payload PaymentReceivedPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypePaymentReceived, data), nil
}

// HandlePaymentReceivedTask processes TaskTypePaymentReceived tasks.
func HandlePaymentReceivedTask(ctx context.Context, t *asynq.Task) error {
	var payload PaymentReceivedPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	body := printer.Sprintf("Payment of Rs %.2f received via %s. Outstanding balance: Rs %.2f.",
		payload.Amount, payload.Mode, payload.RemainingBalance)
	slog.Info("farmer notification",
		slog.Int64("farmer_id", payload.FarmerID),
		slog.String("body", body))
	return nil
}

// ReportWarmupPayload selects which day to precompute. A zero Date means
// "yesterday" at handling time.
type ReportWarmupPayload struct {
	Date string `json:"date,omitempty"`
}

// NewReportWarmupTask constructs an Asynq task.
func NewReportWarmupTask(payload ReportWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeReportWarmup, data), nil
}
