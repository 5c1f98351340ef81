package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/agrinxt/agrinxt/internal/shared"
)

// paidTolerance absorbs float64 accumulation error when comparing paid
// sums against invoice totals.
const paidTolerance = 1e-9

// TxRepository exposes the operations available inside one allocation unit of work.
type TxRepository interface {
	SelectPendingForUpdate(ctx context.Context, farmerID int64) ([]pendingInvoice, error)
	PaidAmounts(ctx context.Context, invoiceIDs []int64) (map[int64]float64, error)
	InsertPayment(ctx context.Context, p *Payment) error
	MarkInvoicePaid(ctx context.Context, invoiceID int64) error
}

// RepositoryPort defines data access methods for payments.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListPayments(ctx context.Context, farmerID int64) ([]Payment, error)
}

// Notifier dispatches post-commit payment notifications.
type Notifier interface {
	PaymentReceived(ctx context.Context, farmerID int64, amount float64, mode Mode, remainingBalance float64) error
}

// Service allocates incoming payments against outstanding invoices.
type Service struct {
	repo     RepositoryPort
	locker   shared.Locker
	notifier Notifier
	logger   *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, locker shared.Locker, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{repo: repo, locker: locker, notifier: notifier, logger: logger}
}

// AllocatePayment applies an incoming amount against the farmer's PENDING
// invoices oldest-first (ties broken by invoice id), creating one payment
// row per touched invoice and flipping status to PAID when the cumulative
// paid amount covers the grand total. Payments for one farmer are
// serialised by a per-farmer lock; cross-farmer payments run in parallel.
// Leftover amount after all invoices are satisfied is reported back, never
// persisted as credit.
func (s *Service) AllocatePayment(ctx context.Context, input AllocationInput) (*AllocationResult, error) {
	if input.FarmerID <= 0 {
		return nil, fmt.Errorf("%w: farmer id required", shared.ErrValidation)
	}
	if math.IsNaN(input.Amount) || math.IsInf(input.Amount, 0) || input.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be a positive finite value", shared.ErrValidation)
	}
	// Money is stored to two decimals; a sub-cent amount would round to a
	// zero payment row, which the data model forbids.
	input.Amount = round2(input.Amount)
	if input.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be at least 0.01", shared.ErrValidation)
	}
	if !input.Mode.Valid() {
		return nil, fmt.Errorf("%w: mode must be one of CASH, UPI, BANK_TRANSFER", shared.ErrValidation)
	}

	if s.locker != nil {
		release, err := s.locker.Acquire(ctx, shared.FarmerPaymentLockKey(input.FarmerID))
		if err != nil {
			if errors.Is(err, shared.ErrLockHeld) {
				return nil, fmt.Errorf("%w: payment already in progress for farmer %d", shared.ErrConflict, input.FarmerID)
			}
			return nil, err
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				s.logger.Warn("release payment lock", slog.Any("error", err))
			}
		}()
	}

	result := &AllocationResult{}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		invoices, err := tx.SelectPendingForUpdate(ctx, input.FarmerID)
		if err != nil {
			return fmt.Errorf("select pending invoices: %w", err)
		}
		if len(invoices) == 0 {
			return fmt.Errorf("%w: no outstanding invoices for farmer %d", shared.ErrNotFound, input.FarmerID)
		}

		ids := make([]int64, 0, len(invoices))
		for _, inv := range invoices {
			ids = append(ids, inv.ID)
		}
		paid, err := tx.PaidAmounts(ctx, ids)
		if err != nil {
			return fmt.Errorf("load paid amounts: %w", err)
		}

		remaining := input.Amount
		now := time.Now()
		var outstanding float64
		for _, inv := range invoices {
			balance := inv.GrandTotal - paid[inv.ID]
			if balance < -paidTolerance {
				return fmt.Errorf("%w: invoice %s overpaid by %.2f", shared.ErrInvariant, inv.Number, -balance)
			}
			if balance <= paidTolerance {
				// Fully covered but still PENDING; nothing to allocate.
				continue
			}

			allocation := round2(math.Min(remaining, balance))
			if remaining > paidTolerance && allocation > 0 {
				payment := Payment{
					Receipt:        uuid.NewString(),
					InvoiceID:      inv.ID,
					BuyerID:        inv.BuyerID,
					FarmerID:       inv.FarmerID,
					Amount:         allocation,
					Mode:           input.Mode,
					TransactionRef: input.TransactionRef,
					PaidAt:         now,
				}
				if err := tx.InsertPayment(ctx, &payment); err != nil {
					return fmt.Errorf("insert payment for %s: %w", inv.Number, err)
				}
				result.Payments = append(result.Payments, payment)
				result.AllocatedAmount = round2(result.AllocatedAmount + payment.Amount)

				remaining -= allocation
				balance -= allocation

				if balance <= paidTolerance {
					if err := tx.MarkInvoicePaid(ctx, inv.ID); err != nil {
						return fmt.Errorf("mark invoice %s paid: %w", inv.Number, err)
					}
					result.InvoicesSettled++
					balance = 0
				}
			}
			outstanding += balance
		}

		result.UnallocatedAmount = round2(remaining)
		result.RemainingBalance = round2(outstanding)
		return nil
	})
	if err != nil {
		if errors.Is(err, shared.ErrInvariant) {
			s.logger.Error("payment allocation invariant violation",
				slog.Int64("farmer_id", input.FarmerID), slog.Any("error", err))
		}
		return nil, err
	}

	if s.notifier != nil {
		if err := s.notifier.PaymentReceived(ctx, input.FarmerID, result.AllocatedAmount, input.Mode, result.RemainingBalance); err != nil {
			s.logger.Warn("enqueue payment notification",
				slog.Int64("farmer_id", input.FarmerID), slog.Any("error", err))
		}
	}
	return result, nil
}

// ListPayments returns a farmer's payment history, newest first.
func (s *Service) ListPayments(ctx context.Context, farmerID int64) ([]Payment, error) {
	if farmerID <= 0 {
		return nil, fmt.Errorf("%w: farmer id required", shared.ErrValidation)
	}
	return s.repo.ListPayments(ctx, farmerID)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
