package payments

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/agrinxt/agrinxt/internal/platform/httpx"
	"github.com/agrinxt/agrinxt/internal/shared"
)

// Handler manages payment endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers payment routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.allocatePayment)
	r.Get("/", h.listPayments)
}

// AllocatePaymentRequest is an incoming payment submission.
type AllocatePaymentRequest struct {
	FarmerID       int64   `json:"farmer_id" validate:"required,gt=0"`
	Amount         float64 `json:"amount" validate:"required,gt=0"`
	Mode           string  `json:"mode" validate:"required,oneof=CASH UPI BANK_TRANSFER"`
	TransactionRef string  `json:"transaction_ref,omitempty" validate:"max=120"`
}

func (h *Handler) allocatePayment(w http.ResponseWriter, r *http.Request) {
	var req AllocatePaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	actor := shared.ActorFromContext(r.Context())
	result, err := h.service.AllocatePayment(r.Context(), AllocationInput{
		FarmerID:       req.FarmerID,
		Amount:         req.Amount,
		Mode:           Mode(req.Mode),
		TransactionRef: req.TransactionRef,
	})
	if err != nil {
		h.logger.Error("allocate payment",
			slog.Int64("farmer_id", req.FarmerID),
			slog.Int64("actor_id", actor.ID),
			slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	h.logger.Info("payment allocated",
		slog.Int64("farmer_id", req.FarmerID),
		slog.Float64("allocated", result.AllocatedAmount),
		slog.Float64("remaining_balance", result.RemainingBalance))
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	farmerID, _ := strconv.ParseInt(r.URL.Query().Get("farmer_id"), 10, 64)
	history, err := h.service.ListPayments(r.Context(), farmerID)
	if err != nil {
		h.logger.Error("list payments", slog.Int64("farmer_id", farmerID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"payments": history})
}
