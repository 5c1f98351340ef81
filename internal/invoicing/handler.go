package invoicing

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/agrinxt/agrinxt/internal/catalog"
	"github.com/agrinxt/agrinxt/internal/platform/httpx"
	"github.com/agrinxt/agrinxt/internal/shared"
)

// Handler manages invoicing endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountPricingRoutes registers the pricing run endpoint.
func (h *Handler) MountPricingRoutes(r chi.Router) {
	r.Post("/generate", h.generateInvoices)
}

// MountInvoiceRoutes registers invoice query endpoints.
func (h *Handler) MountInvoiceRoutes(r chi.Router) {
	r.Get("/", h.listInvoices)
	r.Get("/{id}", h.getInvoice)
}

// MountDuesRoutes registers the outstanding dues report.
func (h *Handler) MountDuesRoutes(r chi.Router) {
	r.Get("/", h.outstandingDues)
}

// GenerateInvoicesRequest is the admin pricing run request.
type GenerateInvoicesRequest struct {
	Date   string             `json:"date" validate:"required"`
	Prices map[string]float64 `json:"prices" validate:"required,min=1"`
}

func (h *Handler) generateInvoices(w http.ResponseWriter, r *http.Request) {
	var req GenerateInvoicesRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	date, err := catalog.ParseDate(req.Date)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	actor := shared.ActorFromContext(r.Context())
	result, err := h.service.GenerateInvoices(r.Context(), date, req.Prices)
	if err != nil {
		h.logger.Error("generate invoices",
			slog.String("date", req.Date),
			slog.Int64("actor_id", actor.ID),
			slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	h.logger.Info("pricing run complete",
		slog.String("date", req.Date),
		slog.Int("invoices_created", result.InvoicesCreated),
		slog.Float64("total_amount", result.TotalAmount))
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) listInvoices(w http.ResponseWriter, r *http.Request) {
	var filter ListFilter
	filter.FarmerID, _ = strconv.ParseInt(r.URL.Query().Get("farmer_id"), 10, 64)
	filter.BuyerID, _ = strconv.ParseInt(r.URL.Query().Get("buyer_id"), 10, 64)
	filter.Status = InvoiceStatus(r.URL.Query().Get("status"))

	if raw := r.URL.Query().Get("from"); raw != "" {
		date, err := catalog.ParseDate(raw)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		filter.FromDate = date
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		date, err := catalog.ParseDate(raw)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		filter.ToDate = date
	}

	invoices, err := h.service.ListInvoices(r.Context(), filter)
	if err != nil {
		h.logger.Error("list invoices", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"invoices": invoices})
}

func (h *Handler) getInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid invoice id")
		return
	}
	details, err := h.service.GetInvoice(r.Context(), id)
	if err != nil {
		h.logger.Error("get invoice", slog.Int64("id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, details)
}

func (h *Handler) outstandingDues(w http.ResponseWriter, r *http.Request) {
	dues, err := h.service.OutstandingDues(r.Context())
	if err != nil {
		h.logger.Error("outstanding dues", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"dues": dues})
}
