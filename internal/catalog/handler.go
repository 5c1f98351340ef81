package catalog

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/agrinxt/agrinxt/internal/platform/httpx"
	"github.com/agrinxt/agrinxt/internal/shared"
)

// Handler manages pricing and config endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountPricingRoutes registers catalog routes.
func (h *Handler) MountPricingRoutes(r chi.Router) {
	r.Get("/purchase", h.listPurchasePrices)
	r.Get("/selling", h.listSellingPrices)
	r.Post("/selling", h.setSellingPrice)
}

// MountConfigRoutes registers system config routes.
func (h *Handler) MountConfigRoutes(r chi.Router) {
	r.Get("/", h.getConfig)
	r.Put("/delivery-rate", h.setDeliveryRate)
	r.Put("/commission-rate", h.setCommissionRate)
}

// ParseDate parses the YYYY-MM-DD wire format used across the API.
func ParseDate(value string) (time.Time, error) {
	date, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q, want YYYY-MM-DD", shared.ErrValidation, value)
	}
	return date, nil
}

func (h *Handler) listPurchasePrices(w http.ResponseWriter, r *http.Request) {
	date, err := ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	entries, err := h.service.GetPurchasePrices(r.Context(), date)
	if err != nil {
		h.logger.Error("list purchase prices", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"prices": entries})
}

func (h *Handler) listSellingPrices(w http.ResponseWriter, r *http.Request) {
	date, err := ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	if commodity := r.URL.Query().Get("commodity"); commodity != "" {
		entry, err := h.service.GetSellingPrice(r.Context(), date, commodity)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, entry)
		return
	}

	entries, err := h.service.ListSellingPrices(r.Context(), date)
	if err != nil {
		h.logger.Error("list selling prices", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"prices": entries})
}

type setSellingPriceRequest struct {
	Date       string  `json:"date" validate:"required"`
	Commodity  string  `json:"commodity" validate:"required,max=80"`
	PricePerKg float64 `json:"price_per_kg" validate:"gte=0"`
}

func (h *Handler) setSellingPrice(w http.ResponseWriter, r *http.Request) {
	var req setSellingPriceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	date, err := ParseDate(req.Date)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.SetSellingPrice(r.Context(), date, req.Commodity, req.PricePerKg); err != nil {
		h.logger.Error("set selling price", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"date":         req.Date,
		"commodity":    req.Commodity,
		"price_per_kg": req.PricePerKg,
	})
}

func (h *Handler) getConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.service.GetConfig(r.Context())
	if err != nil {
		h.logger.Error("get config", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, cfg)
}

type setRateRequest struct {
	Rate float64 `json:"rate" validate:"gte=0"`
}

func (h *Handler) setDeliveryRate(w http.ResponseWriter, r *http.Request) {
	var req setRateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	cfg, err := h.service.SetDeliveryRate(r.Context(), req.Rate)
	if err != nil {
		h.logger.Error("set delivery rate", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, cfg)
}

func (h *Handler) setCommissionRate(w http.ResponseWriter, r *http.Request) {
	var req setRateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	cfg, err := h.service.SetCommissionRate(r.Context(), req.Rate)
	if err != nil {
		h.logger.Error("set commission rate", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, cfg)
}
