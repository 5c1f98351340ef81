package collection

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/agrinxt/agrinxt/internal/catalog"
	"github.com/agrinxt/agrinxt/internal/platform/httpx"
)

// Handler manages collection ledger endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers collection routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.recordCollection)
	r.Get("/", h.listCollections)
	r.Get("/summary", h.daySummary)
}

// MountRouteRoutes registers route distance endpoints.
func (h *Handler) MountRouteRoutes(r chi.Router) {
	r.Post("/", h.recordRoute)
	r.Get("/", h.listRoutes)
}

func (h *Handler) recordCollection(w http.ResponseWriter, r *http.Request) {
	var req RecordCollectionRequest
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

	items := make([]LineItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, LineItem{Commodity: item.Commodity, WeightKg: item.WeightKg})
	}

	record, err := h.service.RecordCollection(r.Context(), RecordInput{
		BuyerID:     req.BuyerID,
		FarmerID:    req.FarmerID,
		CollectedOn: date,
		Items:       items,
	})
	if err != nil {
		h.logger.Error("record collection", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, record)
}

func (h *Handler) listCollections(w http.ResponseWriter, r *http.Request) {
	var filter Filter

	if raw := r.URL.Query().Get("date"); raw != "" {
		date, err := catalog.ParseDate(raw)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		filter.Date = date
	}
	filter.BuyerID, _ = strconv.ParseInt(r.URL.Query().Get("buyer_id"), 10, 64)
	filter.FarmerID, _ = strconv.ParseInt(r.URL.Query().Get("farmer_id"), 10, 64)
	if raw := r.URL.Query().Get("priced"); raw != "" {
		priced := raw == "true" || raw == "1"
		filter.Priced = &priced
	}

	records, err := h.service.ListCollections(r.Context(), filter)
	if err != nil {
		h.logger.Error("list collections", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"collections": records})
}

func (h *Handler) daySummary(w http.ResponseWriter, r *http.Request) {
	date, err := catalog.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	weights, err := h.service.DaySummary(r.Context(), date)
	if err != nil {
		h.logger.Error("day summary", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"date": r.URL.Query().Get("date"), "commodities": weights})
}

func (h *Handler) recordRoute(w http.ResponseWriter, r *http.Request) {
	var req RecordRouteRequest
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
	route, err := h.service.RecordRoute(r.Context(), req.BuyerID, date, req.DistanceKm)
	if err != nil {
		h.logger.Error("record route", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, route)
}

func (h *Handler) listRoutes(w http.ResponseWriter, r *http.Request) {
	date, err := catalog.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	routes, err := h.service.ListRoutes(r.Context(), date)
	if err != nil {
		h.logger.Error("list routes", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"routes": routes})
}
