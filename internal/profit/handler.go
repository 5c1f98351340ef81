package profit

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/agrinxt/agrinxt/internal/catalog"
	"github.com/agrinxt/agrinxt/internal/platform/httpx"
)

// Handler serves the profit report endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/profit-summary", h.profitSummary)
}

func (h *Handler) profitSummary(w http.ResponseWriter, r *http.Request) {
	date, err := catalog.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	report, err := h.service.ProfitSummary(r.Context(), date)
	if err != nil {
		h.logger.Error("profit summary", slog.String("date", date.Format("2006-01-02")), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}
