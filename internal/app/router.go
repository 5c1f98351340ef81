package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/agrinxt/agrinxt/internal/catalog"
	"github.com/agrinxt/agrinxt/internal/collection"
	"github.com/agrinxt/agrinxt/internal/invoicing"
	"github.com/agrinxt/agrinxt/internal/payments"
	"github.com/agrinxt/agrinxt/internal/profit"
	"github.com/agrinxt/agrinxt/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	CatalogHandler    *catalog.Handler
	CollectionHandler *collection.Handler
	InvoicingHandler  *invoicing.Handler
	PaymentsHandler   *payments.Handler
	ProfitHandler     *profit.Handler
	JobHandler        *jobs.Handler
}

// NewRouter constructs the chi.Router for the settlement API.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.CatalogHandler != nil {
		r.Route("/config", func(r chi.Router) {
			params.CatalogHandler.MountConfigRoutes(r)
		})
	}
	if params.CollectionHandler != nil {
		r.Route("/collections", func(r chi.Router) {
			params.CollectionHandler.MountRoutes(r)
		})
		r.Route("/routes", func(r chi.Router) {
			params.CollectionHandler.MountRouteRoutes(r)
		})
	}
	r.Route("/pricing", func(r chi.Router) {
		if params.CatalogHandler != nil {
			params.CatalogHandler.MountPricingRoutes(r)
		}
		if params.InvoicingHandler != nil {
			params.InvoicingHandler.MountPricingRoutes(r)
		}
	})
	if params.InvoicingHandler != nil {
		r.Route("/invoices", func(r chi.Router) {
			params.InvoicingHandler.MountInvoiceRoutes(r)
		})
		r.Route("/dues", func(r chi.Router) {
			params.InvoicingHandler.MountDuesRoutes(r)
		})
	}
	if params.PaymentsHandler != nil {
		r.Route("/payments", func(r chi.Router) {
			params.PaymentsHandler.MountRoutes(r)
		})
	}
	if params.ProfitHandler != nil {
		r.Route("/reports", func(r chi.Router) {
			params.ProfitHandler.MountRoutes(r)
		})
	}
	if params.JobHandler != nil {
		r.Route("/jobs", func(r chi.Router) {
			params.JobHandler.MountRoutes(r)
		})
	}

	return r
}
