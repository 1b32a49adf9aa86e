package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/voltara-ev/voltara/internal/catalog"
	"github.com/voltara-ev/voltara/internal/dealers"
	"github.com/voltara-ev/voltara/internal/inventory"
	"github.com/voltara-ev/voltara/internal/invoices"
	"github.com/voltara-ev/voltara/internal/observability"
	"github.com/voltara-ev/voltara/internal/orders"
	"github.com/voltara-ev/voltara/internal/quotations"
	"github.com/voltara-ev/voltara/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	CatalogHandler    *catalog.Handler
	DealersHandler    *dealers.Handler
	InventoryHandler  *inventory.Handler
	OrdersHandler     *orders.Handler
	QuotationsHandler *quotations.Handler
	InvoicesHandler   *invoices.Handler
	JobsHandler       *jobs.Handler
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router with Voltara defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/catalog", params.CatalogHandler.MountRoutes)
	r.Route("/dealers", params.DealersHandler.MountRoutes)
	r.Route("/inventory", params.InventoryHandler.MountRoutes)
	r.Route("/orders", params.OrdersHandler.MountRoutes)
	r.Route("/quotations", params.QuotationsHandler.MountRoutes)
	r.Route("/invoices", params.InvoicesHandler.MountRoutes)
	if params.JobsHandler != nil {
		r.Route("/jobs", params.JobsHandler.MountRoutes)
	}

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
