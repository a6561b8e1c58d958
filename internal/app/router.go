package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-pos/meridian-pos/internal/catalog"
	"github.com/meridian-pos/meridian-pos/internal/checkout"
	"github.com/meridian-pos/meridian-pos/internal/insights"
	"github.com/meridian-pos/meridian-pos/internal/observability"
	"github.com/meridian-pos/meridian-pos/internal/payments"
	"github.com/meridian-pos/meridian-pos/internal/sales"
	"github.com/meridian-pos/meridian-pos/internal/tenant"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	TenantMiddleware tenant.Middleware
	CatalogHandler   *catalog.Handler
	CheckoutHandler  *checkout.Handler
	SalesHandler     *sales.Handler
	PaymentsHandler  *payments.Handler
	InsightsHandler  *insights.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())

	// Gateway webhook: authenticated by the gateway call-back contract, not
	// by a tenant key.
	params.PaymentsHandler.MountWebhook(r)

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(params.TenantMiddleware.Resolve)
		params.CatalogHandler.MountRoutes(api)
		params.CheckoutHandler.MountRoutes(api)
		params.SalesHandler.MountRoutes(api)
		params.PaymentsHandler.MountRoutes(api)
		params.InsightsHandler.MountRoutes(api)
	})

	return r
}
