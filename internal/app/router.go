package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/garagehub/garagehub/internal/auth"
	"github.com/garagehub/garagehub/internal/catalog/products"
	"github.com/garagehub/garagehub/internal/catalog/services"
	"github.com/garagehub/garagehub/internal/catalog/suppliers"
	"github.com/garagehub/garagehub/internal/clients"
	"github.com/garagehub/garagehub/internal/finance"
	"github.com/garagehub/garagehub/internal/observability"
	"github.com/garagehub/garagehub/internal/orders"
	"github.com/garagehub/garagehub/internal/platform/httpx"
	"github.com/garagehub/garagehub/internal/stockimport"
	"github.com/garagehub/garagehub/internal/vehicles"
)

// RouterConfig aggregates everything the HTTP surface needs.
type RouterConfig struct {
	Middleware MiddlewareConfig
	Metrics    *observability.Metrics

	Auth        *auth.Handler
	Clients     *clients.Handler
	Products    *products.Handler
	Services    *services.Handler
	Suppliers   *suppliers.Handler
	Orders      *orders.Handler
	Finance     *finance.Handler
	StockImport *stockimport.Handler
	Vehicles    *vehicles.Handler
}

// NewRouter assembles the API router.
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()
	for _, mw := range MiddlewareStack(cfg.Middleware) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	r.Route("/api", func(api chi.Router) {
		cfg.Auth.MountRoutes(api)

		api.Group(func(protected chi.Router) {
			protected.Use(auth.RequireAuth)
			cfg.Clients.MountRoutes(protected)
			cfg.Products.MountRoutes(protected)
			cfg.Services.MountRoutes(protected)
			cfg.Suppliers.MountRoutes(protected)
			cfg.Orders.MountRoutes(protected)
			cfg.Finance.MountRoutes(protected)
			cfg.StockImport.MountRoutes(protected)
			cfg.Vehicles.MountRoutes(protected)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "")
	})

	return r
}
