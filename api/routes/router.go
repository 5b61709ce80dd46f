package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront/api/controllers"
	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/logger"
)

// NewRouter wires the development catalog stub: the dummyjson-shaped catalog
// reads, token refresh, and a bearer-protected endpoint for authenticated fetches.
func NewRouter(cfg *config.Config, logg *logger.Logger, catalog controllers.Catalog) http.Handler {
	if logg == nil {
		logg = logger.Nop()
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.Stub.CORSOrigins),
	)

	refreshPolicy := middleware.NewRefreshRateLimitPolicy(
		"refresh",
		cfg.Stub.RefreshRateLimit,
		cfg.Stub.RefreshRateBurst,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, catalog, logg))
	})

	r.Get("/ping", controllers.PublicPing())
	r.Get("/carts", controllers.ListCarts(catalog, logg))

	r.Route("/products", func(r chi.Router) {
		r.Get("/categories", controllers.ListCategories(catalog))
		r.Get("/category/{category}", controllers.ProductsByCategory(catalog, logg))
	})

	r.Route("/auth", func(r chi.Router) {
		r.With(middleware.RefreshRateLimit(refreshPolicy, logg)).Post("/refresh", controllers.AuthRefresh(cfg.Stub, logg))
		r.With(middleware.Auth(cfg.Stub, logg)).Get("/me", controllers.AuthMe())
	})

	return r
}
