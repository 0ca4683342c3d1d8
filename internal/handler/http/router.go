package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/storefront/internal/notify"
	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/pkg/health"
	"github.com/utafrali/storefront/pkg/middleware"
)

// Services groups the state containers the API exposes.
type Services struct {
	Catalog *service.CatalogService
	Cart    *service.CartService
	Session *service.SessionService
	Orders  *service.OrderService
	Ratings *service.RatingService
}

// Options tunes the inbound middleware chain.
type Options struct {
	Currency            string
	CatalogCacheSeconds int
	RateLimitRPS        float64
	RateLimitBurst      int
	CORS                middleware.CORSConfig
	RequestTimeout      time.Duration
}

// DefaultOptions returns options suitable for tests and local development.
func DefaultOptions() Options {
	return Options{
		Currency:            "$",
		CatalogCacheSeconds: 60,
		RateLimitRPS:        20,
		RateLimitBurst:      40,
		CORS:                middleware.DefaultCORSConfig(),
		RequestTimeout:      30 * time.Second,
	}
}

// NewRouter creates a chi router with all storefront routes registered. ctx
// bounds the rate limiter's background cleanup.
func NewRouter(
	ctx context.Context,
	svc Services,
	healthHandler *health.Handler,
	logger *slog.Logger,
	opts Options,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(opts.RequestTimeout))
	r.Use(middleware.RequestLogging(logger, "/health/live", "/health/ready", "/metrics"))
	r.Use(middleware.PrometheusMetrics("storefront"))
	r.Use(middleware.Tracing("storefront"))
	r.Use(middleware.RequestLogger(logger, func(*http.Request) string {
		return svc.Session.UserID()
	}))
	r.Use(middleware.CORS(opts.CORS))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	catalogHandler := NewCatalogHandler(svc.Catalog, svc.Ratings, opts.Currency, logger)
	cartHandler := NewCartHandler(svc.Cart, logger)
	authHandler := NewAuthHandler(svc.Session, logger)
	orderHandler := NewOrderHandler(svc.Orders, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(ctx, opts.RateLimitRPS, opts.RateLimitBurst, logger))
		r.Use(ContentTypeJSON)
		r.Use(notify.Middleware)

		r.Group(func(r chi.Router) {
			r.Use(middleware.CacheControl(opts.CatalogCacheSeconds))
			r.Get("/products", catalogHandler.ListProducts)
			r.Get("/products/{id}", catalogHandler.GetProduct)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.NoStore)

			r.Post("/products/{id}/ratings", catalogHandler.RateProduct)
			r.Post("/catalog/refresh", catalogHandler.Refresh)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartHandler.GetCart)
				r.Delete("/", cartHandler.ClearCart)
				r.Get("/count", cartHandler.GetCount)

				r.Post("/items", cartHandler.AddItem)
				r.Put("/items/{productId}/{size}", cartHandler.UpdateItemQuantity)
				r.Delete("/items/{productId}/{size}", cartHandler.RemoveItem)
			})

			r.Route("/auth", func(r chi.Router) {
				r.Post("/login", authHandler.Login)
				r.Post("/register", authHandler.Register)
				r.Post("/logout", authHandler.Logout)
				r.Get("/session", authHandler.GetSession)
			})

			r.Route("/orders", func(r chi.Router) {
				r.Post("/", orderHandler.PlaceOrder)
				r.Get("/", orderHandler.ListOrders)
				r.Get("/last", orderHandler.LastOrder)
			})
		})
	})

	return r
}
