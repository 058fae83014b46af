package router

import (
	"net/http"

	"order-desk/internal/config"
	"order-desk/internal/handler"
	"order-desk/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Handlers groups the HTTP handlers mounted by New.
type Handlers struct {
	Health  *handler.HealthHandler
	Product *handler.ProductHandler
	Voucher *handler.VoucherHandler
	Order   *handler.OrderHandler
}

// New creates a new HTTP router with all routes and middleware configured.
// A nil limiter disables rate limiting.
func New(h Handlers, cfg *config.Config, limiter *middleware.RateLimiter, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	// Apply middleware in order: Recovery -> RequestID -> Logging -> CORS
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins))

	// Health check endpoint (no authentication required)
	r.Get("/health", h.Health.Health)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Authenticate(cfg.Auth, logger))
		if limiter != nil {
			r.Use(limiter.Middleware)
		}

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.Product.GetAll)
			r.Get("/{id}", h.Product.GetByID)
		})

		r.Route("/vouchers", func(r chi.Router) {
			r.Get("/", h.Voucher.List)
			r.Post("/", h.Voucher.Create)
			r.Post("/validate", h.Voucher.Validate)
			r.Get("/{id}", h.Voucher.GetByID)
			r.Put("/{id}", h.Voucher.Update)
			r.Delete("/{id}", h.Voucher.Delete)
			r.Put("/{id}/deactivate", h.Voucher.Deactivate)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", h.Order.List)
			r.Post("/", h.Order.Create)
			r.Get("/{id}", h.Order.GetByID)
			r.Put("/{id}/approve", h.Order.Approve)
			r.Put("/{id}/deny", h.Order.Deny)
		})
	})

	return otelhttp.NewHandler(r, "order-desk",
		otelhttp.WithSpanNameFormatter(func(_ string, req *http.Request) string {
			return req.Method + " " + req.URL.Path
		}),
	)
}
