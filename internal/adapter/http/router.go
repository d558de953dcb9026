package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/infisparks/gautami-ledger/internal/adapter/http/handler"
	"github.com/infisparks/gautami-ledger/internal/adapter/http/middleware"
	"github.com/infisparks/gautami-ledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	RecordHandler         *handler.RecordHandler
	ServiceHandler        *handler.ServiceHandler
	PaymentHandler        *handler.PaymentHandler
	DischargeHandler      *handler.DischargeHandler
	InvoiceHandler        *handler.InvoiceHandler
	ReconciliationHandler *handler.ReconciliationHandler
	HealthHandler         *handler.HealthHandler

	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	RateLimiter      *middleware.RateLimiter
	Logging          *middleware.LoggingMiddleware
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Recovery)
	r.Use(middleware.Metrics)

	if cfg.Logging != nil {
		r.Use(cfg.Logging.Wrap)
	}

	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health and metrics endpoints
	r.Get("/healthz", cfg.HealthHandler.Liveness)
	r.Get("/readyz", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL)
			r.Use(idempotencyMiddleware.Wrap)
		}

		// Billing records
		r.Route("/records", func(r chi.Router) {
			r.Post("/", cfg.RecordHandler.Admit)
			r.Get("/", cfg.RecordHandler.List)
			r.Get("/{id}", cfg.RecordHandler.Get)

			r.Post("/{id}/services", cfg.ServiceHandler.Add)
			r.Post("/{id}/services/{index}/complete", cfg.ServiceHandler.Complete)
			r.Post("/{id}/payments", cfg.PaymentHandler.Record)
			r.Post("/{id}/discharge", cfg.DischargeHandler.Discharge)
			r.Get("/{id}/invoice", cfg.InvoiceHandler.Get)
		})

		// Bed release reconciliation
		r.Route("/reconciliation", func(r chi.Router) {
			r.Post("/bed-releases", cfg.ReconciliationHandler.ReleaseBeds)
		})
	})

	return r
}
