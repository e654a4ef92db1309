package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/mimhaad/finance-ledger/internal/adapter/http/handler"
	"github.com/mimhaad/finance-ledger/internal/adapter/http/middleware"
	"github.com/mimhaad/finance-ledger/internal/domain"
	"github.com/mimhaad/finance-ledger/internal/infrastructure/metrics"
	"github.com/mimhaad/finance-ledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AccountHandler     *handler.AccountHandler
	EntryHandler       *handler.EntryHandler
	TransactionHandler *handler.TransactionHandler
	ReportHandler      *handler.ReportHandler
	FloatHandler       *handler.FloatHandler
	LedgerHandler      *handler.LedgerHandler
	HealthHandler      *handler.HealthHandler

	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	RateLimiter      *middleware.RateLimiter
	Metrics          *metrics.Metrics
	// MetricsHandler serves /metrics; promhttp.Handler() when nil.
	MetricsHandler http.Handler
	// TokenVerifier enables bearer authentication when set.
	TokenVerifier      middleware.TokenVerifier
	CORSAllowedOrigins []string
	Logger             zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}

	origins := cfg.CORSAllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", middleware.IdempotencyKeyHeader, handler.UserIDHeader},
		ExposedHeaders: []string{middleware.IdempotencyReplayHeader},
		MaxAge:         300,
	}))

	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)

	metricsHandler := cfg.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.TokenVerifier != nil {
			r.Use(middleware.AuthMiddleware(cfg.TokenVerifier))
		}

		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL).Wrap)
		}

		// Reads
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(domain.RoleViewer))

			r.Get("/accounts", cfg.AccountHandler.List)
			r.Get("/accounts/tree", cfg.AccountHandler.Tree)
			r.Get("/accounts/by-code/{code}", cfg.AccountHandler.GetByCode)
			r.Get("/accounts/by-code/{code}/balance", cfg.AccountHandler.BalanceByCode)
			r.Get("/accounts/{id}", cfg.AccountHandler.Get)
			r.Get("/accounts/{id}/balance", cfg.AccountHandler.Balance)

			r.Get("/journal-entries/{id}", cfg.EntryHandler.Get)
			r.Get("/transactions/{transactionID}/journal-entries", cfg.TransactionHandler.ListEntries)

			r.Get("/reports/trial-balance", cfg.ReportHandler.TrialBalance)
			r.Get("/float-accounts", cfg.FloatHandler.List)

			r.Get("/ledger/consistency", cfg.LedgerHandler.CheckConsistency)
			r.Get("/ledger/reconciliation", cfg.LedgerHandler.Reconciliation)
		})

		// Bookkeeping
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(domain.RoleAccountant))

			r.Post("/journal-entries", cfg.EntryHandler.Create)
			r.Post("/journal-entries/{id}/post", cfg.EntryHandler.Post)
			r.Delete("/journal-entries/{id}", cfg.EntryHandler.Discard)
			r.Post("/transactions/{transactionID}/post", cfg.TransactionHandler.Post)
			r.Post("/float-accounts/sync", cfg.FloatHandler.Sync)
		})

		// Chart and float administration, reversals
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(domain.RoleAdmin))

			r.Post("/accounts", cfg.AccountHandler.Create)
			r.Post("/accounts/ensure", cfg.AccountHandler.Ensure)
			r.Post("/journal-entries/{id}/reverse", cfg.EntryHandler.Reverse)
			r.Put("/float-accounts/{id}", cfg.FloatHandler.Update)
		})
	})

	return r
}
