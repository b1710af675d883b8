package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/minibank/internal/adapter/http/handler"
	"github.com/iho/minibank/internal/adapter/http/middleware"
	"github.com/iho/minibank/internal/infrastructure/auth"
	"github.com/iho/minibank/internal/infrastructure/metrics"
	"github.com/iho/minibank/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AuthHandler           *handler.AuthHandler
	AccountHandler        *handler.AccountHandler
	LedgerHandler         *handler.LedgerHandler
	ReconciliationHandler *handler.ReconciliationHandler
	HealthHandler         *handler.HealthHandler

	JWTManager       *auth.JWTManager
	UserRepository   usecase.UserRepository
	IdempotencyStore usecase.IdempotencyStore
	RateLimiter      *middleware.RateLimiter
	Logger           zerolog.Logger
	Metrics          *metrics.Metrics
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	if cfg.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(cfg.Metrics).Wrap)
	}
	r.Use(middleware.Recovery(cfg.Logger))
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Operational endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	authenticate := middleware.AuthMiddleware(cfg.JWTManager, cfg.UserRepository)

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", cfg.AuthHandler.Register)
			r.Post("/login", cfg.AuthHandler.Login)

			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Get("/me", cfg.AuthHandler.Me)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			// Idempotency middleware for mutating requests
			if cfg.IdempotencyStore != nil {
				idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.Logger)
				r.Use(idempotencyMiddleware.Wrap)
			}

			// Accounts
			r.Route("/accounts", func(r chi.Router) {
				r.Post("/", cfg.AccountHandler.Create)
				r.Get("/", cfg.AccountHandler.List)
				r.Get("/{number}", cfg.LedgerHandler.GetAccount)
				r.Post("/{number}/deposits", cfg.LedgerHandler.Deposit)
				r.Get("/{number}/transactions", cfg.LedgerHandler.ListTransactions)
				r.Get("/{number}/reconciliation", cfg.ReconciliationHandler.ReconcileAccount)
			})

			// Transfers
			r.Post("/transfers", cfg.LedgerHandler.Transfer)

			// Ledger-wide consistency check
			r.Get("/ledger/consistency", cfg.ReconciliationHandler.CheckConsistency)
		})
	})

	return r
}
