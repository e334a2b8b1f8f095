// Package http assembles the service's HTTP surface.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/cassiomorais/reconciler/internal/infrastructure/config"
	"github.com/cassiomorais/reconciler/internal/infrastructure/observability"
	"github.com/cassiomorais/reconciler/internal/interfaces/http/handlers"
	"github.com/cassiomorais/reconciler/internal/middleware"
)

// RouterDeps carries everything the router needs.
type RouterDeps struct {
	Pool           *pgxpool.Pool
	RedisClient    *redis.Client
	Reconciler     handlers.Reconciler
	Enqueuer       handlers.PendingEnqueuer
	Metrics        *observability.Metrics
	Logger         zerolog.Logger
	CORSConfig     config.CORSConfig
	RequestsPerMin int
}

// NewRouter builds the chi router with the full middleware chain.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.CORSConfig.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: deps.CORSConfig.AllowCredentials,
	}))
	r.Use(middleware.Tracing())
	r.Use(middleware.Metrics(deps.Metrics))
	if deps.RequestsPerMin > 0 {
		r.Use(middleware.RateLimit(deps.RequestsPerMin))
	}

	healthHandler := handlers.NewHealthHandler(deps.Pool, deps.RedisClient)
	reconcileHandler := handlers.NewReconcileHandler(deps.Reconciler, deps.Enqueuer, deps.Logger)

	r.Get("/healthz", healthHandler.Healthz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/pending-authorizations/{id}/reconcile", reconcileHandler.Reconcile)
		r.Post("/gateway/ipn", reconcileHandler.IPN)
	})

	return r
}
