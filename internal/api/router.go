// Package api provides the HTTP API for MoodRoute.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/moodroute/moodroute/internal/api/handler"
	"github.com/moodroute/moodroute/internal/api/middleware"
	"github.com/moodroute/moodroute/internal/provider/resilience"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	// Production hides error stacks and enables HSTS.
	Production bool
	Metrics    *middleware.Metrics
	Planner    handler.Planner
	// Analyzer is optional; without it /api/analyze is not served.
	Analyzer handler.Analyzer
	Registry *resilience.Registry
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "moodroute-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing(serviceName))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:     []string{"*"},
		AllowedMethods:     []string{http.MethodPost, http.MethodOptions},
		AllowedHeaders:     []string{"Content-Type"},
		ExposedHeaders:     []string{middleware.RequestIDHeader},
		OptionsPassthrough: true,
	}))
	r.Use(middleware.SecurityHeaders(cfg.Production))
	r.Use(middleware.ContentTypeJSON)

	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Registry)
	routeHandler := handler.NewRouteHandler(cfg.Planner, !cfg.Production, cfg.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.AllowAnyOrigin)

		r.Post("/route", routeHandler.PlanRoute)
		r.Options("/route", handler.Preflight)

		if cfg.Analyzer != nil {
			analyzeHandler := handler.NewAnalyzeHandler(cfg.Analyzer)
			r.Post("/analyze", analyzeHandler.Analyze)
			r.Options("/analyze", handler.Preflight)
		}
	})

	r.Route("/v1/ops", func(r chi.Router) {
		r.Get("/health", opsHandler.HealthCheck)
		r.Get("/ready", opsHandler.ReadinessCheck)
		r.Get("/status", opsHandler.SystemStatus)
	})

	return r
}
