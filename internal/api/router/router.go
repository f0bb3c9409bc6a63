// Package router assembles the HTTP surface of the booking platform.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/veldclinics/booking-platform/internal/http/handlers"
	httpmiddleware "github.com/veldclinics/booking-platform/internal/http/middleware"
	"github.com/veldclinics/booking-platform/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger         *logging.Logger
	Availability   *handlers.AvailabilityHandler
	Continuation   *handlers.ContinuationHandler
	Health         *handlers.HealthHandler
	MetricsHandler http.Handler
}

// New creates a new Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	if cfg.Health != nil {
		r.Get("/health", cfg.Health.Check)
	}
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}
	if cfg.Availability != nil {
		r.Mount("/availability", cfg.Availability.Routes())
	}
	if cfg.Continuation != nil {
		r.Mount("/continuation", cfg.Continuation.Routes())
	}

	return r
}
