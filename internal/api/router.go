// Pagepulse - Blog Analytics Event Ingestion and Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagepulse

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/pagepulse/internal/config"
	"github.com/tomtom215/pagepulse/internal/middleware"
)

// Router wires the handler set into the chi route tree.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router for the given store-backed handler set.
func NewRouter(handler *Handler, cfg *config.Config) *Router {
	mwConfig := DefaultChiMiddlewareConfig()
	mwConfig.CORSAllowedOrigins = cfg.Security.CORSOrigins
	mwConfig.RateLimitRequests = cfg.Security.RateLimitReadReqs
	mwConfig.RateLimitWindow = cfg.Security.RateLimitReadWindow
	mwConfig.RateLimitDisabled = cfg.Security.RateLimitDisabled

	return &Router{
		handler:       handler,
		chiMiddleware: NewChiMiddleware(mwConfig),
	}
}

// chiAdapter adapts http.HandlerFunc middleware to chi's
// func(http.Handler) http.Handler shape for r.Use().
func chiAdapter(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// Setup builds the complete route tree.
func (router *Router) Setup(cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // global so OPTIONS preflight is handled

	writeLimit := RateLimitConfig{
		Requests: cfg.Security.RateLimitWriteReqs,
		Window:   cfg.Security.RateLimitWriteWindow,
	}
	readLimit := RateLimitConfig{
		Requests: cfg.Security.RateLimitReadReqs,
		Window:   cfg.Security.RateLimitReadWindow,
	}

	// Ingestion endpoints
	r.Route("/api/v1/track", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitCustom(writeLimit))
		r.Use(APISecurityHeaders())
		r.Use(chiAdapter(middleware.Instrument))

		r.Post("/pageview", router.handler.TrackPageview)
		r.Post("/event", router.handler.TrackEvent)
		r.Post("/postview", router.handler.TrackPostview)
		r.Post("/bulk", router.handler.TrackBulk)
	})

	// Reporting endpoints
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitCustom(readLimit))
		r.Use(APISecurityHeaders())
		r.Use(chiAdapter(middleware.Instrument))

		r.Get("/stats", router.handler.Stats)
		r.Get("/dashboard", router.handler.Dashboard)
		r.Get("/utm-report", router.handler.UTMReport)
		r.Get("/events", router.handler.Events)

		r.With(router.chiMiddleware.RateLimitAdmin()).
			Delete("/cleanup", router.handler.Cleanup)
	})

	// Health endpoints
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Use(APISecurityHeaders())

		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler())

	return r
}
