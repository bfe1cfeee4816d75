// Visitline - Visitor Presence Timeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/visitline

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/visitline/internal/middleware"
)

// RouterConfig configures the HTTP router.
type RouterConfig struct {
	// CORSOrigins lists allowed browser origins; "*" allows all.
	CORSOrigins []string

	// Timeout bounds JSON API handlers. Zero disables it.
	Timeout time.Duration

	// RateLimitRequests per RateLimitWindow per client IP on /api/v1.
	// Zero disables rate limiting.
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// Router builds the chi route tree.
type Router struct {
	handler *Handler
	config  RouterConfig
}

// NewRouter creates a Router.
func NewRouter(handler *Handler, config RouterConfig) *Router {
	return &Router{handler: handler, config: config}
}

func (router *Router) corsHandler() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   router.config.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           86400,
	})
}

// rateLimit limits /api/v1 by client IP. RealIP runs first, so the key is
// the forwarded address behind a proxy.
func (router *Router) rateLimit() func(http.Handler) http.Handler {
	if router.config.RateLimitRequests <= 0 {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	window := router.config.RateLimitWindow
	if window <= 0 {
		window = time.Minute
	}

	return httprate.Limit(
		router.config.RateLimitRequests,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			respondError(w, r, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests", nil)
		}),
	)
}

// Setup returns the root handler.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.corsHandler())

	// The websocket handler needs the raw connection, so it stays outside
	// compression and timeouts.
	r.Get("/ws", router.handler.WebSocket)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.PrometheusMetrics)
		r.Use(router.rateLimit())
		r.Use(chimiddleware.Compress(5, "application/json"))
		if router.config.Timeout > 0 {
			r.Use(chimiddleware.Timeout(router.config.Timeout))
		}

		r.Get("/health", router.handler.Health)
		r.Get("/visitors", router.handler.Visitors)
		r.Get("/timeline", router.handler.Timeline)
		r.Get("/zoom", router.handler.Zoom)
		r.Post("/zoom", router.handler.UpdateZoom)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
