// Visitline - Visitor Presence Timeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/visitline

/*
Package middleware provides HTTP middleware shared by the API router.

Key Components:

  - RequestID: UUID-based request tracking, echoed in X-Request-ID. It
    attaches a request logger (request_id, method, path) that handlers
    reach through logging.Ctx(r.Context())
  - PrometheusMetrics: request count and latency per route pattern

Both are chi-compatible (func(http.Handler) http.Handler):

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Route("/api/v1", func(r chi.Router) {
	    r.Use(middleware.PrometheusMetrics)
	    r.Get("/visitors", h.Visitors)
	})

Metrics are labeled with the chi route pattern rather than the raw path so
query strings and unknown paths cannot inflate label cardinality.
*/
package middleware
