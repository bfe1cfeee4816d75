// Visitline - Visitor Presence Timeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/visitline

package middleware

import (
	"net/http"
	"strings"

	"github.com/tomtom215/visitline/internal/logging"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

const maxRequestIDLength = 128

// RequestID reuses an upstream X-Request-ID or generates a UUID and echoes
// it in the response. Downstream handlers log through logging.Ctx, which
// carries the id, method and path.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := sanitizeRequestID(r.Header.Get(RequestIDHeader))
		if requestID == "" {
			requestID = logging.GenerateRequestID()
		}

		w.Header().Set(RequestIDHeader, requestID)

		logger := logging.Ctx(r.Context()).With().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Logger()

		ctx := logging.ContextWithRequestID(r.Context(), requestID)
		ctx = logging.ContextWithLogger(ctx, logger)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sanitizeRequestID rejects upstream IDs that are too long or contain
// characters that could forge log lines.
func sanitizeRequestID(id string) string {
	if len(id) > maxRequestIDLength {
		return ""
	}
	if strings.IndexFunc(id, func(r rune) bool { return r < 0x20 || r == 0x7F }) >= 0 {
		return ""
	}
	return id
}
