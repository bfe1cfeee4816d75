// Visitline - Visitor Presence Timeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/visitline

package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/visitline/internal/logging"
	"github.com/tomtom215/visitline/internal/models"
	"github.com/tomtom215/visitline/internal/validation"
)

// Response status values.
const (
	statusSuccess = "success"
	statusError   = "error"
)

// sanitizeLogValue escapes control characters so request data cannot forge
// log entries.
func sanitizeLogValue(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			fmt.Fprintf(&b, "\\x%02x", r)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// respondJSON writes response as JSON. Live presence data is never cached.
func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")

	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Debug().Err(err).Msg("failed to write JSON response")
	}
}

// respondSuccess wraps data in a success envelope.
func respondSuccess(w http.ResponseWriter, data interface{}, start time.Time) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: statusSuccess,
		Data:   data,
		Metadata: models.Metadata{
			Timestamp:   time.Now().UTC(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// respondError sends an error envelope and logs it with the request's
// logger.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, err error) {
	logger := logging.Ctx(r.Context())
	if err != nil {
		logger.Error().
			Int("status", status).
			Str("code", sanitizeLogValue(code)).
			Str("error", sanitizeLogValue(err.Error())).
			Msg("API error")
	} else {
		logger.Debug().Int("status", status).Str("code", sanitizeLogValue(code)).Msg("API error response")
	}

	respondJSON(w, status, &models.APIResponse{
		Status:   statusError,
		Metadata: errorMetadata(r),
		Error: &models.APIError{
			Code:    code,
			Message: message,
		},
	})
}

// respondAPIError sends a structured validation error.
func respondAPIError(w http.ResponseWriter, r *http.Request, status int, apiErr *models.APIError) {
	logging.Ctx(r.Context()).Debug().
		Int("status", status).
		Str("code", sanitizeLogValue(apiErr.Code)).
		Msg("API validation error")

	respondJSON(w, status, &models.APIResponse{
		Status:   statusError,
		Metadata: errorMetadata(r),
		Error:    apiErr,
	})
}

// errorMetadata echoes the request id so clients can quote it.
func errorMetadata(r *http.Request) models.Metadata {
	return models.Metadata{
		Timestamp: time.Now().UTC(),
		RequestID: logging.RequestIDFromContext(r.Context()),
	}
}

// validateRequest validates v with the shared validator and converts a
// failure to an APIError.
func validateRequest(v interface{}) *models.APIError {
	validationErr := validation.ValidateStruct(v)
	if validationErr == nil {
		return nil
	}
	apiErr := validationErr.ToAPIError()
	return &models.APIError{
		Code:    apiErr.Code,
		Message: apiErr.Message,
		Details: apiErr.Details,
	}
}
