// Visitline - Visitor Presence Timeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/visitline

// Package validation provides struct validation using go-playground/validator v10.
//
// A single validator instance is shared process-wide. It caches struct
// metadata and carries the custom tags used by configuration and API
// input:
//
//   - wsurl: an absolute ws:// or wss:// URL with a host
//   - timestamp: an ISO-8601 timestamp accepted by the timeline engine
//
// Field names in errors come from the koanf tag, then the json tag, then
// the Go field name, so configuration errors name the key a user wrote.
//
// Example:
//
//	type SlotRequest struct {
//	    ID    string `json:"id" validate:"required"`
//	    Start string `json:"start" validate:"required,timestamp"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
//	    return
//	}
package validation
