// Visitline - Visitor Presence Timeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/visitline

package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"
)

// Zoom actions accepted by POST /api/v1/zoom.
const (
	ZoomActionGesture = "gesture"
	ZoomActionZoomIn  = "zoom_in"
	ZoomActionZoomOut = "zoom_out"
	ZoomActionSettle  = "settle"
)

const maxZoomBody = 1024

// ZoomRequest is the body of POST /api/v1/zoom.
type ZoomRequest struct {
	Action string `json:"action" validate:"required,oneof=gesture zoom_in zoom_out settle"`
}

// Zoom returns the shared zoom flags.
func (h *Handler) Zoom(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if h.zoom == nil {
		respondError(w, r, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Zoom state unavailable", nil)
		return
	}
	respondSuccess(w, h.zoom.Snapshot(), start)
}

// UpdateZoom applies a zoom action. A gesture raises the zooming flag
// until the clear delay passes without another gesture.
func (h *Handler) UpdateZoom(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if h.zoom == nil {
		respondError(w, r, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Zoom state unavailable", nil)
		return
	}

	var req ZoomRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxZoomBody)).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "INVALID_JSON", "Request body must be a JSON object", nil)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, r, http.StatusBadRequest, apiErr)
		return
	}

	switch req.Action {
	case ZoomActionGesture:
		h.zoom.SetZoomingFor()
	case ZoomActionZoomIn:
		h.zoom.SetZoomed(true)
	case ZoomActionZoomOut:
		h.zoom.SetZoomed(false)
	case ZoomActionSettle:
		h.zoom.Stop()
		h.zoom.SetZooming(false)
	}

	respondSuccess(w, h.zoom.Snapshot(), start)
}
