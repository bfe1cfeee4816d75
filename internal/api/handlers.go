// Visitline - Visitor Presence Timeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/visitline

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/visitline/internal/logging"
	"github.com/tomtom215/visitline/internal/models"
	"github.com/tomtom215/visitline/internal/presence"
	"github.com/tomtom215/visitline/internal/timeline"
	"github.com/tomtom215/visitline/internal/zoom"
)

// Version is reported by the health endpoint. Set at build time.
var Version = "dev"

// PresenceSource is the read side of a presence channel.
type PresenceSource interface {
	Status() presence.Status
	Visitors() []models.VisitInterval
	Now() time.Time
	SessionID() (string, bool)
	PendingCount() int
}

// PresenceHub is the websocket hub served on /ws.
type PresenceHub interface {
	ServeWS(w http.ResponseWriter, r *http.Request)
	ClientCount() int
	ActiveVisits() int
}

// Dependencies are the components served by a Handler. Hub and Zoom are
// optional.
type Dependencies struct {
	Channel PresenceSource
	Engine  *timeline.Engine
	Hub     PresenceHub
	Zoom    *zoom.State
}

// Handler serves the API endpoints.
type Handler struct {
	channel   PresenceSource
	engine    *timeline.Engine
	hub       PresenceHub
	zoom      *zoom.State
	startTime time.Time
}

// NewHandler creates a Handler.
func NewHandler(deps Dependencies) *Handler {
	return &Handler{
		channel:   deps.Channel,
		engine:    deps.Engine,
		hub:       deps.Hub,
		zoom:      deps.Zoom,
		startTime: time.Now(),
	}
}

// VisitorsResponse is the payload of GET /api/v1/visitors.
type VisitorsResponse struct {
	Status    string                 `json:"status"`
	SessionID string                 `json:"session_id,omitempty"`
	Pending   int                    `json:"pending"`
	Count     int                    `json:"count"`
	Visitors  []models.VisitInterval `json:"visitors"`
}

// Visitors returns the channel's current visitor list.
func (h *Handler) Visitors(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	visitors := h.channel.Visitors()
	sessionID, _ := h.channel.SessionID()

	respondSuccess(w, VisitorsResponse{
		Status:    string(h.channel.Status()),
		SessionID: sessionID,
		Pending:   h.channel.PendingCount(),
		Count:     len(visitors),
		Visitors:  visitors,
	}, start)
}

// TimelineRequest holds the query parameters of GET /api/v1/timeline.
type TimelineRequest struct {
	At string `json:"at" validate:"omitempty,timestamp"`
}

// TimelineResponse is the payload of GET /api/v1/timeline.
type TimelineResponse struct {
	Now       string              `json:"now"`
	Slots     []models.TimeSlot   `json:"slots"`
	Items     []*timeline.Item    `json:"items"`
	HourTicks []timeline.HourTick `json:"hour_ticks"`
	NowOffset float64             `json:"now_offset"`
	HasNow    bool                `json:"has_now"`

	// Zoom lets renderers suppress transitions while a gesture is active.
	Zoom *zoom.Snapshot `json:"zoom,omitempty"`
}

// Timeline lays out the current visitor list. The "at" query parameter
// replaces the channel clock.
func (h *Handler) Timeline(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	req := TimelineRequest{At: r.URL.Query().Get("at")}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondAPIError(w, r, http.StatusBadRequest, apiErr)
		return
	}

	now := h.channel.Now()
	if req.At != "" {
		ms, _ := timeline.ParseTimestamp(req.At)
		now = time.UnixMilli(ms)
	}

	result := h.engine.Layout(h.channel.Visitors(), now)
	items := result.Items
	if items == nil {
		items = []*timeline.Item{}
	}
	ticks := result.HourTicks
	if ticks == nil {
		ticks = []timeline.HourTick{}
	}

	resp := TimelineResponse{
		Now:       models.FormatTimestamp(now),
		Slots:     h.engine.TimeSlots(),
		Items:     items,
		HourTicks: ticks,
		NowOffset: result.NowOffset,
		HasNow:    result.HasNow,
	}
	if h.zoom != nil {
		snap := h.zoom.Snapshot()
		resp.Zoom = &snap
	}
	respondSuccess(w, resp, start)
}

// Health reports "healthy" while the channel is open and "degraded"
// otherwise. It always answers 200 so liveness checks only fail when the
// process is gone.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	channelStatus := h.channel.Status()

	status := "healthy"
	if channelStatus != presence.StatusOpen {
		status = "degraded"
	}

	health := models.HealthStatus{
		Status:         status,
		Version:        Version,
		PresenceStatus: string(channelStatus),
		Uptime:         time.Since(h.startTime).Seconds(),
		Timestamp:      time.Now().UTC(),
	}
	if h.hub != nil {
		health.Connections = h.hub.ClientCount()
		health.ActiveVisits = h.hub.ActiveVisits()
	}

	respondSuccess(w, health, start)
}

// WebSocket hands the request to the presence hub.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		logging.Ctx(r.Context()).Warn().Msg("presence connection rejected: hub not enabled")
		respondError(w, r, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Presence hub unavailable", nil)
		return
	}
	h.hub.ServeWS(w, r)
}
