// Visitline - Visitor Presence Timeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/visitline

package hub

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/visitline/internal/logging"
	"github.com/tomtom215/visitline/internal/metrics"
)

// checkOrigin accepts requests without an Origin header (non-browser
// clients) and browser requests from an allowed origin. A "*" entry allows
// every origin.
func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.cfg.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	logging.Ctx(r.Context()).Warn().Str("origin", origin).Msg("presence connection rejected: origin not allowed")
	return false
}

func (h *Hub) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		HandshakeTimeout: 10 * time.Second,
		CheckOrigin:      h.checkOrigin,
	}
}

// ServeWS upgrades the request to a presence websocket and registers the
// client. It answers 503 when the hub is not running.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	done := h.doneChan()
	if done == nil {
		http.Error(w, "presence hub not running", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader().Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		metrics.RecordHubError("upgrade")
		logging.Ctx(r.Context()).Warn().Err(err).Msg("presence websocket upgrade failed")
		return
	}

	client := NewClient(h, conn)
	client.hubDone = done
	select {
	case h.Register <- client:
	case <-done:
		_ = conn.Close()
		return
	}
	client.Start()
}
