// Visitline - Visitor Presence Timeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/visitline

package hub

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/visitline/internal/logging"
	"github.com/tomtom215/visitline/internal/metrics"
	"github.com/tomtom215/visitline/internal/models"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled is the normal graceful shutdown path.
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline indicates the context deadline was exceeded.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Hub defaults.
const (
	DefaultBroadcastInterval = 5 * time.Second
	DefaultRetention         = 24 * time.Hour
)

// Config configures a Hub.
type Config struct {
	// BroadcastInterval is how often the visitor list is pushed even
	// without changes. Zero uses DefaultBroadcastInterval.
	BroadcastInterval time.Duration

	// Retention is how long closed visits are kept. Zero uses
	// DefaultRetention; negative keeps visits forever.
	Retention time.Duration

	// AllowedOrigins lists browser origins accepted by ServeWS. Requests
	// without an Origin header are always accepted.
	AllowedOrigins []string
}

// inboundMessage is an enter or leave received by a client read pump.
type inboundMessage struct {
	client      *Client
	msgType     string
	sessionID   string
	at          time.Time
	fingerprint string
}

// Hub maintains the set of active clients and the visit registry.
type Hub struct {
	clients    map[*Client]bool
	Register   chan *Client
	Unregister chan *Client
	inbound    chan inboundMessage
	registry   *Registry
	cfg        Config
	timeNow    func() time.Time
	mu         sync.RWMutex

	// done is the Done channel of the running RunWithContext, nil when
	// the hub is not running.
	done <-chan struct{}
}

// New creates a Hub.
func New(cfg Config) *Hub {
	if cfg.BroadcastInterval <= 0 {
		cfg.BroadcastInterval = DefaultBroadcastInterval
	}
	if cfg.Retention == 0 {
		cfg.Retention = DefaultRetention
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		inbound:    make(chan inboundMessage, 256),
		registry:   NewRegistry(cfg.Retention),
		cfg:        cfg,
		timeNow:    time.Now,
	}
}

// RunWithContext runs the hub until ctx is canceled. On shutdown every
// client is closed and ctx.Err() is returned, so a supervisor can restart
// the hub without orphaned connections.
//
// Context cancellation is checked first, then client lifecycle events,
// then inbound messages and the broadcast ticker.
func (h *Hub) RunWithContext(ctx context.Context) error {
	h.mu.Lock()
	h.done = ctx.Done()
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		h.done = nil
		h.mu.Unlock()
	}()

	ticker := time.NewTicker(h.cfg.BroadcastInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.Register:
			h.register(client)
			continue
		case client := <-h.Unregister:
			h.unregister(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()

		case client := <-h.Register:
			h.register(client)

		case client := <-h.Unregister:
			h.unregister(client)

		case msg := <-h.inbound:
			h.apply(msg)

		case <-ticker.C:
			if pruned := h.registry.Prune(h.timeNow()); pruned > 0 {
				logging.Debug().Int("pruned", pruned).Msg("pruned expired visits")
			}
			h.broadcastVisitors()
		}
	}
}

// Running reports whether RunWithContext is active.
func (h *Hub) Running() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.done != nil
}

func (h *Hub) doneChan() <-chan struct{} {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.done
}

func (h *Hub) register(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()

	metrics.HubConnections.Set(float64(total))
	logging.Info().Uint64("client_id", client.id).Int("total_clients", total).Msg("presence client connected")

	// New clients get the current list right away.
	if data, err := h.encodeVisitors(); err == nil {
		select {
		case client.send <- data:
		default:
		}
	}
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	total := len(h.clients)
	h.mu.Unlock()

	metrics.HubConnections.Set(float64(total))
	logging.Info().Uint64("client_id", client.id).Int("total_clients", total).Msg("presence client disconnected")

	if closed := h.registry.CloseOwnedBy(client.id, h.timeNow()); closed > 0 {
		logging.Debug().Uint64("client_id", client.id).Int("visits", closed).Msg("closed visits of dropped client")
		h.broadcastVisitors()
	}
}

func (h *Hub) apply(msg inboundMessage) {
	var changed bool
	switch msg.msgType {
	case models.MessageTypeEnter:
		// Late enter from a client that already dropped.
		if !h.isRegistered(msg.client) {
			return
		}
		changed = h.registry.Enter(msg.sessionID, msg.at, msg.fingerprint, msg.client.id)
	case models.MessageTypeLeave:
		changed = h.registry.Leave(msg.sessionID, msg.at)
	}
	if changed {
		logging.Debug().Str("type", msg.msgType).Str("session_id", msg.sessionID).Msg("visit updated")
		h.broadcastVisitors()
	}
}

func (h *Hub) isRegistered(client *Client) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.clients[client]
}

func (h *Hub) encodeVisitors() ([]byte, error) {
	visitors := h.registry.Visitors(h.timeNow())
	return json.Marshal(models.VisitorsMessage{
		Type:     models.MessageTypeVisitors,
		Visitors: &visitors,
	})
}

// broadcastVisitors pushes the visitor list to every client.
func (h *Hub) broadcastVisitors() {
	data, err := h.encodeVisitors()
	if err != nil {
		metrics.RecordHubError("encode")
		logging.Error().Err(err).Msg("failed to encode visitors message")
		return
	}
	h.broadcastToClients(data)
	metrics.RecordHubBroadcast(h.registry.ActiveCount())
}

// broadcastToClients sends data to all connected clients ordered by id.
// Clients whose send buffer is full are dropped.
func (h *Hub) broadcastToClients(data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	var toRemove []*Client
	for _, client := range clients {
		select {
		case client.send <- data:
		default:
			toRemove = append(toRemove, client)
		}
	}

	for _, client := range toRemove {
		close(client.send)
		delete(h.clients, client)
		metrics.RecordHubError("slow_client")
		logging.Warn().Uint64("client_id", client.id).Msg("dropped slow presence client")
	}
	if len(toRemove) > 0 {
		metrics.HubConnections.Set(float64(len(h.clients)))
	}
}

// logGracefulShutdown closes all clients and logs the shutdown.
// ctx.Err() is not logged as an error since cancellation is expected.
func (h *Hub) logGracefulShutdown(ctx context.Context) {
	clientCount := h.ClientCount()
	h.closeAllClients()

	logging.Info().
		Str("component", "presence-hub").
		Str("reason", string(getShutdownReason(ctx))).
		Int("clients_closed", clientCount).
		Msg("presence hub stopped")
}

func getShutdownReason(ctx context.Context) ShutdownReason {
	switch ctx.Err() {
	case context.DeadlineExceeded:
		return ShutdownReasonContextDeadline
	default:
		return ShutdownReasonContextCanceled
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
	metrics.HubConnections.Set(0)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ActiveVisits returns the number of open visits.
func (h *Hub) ActiveVisits() int {
	return h.registry.ActiveCount()
}

// Visitors returns the current visitor list with open visits ending now.
func (h *Hub) Visitors() []models.VisitInterval {
	return h.registry.Visitors(h.timeNow())
}
