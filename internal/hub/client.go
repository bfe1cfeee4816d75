// Visitline - Visitor Presence Timeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/visitline

package hub

import (
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/visitline/internal/logging"
	"github.com/tomtom215/visitline/internal/metrics"
	"github.com/tomtom215/visitline/internal/models"
	"github.com/tomtom215/visitline/internal/timeline"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 64
)

var clientIDCounter atomic.Uint64

// Client is a middleman between a websocket connection and the hub.
type Client struct {
	id   uint64
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	// hubDone is the Done channel of the hub run the client joined.
	hubDone <-chan struct{}
}

// NewClient creates a Client bound to the hub's current run.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		id:      clientIDCounter.Add(1),
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		hubDone: hub.doneChan(),
	}
}

// ID returns the client's unique identifier.
func (c *Client) ID() uint64 {
	return c.id
}

// Start begins reading and writing for the client.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

// readPump decodes inbound presence messages and forwards them to the hub.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.Unregister <- c:
		case <-c.hubDone:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Msg("failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				metrics.RecordHubError("unexpected_close")
				logging.Warn().Err(err).Uint64("client_id", c.id).Msg("unexpected presence client close")
			}
			return
		}
		// Any application message counts as liveness.
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		c.handle(data)
	}
}

func (c *Client) handle(data []byte) {
	var env models.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		metrics.RecordHubError("malformed")
		return
	}

	switch env.Type {
	case models.MessageTypePing:
		var ping models.PingMessage
		if err := json.Unmarshal(data, &ping); err != nil {
			metrics.RecordHubError("malformed")
			return
		}
		metrics.RecordHubMessage(env.Type)
		pong, err := json.Marshal(models.PongMessage{Type: models.MessageTypePong, TS: ping.TS})
		if err != nil {
			return
		}
		select {
		case c.send <- pong:
		default:
		}

	case models.MessageTypeEnter:
		var msg models.EnterMessage
		if err := json.Unmarshal(data, &msg); err != nil || msg.ID == "" {
			metrics.RecordHubError("invalid_enter")
			return
		}
		metrics.RecordHubMessage(env.Type)
		fingerprint := ""
		if msg.Meta != nil {
			fingerprint = msg.Meta.Fingerprint
		}
		c.forward(inboundMessage{
			client:      c,
			msgType:     env.Type,
			sessionID:   msg.ID,
			at:          c.timestamp(msg.EnteredAt),
			fingerprint: fingerprint,
		})

	case models.MessageTypeLeave:
		var msg models.LeaveMessage
		if err := json.Unmarshal(data, &msg); err != nil || msg.ID == "" {
			metrics.RecordHubError("invalid_leave")
			return
		}
		metrics.RecordHubMessage(env.Type)
		c.forward(inboundMessage{
			client:    c,
			msgType:   env.Type,
			sessionID: msg.ID,
			at:        c.timestamp(msg.LeftAt),
		})

	default:
		metrics.RecordHubError("unknown_type")
	}
}

// timestamp parses a client timestamp, falling back to the server clock.
func (c *Client) timestamp(s string) time.Time {
	if ms, ok := timeline.ParseTimestamp(s); ok {
		return time.UnixMilli(ms)
	}
	return c.hub.timeNow()
}

func (c *Client) forward(msg inboundMessage) {
	select {
	case c.hub.inbound <- msg:
	case <-c.hubDone:
	}
}

// writePump writes queued messages and keepalive pings to the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline")
				return
			}
			if !ok {
				// The hub closed the channel.
				msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
				_ = c.conn.WriteMessage(websocket.CloseMessage, msg)
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logging.Debug().Err(err).Uint64("client_id", c.id).Msg("failed to write presence message")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
