// Visitline - Visitor Presence Timeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/visitline

package presence

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/visitline/internal/logging"
	"github.com/tomtom215/visitline/internal/metrics"
	"github.com/tomtom215/visitline/internal/models"
	"github.com/tomtom215/visitline/internal/schedule"
)

// Channel is a presence client connection with automatic reconnection.
type Channel struct {
	opts     Options
	dialer   Dialer
	sessions *SessionManager
	log      zerolog.Logger
	timeNow  func() time.Time

	// mu guards the connection state below. Effects of a transition run
	// while it is held; observers are notified after it is released.
	mu         sync.Mutex
	status     Status
	conn       Conn
	detached   []Conn
	gen        uint64
	ctx        context.Context
	cancel     context.CancelFunc
	stopWatch  func() bool
	cancelDial context.CancelFunc
	hbStop     chan struct{}
	outbox     *Outbox
	reconnect  schedule.Timer
	wg         sync.WaitGroup

	clock    *Clock
	throttle *Throttle[[]models.VisitInterval]

	visitorsMu sync.RWMutex
	visitors   []models.VisitInterval

	observersMu sync.RWMutex
	onStatus    []func(Status)
	onVisitors  []func([]models.VisitInterval)
	onTick      []func(time.Time)
}

// New creates an idle Channel.
func New(opts Options) (*Channel, error) {
	opts.applyDefaults()
	if err := ValidateURL(opts.URL); err != nil {
		return nil, err
	}

	c := &Channel{
		opts:     opts,
		dialer:   opts.Dialer,
		sessions: opts.Sessions,
		log:      logging.WithComponent("presence"),
		timeNow:  time.Now,
		status:   StatusIdle,
		outbox:   NewOutbox(opts.MaxPending),
	}
	if c.dialer == nil {
		c.dialer = &WebSocketDialer{
			HandshakeTimeout: opts.HandshakeTimeout,
			WriteTimeout:     opts.WriteTimeout,
		}
	}
	if c.sessions == nil {
		c.sessions = NewSessionManager(nil)
	}
	c.clock = NewClock(opts.ClockInterval, opts.ClockMode, c.notifyTick)
	c.throttle = NewThrottle(opts.VisitorThrottle, c.applyVisitors)
	metrics.RecordPresenceTransition(string(StatusIdle), string(StatusIdle))
	return c, nil
}

// Connect starts connecting in the background and returns immediately.
// Calling it while connecting or open does nothing. Cancelling ctx has the
// same effect as Disconnect.
func (c *Channel) Connect(ctx context.Context) {
	c.mu.Lock()
	if c.status == StatusConnecting || c.status == StatusOpen {
		c.mu.Unlock()
		return
	}
	if c.cancel == nil {
		c.ctx, c.cancel = context.WithCancel(ctx)
		c.stopWatch = context.AfterFunc(ctx, c.Disconnect)
	}
	c.log.Info().Str("url", c.opts.URL).Msg("Presence channel connecting")
	changes := c.dispatchLocked(EventConnect)
	c.unlock()

	c.notifyStatus(changes)
}

// Disconnect closes the connection and stops reconnecting, heartbeats and
// the clock. The channel returns to idle and may be connected again.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	c.gen++
	if c.stopWatch != nil {
		c.stopWatch()
		c.stopWatch = nil
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	changes := c.dispatchLocked(EventDisconnect)
	c.unlock()

	c.throttle.Cancel()
	if len(changes) > 0 {
		c.log.Info().Msg("Presence channel disconnected")
	}
	c.notifyStatus(changes)
}

// Close disconnects and waits for the channel's goroutines to exit.
// It must not be called from an observer callback.
func (c *Channel) Close() {
	c.Disconnect()
	c.wg.Wait()
	c.clock.Wait()
}

// SendEnter announces the start of this client's visit.
func (c *Channel) SendEnter() models.EnterMessage {
	msg := models.EnterMessage{
		Type:      models.MessageTypeEnter,
		ID:        c.sessions.EnsureSessionID(),
		EnteredAt: models.FormatTimestamp(c.timeNow()),
	}
	if c.opts.Metadata != nil {
		meta := c.opts.Metadata()
		msg.Meta = &meta
	}
	c.send(msg.Type, msg)
	return msg
}

// SendLeave announces the end of this client's visit.
func (c *Channel) SendLeave() models.LeaveMessage {
	msg := models.LeaveMessage{
		Type:   models.MessageTypeLeave,
		ID:     c.sessions.EnsureSessionID(),
		LeftAt: models.FormatTimestamp(c.timeNow()),
	}
	c.send(msg.Type, msg)
	return msg
}

// Ping sends a keepalive message.
func (c *Channel) Ping() {
	c.send(models.MessageTypePing, models.PingMessage{
		Type: models.MessageTypePing,
		TS:   c.timeNow().UnixMilli(),
	})
}

// Status returns the connection status.
func (c *Channel) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// PendingCount returns the number of buffered outbound messages.
func (c *Channel) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outbox.Len()
}

// Visitors returns a copy of the latest applied visitor list.
func (c *Channel) Visitors() []models.VisitInterval {
	c.visitorsMu.RLock()
	defer c.visitorsMu.RUnlock()
	return copyVisits(c.visitors)
}

// Now returns the time last published by the channel clock.
func (c *Channel) Now() time.Time {
	return c.clock.Now()
}

// SessionID returns the session id if one has been assigned.
func (c *Channel) SessionID() (string, bool) {
	return c.sessions.SessionID()
}

// URL returns the presence server URL.
func (c *Channel) URL() string {
	return c.opts.URL
}

// OnStatus registers fn to be called after every status change.
func (c *Channel) OnStatus(fn func(Status)) {
	c.observersMu.Lock()
	defer c.observersMu.Unlock()
	c.onStatus = append(c.onStatus, fn)
}

// OnVisitors registers fn to be called with every applied visitor list.
func (c *Channel) OnVisitors(fn func([]models.VisitInterval)) {
	c.observersMu.Lock()
	defer c.observersMu.Unlock()
	c.onVisitors = append(c.onVisitors, fn)
}

// OnTick registers fn to be called on every clock publish.
func (c *Channel) OnTick(fn func(time.Time)) {
	c.observersMu.Lock()
	defer c.observersMu.Unlock()
	c.onTick = append(c.onTick, fn)
}

// dispatchLocked feeds ev (and any follow-up events raised by effects) through
// the state machine and returns the statuses entered, in order.
func (c *Channel) dispatchLocked(ev Event) []Status {
	var changes []Status
	queue := []Event{ev}
	for len(queue) > 0 {
		ev, queue = queue[0], queue[1:]

		from := c.status
		next, effects := Transition(from, ev, c.opts.Reconnect)
		if next == from && len(effects) == 0 {
			continue
		}
		c.status = next
		if next != from {
			changes = append(changes, next)
			metrics.RecordPresenceTransition(string(from), string(next))
			c.log.Debug().
				Str("event", ev.String()).
				Str("from", string(from)).
				Str("to", string(next)).
				Msg("Presence status changed")
		}
		for _, effect := range effects {
			if follow, ok := c.applyLocked(effect); ok {
				queue = append(queue, follow)
			}
		}
	}
	return changes
}

// applyLocked performs one effect. It returns a follow-up event when the
// effect itself fails in a way the state machine must see.
func (c *Channel) applyLocked(effect Effect) (Event, bool) {
	switch effect {
	case EffectDial:
		c.gen++
		dialCtx, cancel := context.WithCancel(c.ctx)
		c.cancelDial = cancel
		c.wg.Add(1)
		go c.dial(dialCtx, c.gen)

	case EffectStartClock:
		c.clock.Start()

	case EffectStopClock:
		c.clock.Stop()

	case EffectFlush:
		if pending := c.outbox.Len(); pending > 0 {
			if err := c.outbox.Drain(c.writeLocked); err != nil {
				c.log.Info().Err(err).Int("pending", c.outbox.Len()).Msg("Presence flush interrupted")
				return EventError, true
			}
			c.log.Debug().Int("flushed", pending).Msg("Presence outbox flushed")
		}

	case EffectStartHeartbeat:
		c.startHeartbeatLocked()

	case EffectStopHeartbeat:
		c.stopHeartbeatLocked()

	case EffectScheduleReconnect:
		gen := c.gen
		c.reconnect.Schedule(c.opts.ReconnectDelay, func() { c.retry(gen) })
		c.log.Info().Dur("delay", c.opts.ReconnectDelay).Msg("Presence reconnect scheduled")

	case EffectCancelReconnect:
		c.reconnect.Cancel()

	case EffectCloseTransport:
		if c.cancelDial != nil {
			c.cancelDial()
			c.cancelDial = nil
		}
		if c.conn != nil {
			c.detached = append(c.detached, c.conn)
			c.conn = nil
		}
	}
	return 0, false
}

// unlock releases mu and then closes any transports detached while it was
// held, so a slow close handshake never blocks other callers.
func (c *Channel) unlock() {
	detached := c.detached
	c.detached = nil
	c.mu.Unlock()

	for _, conn := range detached {
		if err := conn.Close(); err != nil {
			c.log.Debug().Err(err).Msg("Presence transport close failed")
		}
	}
}

func (c *Channel) dial(ctx context.Context, gen uint64) {
	defer c.wg.Done()

	conn, err := c.dialer.Dial(ctx, c.opts.URL)

	c.mu.Lock()
	if gen != c.gen || c.status != StatusConnecting {
		c.mu.Unlock()
		if conn != nil {
			_ = conn.Close()
		}
		return
	}

	var changes []Status
	if err != nil {
		c.log.Info().Err(err).Str("url", c.opts.URL).Msg("Presence connection failed")
		changes = c.dispatchLocked(EventError)
	} else {
		c.conn = conn
		c.wg.Add(1)
		go c.readLoop(conn, gen)
		c.log.Info().Str("url", c.opts.URL).Msg("Presence channel open")
		changes = c.dispatchLocked(EventOpen)
	}
	c.unlock()

	c.notifyStatus(changes)
}

func (c *Channel) retry(gen uint64) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	metrics.PresenceReconnects.Inc()
	c.log.Info().Str("url", c.opts.URL).Msg("Presence channel reconnecting")
	changes := c.dispatchLocked(EventRetry)
	c.unlock()

	c.notifyStatus(changes)
}

// current reports whether conn is still the live transport of generation gen.
func (c *Channel) current(conn Conn, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return gen == c.gen && c.conn == conn
}

func (c *Channel) readLoop(conn Conn, gen uint64) {
	defer c.wg.Done()

	for {
		data, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			if gen != c.gen || c.conn != conn {
				c.mu.Unlock()
				return
			}
			ev := EventError
			if errors.Is(err, ErrTransportClosed) {
				ev = EventClose
				c.log.Info().Msg("Presence connection closed by server")
			} else {
				c.log.Info().Err(err).Msg("Presence connection lost")
			}
			changes := c.dispatchLocked(ev)
			c.unlock()

			c.notifyStatus(changes)
			return
		}

		if !c.current(conn, gen) {
			return
		}
		c.handleMessage(data)
	}
}

// handleMessage applies visitor lists and ignores everything else.
func (c *Channel) handleMessage(data []byte) {
	var msg models.VisitorsMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		metrics.RecordPresenceReceived("malformed")
		c.log.Debug().Err(err).Int("bytes", len(data)).Msg("Discarding malformed presence message")
		return
	}
	if msg.Type != models.MessageTypeVisitors || msg.Visitors == nil {
		metrics.RecordPresenceReceived("ignored")
		c.log.Debug().Str("type", msg.Type).Msg("Ignoring presence message")
		return
	}
	metrics.RecordPresenceReceived("applied")
	c.throttle.Submit(*msg.Visitors)
}

func (c *Channel) applyVisitors(visitors []models.VisitInterval) {
	if visitors == nil {
		visitors = []models.VisitInterval{}
	}
	c.visitorsMu.Lock()
	c.visitors = visitors
	c.visitorsMu.Unlock()
	metrics.RecordPresenceVisitors(len(visitors))

	c.observersMu.RLock()
	observers := c.onVisitors
	c.observersMu.RUnlock()
	for _, fn := range observers {
		fn(copyVisits(visitors))
	}
}

func (c *Channel) send(msgType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		c.log.Error().Err(err).Str("type", msgType).Msg("Failed to encode presence message")
		return
	}

	c.mu.Lock()
	var changes []Status
	if c.status == StatusOpen && c.conn != nil {
		if err := c.writeLocked(msgType, data); err != nil {
			c.log.Info().Err(err).Str("type", msgType).Msg("Presence write failed, buffering message")
			c.outbox.Push(msgType, data)
			changes = c.dispatchLocked(EventError)
		}
	} else {
		c.outbox.Push(msgType, data)
	}
	c.unlock()

	c.notifyStatus(changes)
}

func (c *Channel) writeLocked(msgType string, data []byte) error {
	if c.conn == nil {
		return fmt.Errorf("write %s: %w", msgType, ErrTransportClosed)
	}
	if err := c.conn.WriteMessage(data); err != nil {
		return err
	}
	metrics.RecordPresenceSent(msgType)
	return nil
}

func (c *Channel) startHeartbeatLocked() {
	c.stopHeartbeatLocked()
	if c.opts.HeartbeatInterval <= 0 {
		return
	}
	stop := make(chan struct{})
	c.hbStop = stop
	c.wg.Add(1)
	go c.heartbeat(stop, c.opts.HeartbeatInterval)
}

func (c *Channel) stopHeartbeatLocked() {
	if c.hbStop != nil {
		close(c.hbStop)
		c.hbStop = nil
	}
}

func (c *Channel) heartbeat(stop chan struct{}, interval time.Duration) {
	defer c.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			live := c.hbStop == stop
			c.mu.Unlock()
			if !live {
				return
			}
			c.Ping()
		}
	}
}

func (c *Channel) notifyStatus(changes []Status) {
	if len(changes) == 0 {
		return
	}
	c.observersMu.RLock()
	observers := c.onStatus
	c.observersMu.RUnlock()
	for _, status := range changes {
		for _, fn := range observers {
			fn(status)
		}
	}
}

func (c *Channel) notifyTick(now time.Time) {
	c.observersMu.RLock()
	observers := c.onTick
	c.observersMu.RUnlock()
	for _, fn := range observers {
		fn(now)
	}
}

func copyVisits(visits []models.VisitInterval) []models.VisitInterval {
	out := make([]models.VisitInterval, len(visits))
	copy(out, visits)
	return out
}
