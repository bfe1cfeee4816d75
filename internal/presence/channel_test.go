// Visitline - Visitor Presence Timeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/visitline

package presence

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/visitline/internal/models"
)

// fakeConn is an in-memory transport driven by the test.
type fakeConn struct {
	mu       sync.Mutex
	written  [][]byte
	writeErr error

	incoming  chan []byte
	readErr   chan error
	closed    chan struct{}
	closeOnce sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		incoming: make(chan []byte, 16),
		readErr:  make(chan error, 1),
		closed:   make(chan struct{}),
	}
}

func (c *fakeConn) WriteMessage(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeErr != nil {
		return c.writeErr
	}
	c.written = append(c.written, append([]byte(nil), data...))
	return nil
}

func (c *fakeConn) ReadMessage() ([]byte, error) {
	select {
	case data := <-c.incoming:
		return data, nil
	case err := <-c.readErr:
		return nil, err
	case <-c.closed:
		return nil, ErrTransportClosed
	}
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) setWriteErr(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writeErr = err
}

func (c *fakeConn) messages() []map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]map[string]any, 0, len(c.written))
	for _, data := range c.written {
		var msg map[string]any
		if err := json.Unmarshal(data, &msg); err == nil {
			out = append(out, msg)
		}
	}
	return out
}

func (c *fakeConn) types() []string {
	var types []string
	for _, msg := range c.messages() {
		types = append(types, msg["type"].(string))
	}
	return types
}

// fakeDialer hands out fakeConns, optionally failing or blocking first.
type fakeDialer struct {
	dials    atomic.Int32
	failures atomic.Int32
	hold     chan struct{}
	conns    chan *fakeConn
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{conns: make(chan *fakeConn, 16)}
}

func (d *fakeDialer) Dial(ctx context.Context, _ string) (Conn, error) {
	d.dials.Add(1)
	if d.hold != nil {
		select {
		case <-d.hold:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if d.failures.Load() > 0 {
		d.failures.Add(-1)
		return nil, errors.New("connection refused")
	}
	conn := newFakeConn()
	d.conns <- conn
	return conn, nil
}

func (d *fakeDialer) next(t *testing.T) *fakeConn {
	t.Helper()
	select {
	case conn := <-d.conns:
		return conn
	case <-time.After(2 * time.Second):
		t.Fatal("dialer was not called")
		return nil
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func newTestChannel(t *testing.T, dialer Dialer, modify func(*Options)) *Channel {
	t.Helper()
	opts := Options{
		URL:               "ws://presence.test",
		ReconnectDelay:    20 * time.Millisecond,
		HeartbeatInterval: -1,
		ClockMode:         ClockModeWall,
		ClockInterval:     10 * time.Millisecond,
		Dialer:            dialer,
	}
	if modify != nil {
		modify(&opts)
	}
	ch, err := New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(ch.Close)
	return ch
}

func recordStatuses(ch *Channel) *recorder[Status] {
	rec := &recorder[Status]{}
	ch.OnStatus(rec.add)
	return rec
}

func statusesEqual(got []Status, want ...Status) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestChannelBuffersUntilOpen(t *testing.T) {
	t.Parallel()

	dialer := newFakeDialer()
	ch := newTestChannel(t, dialer, nil)

	if ch.Status() != StatusIdle {
		t.Fatalf("initial status = %s, want idle", ch.Status())
	}

	enter := ch.SendEnter()
	ch.SendLeave()
	if ch.PendingCount() != 2 {
		t.Fatalf("PendingCount() = %d, want 2", ch.PendingCount())
	}

	ch.Connect(context.Background())
	conn := dialer.next(t)
	waitFor(t, "open", func() bool { return ch.Status() == StatusOpen })

	types := conn.types()
	if len(types) != 2 || types[0] != "enter" || types[1] != "leave" {
		t.Fatalf("flushed types = %v, want [enter leave]", types)
	}
	if ch.PendingCount() != 0 {
		t.Errorf("PendingCount() after open = %d", ch.PendingCount())
	}
	if got := conn.messages()[0]["id"]; got != enter.ID {
		t.Errorf("enter id = %v, want %s", got, enter.ID)
	}

	ch.Ping()
	waitFor(t, "ping", func() bool { return len(conn.types()) == 3 })
	if conn.types()[2] != "ping" {
		t.Errorf("third message = %s, want ping", conn.types()[2])
	}
}

func TestChannelSendEnterMetadata(t *testing.T) {
	t.Parallel()

	dialer := newFakeDialer()
	meta := models.ClientMetadata{Device: DeviceDesktop, Browser: BrowserFirefox, Fingerprint: "fp12345678"}
	ch := newTestChannel(t, dialer, func(o *Options) {
		o.Metadata = func() models.ClientMetadata { return meta }
	})

	msg := ch.SendEnter()
	if !strings.HasPrefix(msg.ID, SessionIDPrefix) {
		t.Errorf("session id %q missing prefix", msg.ID)
	}
	if msg.Meta == nil || msg.Meta.Fingerprint != "fp12345678" {
		t.Errorf("Meta = %+v", msg.Meta)
	}
	if _, err := time.Parse(time.RFC3339Nano, msg.EnteredAt); err != nil {
		t.Errorf("EnteredAt %q is not a valid timestamp", msg.EnteredAt)
	}
	if id, ok := ch.SessionID(); !ok || id != msg.ID {
		t.Errorf("SessionID() = %q, %v", id, ok)
	}
	if leave := ch.SendLeave(); leave.ID != msg.ID {
		t.Errorf("leave id = %q, want %q", leave.ID, msg.ID)
	}
}

func TestChannelConnectIsIdempotent(t *testing.T) {
	t.Parallel()

	dialer := newFakeDialer()
	ch := newTestChannel(t, dialer, nil)

	ch.Connect(context.Background())
	ch.Connect(context.Background())
	dialer.next(t)
	waitFor(t, "open", func() bool { return ch.Status() == StatusOpen })
	ch.Connect(context.Background())

	if n := dialer.dials.Load(); n != 1 {
		t.Errorf("dials = %d, want 1", n)
	}
}

func TestChannelReconnectsAfterServerClose(t *testing.T) {
	t.Parallel()

	dialer := newFakeDialer()
	ch := newTestChannel(t, dialer, func(o *Options) { o.Reconnect = true })
	statuses := recordStatuses(ch)

	ch.Connect(context.Background())
	first := dialer.next(t)
	waitFor(t, "open", func() bool { return ch.Status() == StatusOpen })

	first.readErr <- ErrTransportClosed
	dialer.next(t)
	waitFor(t, "reopen", func() bool { return ch.Status() == StatusOpen })

	want := []Status{StatusConnecting, StatusOpen, StatusClosed, StatusConnecting, StatusOpen}
	if got := statuses.snapshot(); !statusesEqual(got, want...) {
		t.Errorf("statuses = %v, want %v", got, want)
	}
}

func TestChannelRetriesFailedDial(t *testing.T) {
	t.Parallel()

	dialer := newFakeDialer()
	dialer.failures.Store(2)
	ch := newTestChannel(t, dialer, func(o *Options) { o.Reconnect = true })
	statuses := recordStatuses(ch)

	ch.Connect(context.Background())
	dialer.next(t)
	waitFor(t, "open", func() bool { return ch.Status() == StatusOpen })

	if n := dialer.dials.Load(); n != 3 {
		t.Errorf("dials = %d, want 3", n)
	}
	want := []Status{
		StatusConnecting, StatusError,
		StatusConnecting, StatusError,
		StatusConnecting, StatusOpen,
	}
	if got := statuses.snapshot(); !statusesEqual(got, want...) {
		t.Errorf("statuses = %v, want %v", got, want)
	}
}

func TestChannelNoReconnectWhenDisabled(t *testing.T) {
	t.Parallel()

	dialer := newFakeDialer()
	ch := newTestChannel(t, dialer, nil)

	ch.Connect(context.Background())
	conn := dialer.next(t)
	waitFor(t, "open", func() bool { return ch.Status() == StatusOpen })

	conn.readErr <- errors.New("connection reset")
	waitFor(t, "error", func() bool { return ch.Status() == StatusError })

	time.Sleep(60 * time.Millisecond)
	if n := dialer.dials.Load(); n != 1 {
		t.Errorf("dials = %d, want 1", n)
	}

	ch.Connect(context.Background())
	dialer.next(t)
	waitFor(t, "manual reconnect", func() bool { return ch.Status() == StatusOpen })
}

func TestChannelDisconnectCancelsReconnect(t *testing.T) {
	t.Parallel()

	dialer := newFakeDialer()
	ch := newTestChannel(t, dialer, func(o *Options) {
		o.Reconnect = true
		o.ReconnectDelay = 40 * time.Millisecond
	})

	ch.Connect(context.Background())
	conn := dialer.next(t)
	waitFor(t, "open", func() bool { return ch.Status() == StatusOpen })

	conn.readErr <- ErrTransportClosed
	waitFor(t, "closed", func() bool { return ch.Status() == StatusClosed })

	ch.Disconnect()
	if ch.Status() != StatusIdle {
		t.Fatalf("status after Disconnect = %s, want idle", ch.Status())
	}

	time.Sleep(100 * time.Millisecond)
	if n := dialer.dials.Load(); n != 1 {
		t.Errorf("dials = %d, want 1", n)
	}
	if ch.Status() != StatusIdle {
		t.Errorf("status = %s, want idle", ch.Status())
	}
}

func TestChannelDisconnectWhileConnecting(t *testing.T) {
	t.Parallel()

	dialer := newFakeDialer()
	dialer.hold = make(chan struct{})
	ch := newTestChannel(t, dialer, func(o *Options) { o.Reconnect = true })

	ch.Connect(context.Background())
	waitFor(t, "dial", func() bool { return dialer.dials.Load() == 1 })

	ch.Disconnect()
	close(dialer.hold)

	time.Sleep(60 * time.Millisecond)
	if ch.Status() != StatusIdle {
		t.Errorf("status = %s, want idle", ch.Status())
	}
	if n := dialer.dials.Load(); n != 1 {
		t.Errorf("dials = %d, want 1", n)
	}
}

func TestChannelDisconnectClosesTransport(t *testing.T) {
	t.Parallel()

	dialer := newFakeDialer()
	ch := newTestChannel(t, dialer, nil)

	ch.Connect(context.Background())
	conn := dialer.next(t)
	waitFor(t, "open", func() bool { return ch.Status() == StatusOpen })

	ch.Disconnect()
	select {
	case <-conn.closed:
	case <-time.After(time.Second):
		t.Fatal("transport not closed on Disconnect")
	}

	ch.SendLeave()
	if ch.PendingCount() != 1 {
		t.Errorf("PendingCount() after disconnect = %d, want 1", ch.PendingCount())
	}
}

// slowCloseConn blocks in Close until released, like a close handshake
// against an unresponsive peer.
type slowCloseConn struct {
	*fakeConn
	closing chan struct{}
	release chan struct{}
}

func (c *slowCloseConn) Close() error {
	close(c.closing)
	<-c.release
	return c.fakeConn.Close()
}

type slowCloseDialer struct {
	conn *slowCloseConn
}

func (d *slowCloseDialer) Dial(context.Context, string) (Conn, error) {
	return d.conn, nil
}

func TestChannelSlowTransportCloseDoesNotBlockCallers(t *testing.T) {
	t.Parallel()

	conn := &slowCloseConn{
		fakeConn: newFakeConn(),
		closing:  make(chan struct{}),
		release:  make(chan struct{}),
	}
	ch := newTestChannel(t, &slowCloseDialer{conn: conn}, nil)
	var releaseOnce sync.Once
	release := func() { releaseOnce.Do(func() { close(conn.release) }) }
	t.Cleanup(release)

	ch.Connect(context.Background())
	waitFor(t, "open", func() bool { return ch.Status() == StatusOpen })

	disconnected := make(chan struct{})
	go func() {
		ch.Disconnect()
		close(disconnected)
	}()

	select {
	case <-conn.closing:
	case <-time.After(2 * time.Second):
		t.Fatal("transport close not started")
	}

	answered := make(chan struct{})
	go func() {
		_ = ch.Status()
		ch.SendLeave()
		_ = ch.PendingCount()
		close(answered)
	}()
	select {
	case <-answered:
	case <-time.After(time.Second):
		t.Fatal("channel calls blocked while the transport was closing")
	}

	if got := ch.Status(); got != StatusIdle {
		t.Errorf("Status() during close = %v, want %v", got, StatusIdle)
	}
	if got := ch.PendingCount(); got != 1 {
		t.Errorf("PendingCount() during close = %d, want 1", got)
	}

	release()
	select {
	case <-disconnected:
	case <-time.After(2 * time.Second):
		t.Fatal("Disconnect did not return after close completed")
	}
}

func TestChannelContextCancelDisconnects(t *testing.T) {
	t.Parallel()

	dialer := newFakeDialer()
	ch := newTestChannel(t, dialer, func(o *Options) { o.Reconnect = true })

	ctx, cancel := context.WithCancel(context.Background())
	ch.Connect(ctx)
	dialer.next(t)
	waitFor(t, "open", func() bool { return ch.Status() == StatusOpen })

	cancel()
	waitFor(t, "idle", func() bool { return ch.Status() == StatusIdle })
}

func TestChannelWriteFailureBuffersMessage(t *testing.T) {
	t.Parallel()

	dialer := newFakeDialer()
	ch := newTestChannel(t, dialer, nil)

	ch.Connect(context.Background())
	conn := dialer.next(t)
	waitFor(t, "open", func() bool { return ch.Status() == StatusOpen })

	conn.setWriteErr(errors.New("broken pipe"))
	ch.SendEnter()

	if ch.Status() != StatusError {
		t.Errorf("status = %s, want error", ch.Status())
	}
	if ch.PendingCount() != 1 {
		t.Errorf("PendingCount() = %d, want 1", ch.PendingCount())
	}

	ch.Connect(context.Background())
	next := dialer.next(t)
	waitFor(t, "open", func() bool { return ch.Status() == StatusOpen })
	if types := next.types(); len(types) != 1 || types[0] != "enter" {
		t.Errorf("flushed = %v, want [enter]", types)
	}
}

func TestChannelAppliesVisitorsAndIgnoresNoise(t *testing.T) {
	t.Parallel()

	dialer := newFakeDialer()
	ch := newTestChannel(t, dialer, nil)
	var applied recorder[[]models.VisitInterval]
	ch.OnVisitors(applied.add)

	ch.Connect(context.Background())
	conn := dialer.next(t)
	waitFor(t, "open", func() bool { return ch.Status() == StatusOpen })

	for _, raw := range []string{
		`not json`,
		`[1,2,3]`,
		`{"type":"visitors"}`,
		`{"type":"visitors","visitors":null}`,
		`{"type":"visitors","visitors":"nope"}`,
		`{"type":"pong","visitors":[]}`,
		`{"type":"visitors","visitors":[{"id":"a","start":"2024-05-01T10:00:00.000Z","end":"2024-05-01T10:30:00.000Z"}]}`,
	} {
		conn.incoming <- []byte(raw)
	}

	waitFor(t, "visitors", func() bool { return len(applied.snapshot()) > 0 })
	time.Sleep(20 * time.Millisecond)

	got := applied.snapshot()
	if len(got) != 1 {
		t.Fatalf("visitor applications = %d, want 1", len(got))
	}
	if len(got[0]) != 1 || got[0][0].ID != "a" {
		t.Errorf("visitors = %+v", got[0])
	}
	if v := ch.Visitors(); len(v) != 1 || v[0].ID != "a" {
		t.Errorf("Visitors() = %+v", v)
	}
	if ch.Status() != StatusOpen {
		t.Errorf("noise should not affect status, got %s", ch.Status())
	}
}

func TestChannelEmptyVisitorList(t *testing.T) {
	t.Parallel()

	dialer := newFakeDialer()
	ch := newTestChannel(t, dialer, nil)
	var applied recorder[[]models.VisitInterval]
	ch.OnVisitors(applied.add)

	ch.Connect(context.Background())
	conn := dialer.next(t)
	conn.incoming <- []byte(`{"type":"visitors","visitors":[{"id":"a","start":"2024-05-01T10:00:00Z","end":"2024-05-01T10:05:00Z"}]}`)
	conn.incoming <- []byte(`{"type":"visitors","visitors":[]}`)

	waitFor(t, "two lists", func() bool { return len(applied.snapshot()) == 2 })
	if v := ch.Visitors(); v == nil || len(v) != 0 {
		t.Errorf("Visitors() = %#v, want empty list", v)
	}
}

func TestChannelHeartbeat(t *testing.T) {
	t.Parallel()

	dialer := newFakeDialer()
	ch := newTestChannel(t, dialer, func(o *Options) { o.HeartbeatInterval = 15 * time.Millisecond })

	ch.Connect(context.Background())
	conn := dialer.next(t)
	waitFor(t, "pings", func() bool { return len(conn.types()) >= 2 })

	for _, msg := range conn.messages() {
		if msg["type"] != "ping" {
			t.Fatalf("unexpected message %v", msg)
		}
		if ts, ok := msg["ts"].(float64); !ok || ts <= 0 {
			t.Errorf("ping ts = %v", msg["ts"])
		}
	}

	ch.Disconnect()
	count := len(conn.types())
	time.Sleep(50 * time.Millisecond)
	if len(conn.types()) != count {
		t.Error("heartbeat continued after Disconnect")
	}
}

func TestChannelClockRunsWhileConnected(t *testing.T) {
	t.Parallel()

	dialer := newFakeDialer()
	ch := newTestChannel(t, dialer, nil)
	var ticks atomic.Int32
	ch.OnTick(func(time.Time) { ticks.Add(1) })

	ch.Connect(context.Background())
	waitFor(t, "ticks", func() bool { return ticks.Load() >= 2 })

	ch.Disconnect()
	ch.clock.Wait()
	stopped := ticks.Load()
	time.Sleep(40 * time.Millisecond)
	if ticks.Load() != stopped {
		t.Error("clock kept ticking after Disconnect")
	}
}
