// Visitline - Visitor Presence Timeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/visitline

package presence

import (
	"fmt"
	"net/url"
	"time"

	"github.com/tomtom215/visitline/internal/models"
)

// Defaults applied by New when the corresponding option is zero.
const (
	DefaultURL               = "ws://localhost:3001"
	DefaultReconnectDelay    = 2 * time.Second
	DefaultHeartbeatInterval = 30 * time.Second
	DefaultHandshakeTimeout  = 10 * time.Second
	DefaultWriteTimeout      = 10 * time.Second
)

// Options configures a Channel.
type Options struct {
	// URL of the presence server (ws:// or wss://). Empty selects DefaultURL.
	URL string

	// Reconnect retries lost connections after ReconnectDelay, indefinitely.
	Reconnect      bool
	ReconnectDelay time.Duration

	// HeartbeatInterval between pings while open. Negative disables pings.
	HeartbeatInterval time.Duration

	// VisitorThrottle is the minimum spacing between applied visitor lists.
	// Zero applies every list as it arrives.
	VisitorThrottle time.Duration

	// MaxPending bounds the outbox; zero means unbounded.
	MaxPending int

	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration

	ClockInterval time.Duration
	ClockMode     ClockMode

	// Sessions owns the session id. Nil uses an in-memory manager.
	Sessions *SessionManager

	// Metadata is attached to enter messages when set.
	Metadata func() models.ClientMetadata

	// Dialer opens transports. Nil uses a WebSocketDialer.
	Dialer Dialer
}

// DefaultOptions returns options with reconnection enabled and every
// duration at its default.
func DefaultOptions() Options {
	return Options{
		URL:               DefaultURL,
		Reconnect:         true,
		ReconnectDelay:    DefaultReconnectDelay,
		HeartbeatInterval: DefaultHeartbeatInterval,
		HandshakeTimeout:  DefaultHandshakeTimeout,
		WriteTimeout:      DefaultWriteTimeout,
		ClockInterval:     DefaultClockInterval,
		ClockMode:         ClockModeFrame,
	}
}

func (o *Options) applyDefaults() {
	if o.URL == "" {
		o.URL = DefaultURL
	}
	if o.ReconnectDelay <= 0 {
		o.ReconnectDelay = DefaultReconnectDelay
	}
	if o.HeartbeatInterval == 0 {
		o.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if o.HandshakeTimeout <= 0 {
		o.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = DefaultWriteTimeout
	}
	if o.ClockInterval <= 0 {
		o.ClockInterval = DefaultClockInterval
	}
	if o.ClockMode == "" {
		o.ClockMode = ClockModeFrame
	}
}

// ValidateURL checks that raw is an absolute ws:// or wss:// URL.
func ValidateURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if parsed.Scheme != "ws" && parsed.Scheme != "wss" {
		return fmt.Errorf("%w: scheme must be ws or wss, got %q", ErrInvalidURL, parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	return nil
}
