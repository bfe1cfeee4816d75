// Visitline - Visitor Presence Timeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/visitline

package config

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/tomtom215/visitline/internal/models"
)

// Config holds all application configuration.
type Config struct {
	Presence PresenceConfig `koanf:"presence"`
	Clock    ClockConfig    `koanf:"clock"`
	Timeline TimelineConfig `koanf:"timeline"`
	Zoom     ZoomConfig     `koanf:"zoom"`
	Server   ServerConfig   `koanf:"server"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// PresenceConfig configures the presence channel.
type PresenceConfig struct {
	URL       string `koanf:"url" validate:"required,wsurl"`
	Reconnect bool   `koanf:"reconnect"`

	ReconnectDelay time.Duration `koanf:"reconnect_delay" validate:"gt=0"`

	// HeartbeatInterval between pings while open; 0 disables pings.
	HeartbeatInterval time.Duration `koanf:"heartbeat_interval" validate:"gte=0"`

	// VisitorThrottle spaces applied visitor lists; 0 applies every list.
	VisitorThrottle time.Duration `koanf:"visitor_throttle" validate:"gte=0"`

	// MaxPending bounds the outbox; 0 means unbounded.
	MaxPending int `koanf:"max_pending" validate:"gte=0"`

	SessionPolicy    string `koanf:"session_policy" validate:"oneof=memory persistent"`
	SessionStorePath string `koanf:"session_store_path"`

	HandshakeTimeout time.Duration `koanf:"handshake_timeout" validate:"gt=0"`
	WriteTimeout     time.Duration `koanf:"write_timeout" validate:"gt=0"`

	Client ClientConfig `koanf:"client"`
}

// ClientConfig describes this process as a presence client. Empty fields
// are filled from the host environment.
type ClientConfig struct {
	SendMetadata bool   `koanf:"send_metadata"`
	UserAgent    string `koanf:"user_agent"`
	Language     string `koanf:"language"`
	Timezone     string `koanf:"timezone"`
	ScreenWidth  int    `koanf:"screen_width" validate:"gte=0"`
	ScreenHeight int    `koanf:"screen_height" validate:"gte=0"`
}

// ClockConfig configures the channel clock.
type ClockConfig struct {
	// Mode is "frame" (60 Hz loop, at most 30 publishes/s) or "wall".
	Mode string `koanf:"mode" validate:"oneof=frame wall"`

	// Interval is the wall mode tick interval.
	Interval time.Duration `koanf:"interval" validate:"gt=0"`
}

// TimelineConfig configures the layout engine.
type TimelineConfig struct {
	// Slots are the display windows. Empty selects a single slot spanning
	// the visits.
	Slots      []models.TimeSlot `koanf:"slots" validate:"dive"`
	Timezone   string            `koanf:"timezone" validate:"required,timezone"`
	HourTicks  bool              `koanf:"hour_ticks"`
	ReuseItems bool              `koanf:"reuse_items"`
}

// Location loads the configured time zone.
func (c TimelineConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timeline timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// ZoomConfig configures the zoom helper.
type ZoomConfig struct {
	ClearDelay time.Duration `koanf:"clear_delay" validate:"gt=0"`
}

// ServerConfig holds HTTP server and reference hub settings.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout     time.Duration `koanf:"timeout" validate:"gt=0"`
	CORSOrigins []string      `koanf:"cors_origins"`

	// RateLimitRequests per RateLimitWindow per client IP; 0 disables.
	RateLimitRequests int           `koanf:"rate_limit_requests" validate:"gte=0"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" validate:"gt=0"`

	HubEnabled        bool          `koanf:"hub_enabled"`
	BroadcastInterval time.Duration `koanf:"broadcast_interval" validate:"gt=0"`
	Retention         time.Duration `koanf:"retention" validate:"gt=0"`
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// LoggingConfig holds logging settings.
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: true/false - include caller file:line (default: false)
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"omitempty,oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// Load reads configuration from defaults, an optional config file and the
// environment. See LoadWithKoanf.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
