// Visitline - Visitor Presence Timeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/visitline

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/visitline/internal/models"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/visitline/config.yaml",
	"/etc/visitline/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Presence: PresenceConfig{
			URL:               "ws://localhost:3001/ws",
			Reconnect:         true,
			ReconnectDelay:    2 * time.Second,
			HeartbeatInterval: 30 * time.Second,
			VisitorThrottle:   0,
			MaxPending:        0,
			SessionPolicy:     "memory",
			SessionStorePath:  "./data/session",
			HandshakeTimeout:  10 * time.Second,
			WriteTimeout:      10 * time.Second,
			Client: ClientConfig{
				SendMetadata: true,
			},
		},
		Clock: ClockConfig{
			Mode:     "frame",
			Interval: 33 * time.Millisecond,
		},
		Timeline: TimelineConfig{
			Slots:      []models.TimeSlot{},
			Timezone:   "UTC",
			HourTicks:  true,
			ReuseItems: true,
		},
		Zoom: ZoomConfig{
			ClearDelay: 1200 * time.Millisecond,
		},
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              3001,
			Timeout:           30 * time.Second,
			CORSOrigins:       []string{"*"},
			RateLimitRequests: 100,
			RateLimitWindow:   time.Minute,
			HubEnabled:        true,
			BroadcastInterval: 5 * time.Second,
			Retention:         24 * time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any mapped setting
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars arrive as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps lowercased environment variable names to koanf paths.
var envMappings = map[string]string{
	// Presence channel
	"presence_url":                "presence.url",
	"presence_reconnect":          "presence.reconnect",
	"presence_reconnect_delay":    "presence.reconnect_delay",
	"presence_heartbeat_interval": "presence.heartbeat_interval",
	"presence_visitor_throttle":   "presence.visitor_throttle",
	"presence_max_pending":        "presence.max_pending",
	"presence_session_policy":     "presence.session_policy",
	"presence_session_store_path": "presence.session_store_path",
	"presence_handshake_timeout":  "presence.handshake_timeout",
	"presence_write_timeout":      "presence.write_timeout",

	// Client description
	"presence_send_metadata": "presence.client.send_metadata",
	"presence_user_agent":    "presence.client.user_agent",
	"presence_language":      "presence.client.language",
	"presence_timezone":      "presence.client.timezone",
	"presence_screen_width":  "presence.client.screen_width",
	"presence_screen_height": "presence.client.screen_height",

	// Clock
	"clock_mode":     "clock.mode",
	"clock_interval": "clock.interval",

	// Timeline
	"timeline_timezone":    "timeline.timezone",
	"timeline_hour_ticks":  "timeline.hour_ticks",
	"timeline_reuse_items": "timeline.reuse_items",

	// Zoom
	"zoom_clear_delay": "zoom.clear_delay",

	// Server and hub
	"http_host":              "server.host",
	"http_port":              "server.port",
	"http_timeout":           "server.timeout",
	"cors_origins":           "server.cors_origins",
	"http_rate_limit":        "server.rate_limit_requests",
	"http_rate_limit_window": "server.rate_limit_window",
	"hub_enabled":            "server.hub_enabled",
	"hub_broadcast_interval": "server.broadcast_interval",
	"hub_retention":          "server.retention",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - PRESENCE_URL -> presence.url
//   - HTTP_PORT -> server.port
//   - HUB_RETENTION -> server.retention
//
// Unmapped variables return "" and are skipped so unrelated environment
// does not leak into the configuration.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
