// Visitline - Visitor Presence Timeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/visitline

package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/visitline/internal/api"
	"github.com/tomtom215/visitline/internal/config"
	"github.com/tomtom215/visitline/internal/hub"
	"github.com/tomtom215/visitline/internal/models"
	"github.com/tomtom215/visitline/internal/presence"
	"github.com/tomtom215/visitline/internal/timeline"
)

func testConfig() *config.Config {
	return &config.Config{
		Presence: config.PresenceConfig{
			URL:               "ws://localhost:3001/ws",
			Reconnect:         true,
			ReconnectDelay:    2 * time.Second,
			HeartbeatInterval: 30 * time.Second,
			SessionPolicy:     "memory",
			HandshakeTimeout:  10 * time.Second,
			WriteTimeout:      10 * time.Second,
		},
		Clock:    config.ClockConfig{Mode: "wall", Interval: time.Second},
		Timeline: config.TimelineConfig{Timezone: "UTC", HourTicks: true},
		Zoom:     config.ZoomConfig{ClearDelay: 1200 * time.Millisecond},
		Server: config.ServerConfig{
			Host:              "127.0.0.1",
			Port:              3001,
			Timeout:           30 * time.Second,
			CORSOrigins:       []string{"https://app.example.com"},
			HubEnabled:        true,
			BroadcastInterval: 5 * time.Second,
			Retention:         24 * time.Hour,
		},
	}
}

func TestPresenceOptions(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	opts := presenceOptions(cfg, nil)

	if opts.URL != cfg.Presence.URL {
		t.Errorf("URL = %q, want %q", opts.URL, cfg.Presence.URL)
	}
	if !opts.Reconnect || opts.ReconnectDelay != 2*time.Second {
		t.Errorf("reconnect = %v/%v", opts.Reconnect, opts.ReconnectDelay)
	}
	if opts.HeartbeatInterval != 30*time.Second {
		t.Errorf("HeartbeatInterval = %v, want 30s", opts.HeartbeatInterval)
	}
	if opts.ClockMode != presence.ClockModeWall {
		t.Errorf("ClockMode = %q, want %q", opts.ClockMode, presence.ClockModeWall)
	}
	if opts.ClockInterval != time.Second {
		t.Errorf("ClockInterval = %v, want 1s", opts.ClockInterval)
	}
	if opts.Metadata != nil {
		t.Error("Metadata should be nil when send_metadata is off")
	}
}

func TestPresenceOptions_HeartbeatDisabled(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Presence.HeartbeatInterval = 0

	if got := presenceOptions(cfg, nil).HeartbeatInterval; got >= 0 {
		t.Errorf("HeartbeatInterval = %v, want negative", got)
	}
}

func TestPresenceOptions_Metadata(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Presence.Client = config.ClientConfig{
		SendMetadata: true,
		UserAgent:    "Mozilla/5.0 (Windows NT 10.0; Win64; x64) Chrome/120.0 Safari/537.36",
		Language:     "de-DE",
		Timezone:     "Europe/Berlin",
		ScreenWidth:  1920,
		ScreenHeight: 1080,
	}

	opts := presenceOptions(cfg, nil)
	if opts.Metadata == nil {
		t.Fatal("Metadata should be set when send_metadata is on")
	}

	meta := opts.Metadata()
	if meta.Language != "de-DE" || meta.Timezone != "Europe/Berlin" {
		t.Errorf("locale = %q/%q", meta.Language, meta.Timezone)
	}
	if meta.ScreenWidth != 1920 || meta.ScreenHeight != 1080 {
		t.Errorf("screen = %dx%d", meta.ScreenWidth, meta.ScreenHeight)
	}
	if meta.Fingerprint == "" {
		t.Error("Fingerprint should not be empty")
	}
	if again := opts.Metadata(); again.Fingerprint != meta.Fingerprint {
		t.Error("Fingerprint should be stable across calls")
	}
}

func TestClientEnvironment_HostFallback(t *testing.T) {
	t.Parallel()

	env := clientEnvironment(config.ClientConfig{})
	if env.UserAgent == "" {
		t.Error("UserAgent should fall back to the host description")
	}
	if env.Language == "" || env.Timezone == "" {
		t.Errorf("locale = %q/%q, want host values", env.Language, env.Timezone)
	}
}

func TestEngineConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		timezone string
		wantErr  bool
	}{
		{name: "utc", timezone: "UTC"},
		{name: "named zone", timezone: "America/New_York"},
		{name: "unknown zone", timezone: "Mars/Olympus_Mons", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := testConfig()
			cfg.Timeline.Timezone = tt.timezone

			got, err := engineConfig(cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Location.String() != tt.timezone {
				t.Errorf("Location = %q, want %q", got.Location, tt.timezone)
			}
			if !got.HourTicks {
				t.Error("HourTicks should carry over")
			}
		})
	}
}

func TestHubConfig(t *testing.T) {
	t.Parallel()

	got := hubConfig(testConfig())
	if got.BroadcastInterval != 5*time.Second || got.Retention != 24*time.Hour {
		t.Errorf("hub config = %+v", got)
	}
	if len(got.AllowedOrigins) != 1 || got.AllowedOrigins[0] != "https://app.example.com" {
		t.Errorf("AllowedOrigins = %v", got.AllowedOrigins)
	}
}

func TestNewHTTPServer(t *testing.T) {
	t.Parallel()

	handler := http.NotFoundHandler()
	srv := newHTTPServer(testConfig(), handler)

	if srv.Addr != "127.0.0.1:3001" {
		t.Errorf("Addr = %q, want 127.0.0.1:3001", srv.Addr)
	}
	if srv.WriteTimeout != 0 {
		t.Errorf("WriteTimeout = %v, want 0 for websocket connections", srv.WriteTimeout)
	}
	if srv.ReadHeaderTimeout == 0 {
		t.Error("ReadHeaderTimeout should be set")
	}
}

// loadDefaultConfig loads configuration with no file and none of the
// variables that would move the channel or the hub.
func loadDefaultConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv(config.ConfigPathEnvVar, "")
	for _, name := range []string{"PRESENCE_URL", "HTTP_HOST", "HTTP_PORT", "HUB_ENABLED", "CORS_ORIGINS"} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	return cfg
}

func TestDefaultPresenceURLReachesBundledHub(t *testing.T) {
	cfg := loadDefaultConfig(t)
	if !cfg.Server.HubEnabled {
		t.Fatal("the hub should be enabled by default")
	}

	target, err := url.Parse(cfg.Presence.URL)
	if err != nil {
		t.Fatalf("parse presence url: %v", err)
	}
	if target.Port() != "3001" || cfg.Server.Port != 3001 {
		t.Errorf("presence url %q should dial the server port %d", cfg.Presence.URL, cfg.Server.Port)
	}

	presenceHub := hub.New(hubConfig(cfg))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = presenceHub.RunWithContext(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for !presenceHub.Running() {
		if time.Now().After(deadline) {
			t.Fatal("hub did not start")
		}
		time.Sleep(5 * time.Millisecond)
	}

	channel, err := presence.New(presenceOptions(cfg, nil))
	if err != nil {
		t.Fatalf("presence.New: %v", err)
	}
	t.Cleanup(channel.Close)

	engineCfg, err := engineConfig(cfg)
	if err != nil {
		t.Fatalf("engineConfig: %v", err)
	}

	router := api.NewRouter(api.NewHandler(api.Dependencies{
		Channel: channel,
		Engine:  timeline.NewEngine(engineCfg),
		Hub:     presenceHub,
	}), api.RouterConfig{CORSOrigins: cfg.Server.CORSOrigins})
	srv := httptest.NewServer(router.Setup())
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + target.Path
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		t.Fatalf("dial default path %q: %v (HTTP %d)", target.Path, err, status)
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}

	var msg models.VisitorsMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if msg.Type != models.MessageTypeVisitors || msg.Visitors == nil {
		t.Errorf("snapshot = %s, want a visitors message", data)
	}
}
