// Visitline - Visitor Presence Timeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/visitline

package main

import (
	"net/http"
	"time"

	"github.com/tomtom215/visitline/internal/api"
	"github.com/tomtom215/visitline/internal/config"
	"github.com/tomtom215/visitline/internal/hub"
	"github.com/tomtom215/visitline/internal/models"
	"github.com/tomtom215/visitline/internal/presence"
	"github.com/tomtom215/visitline/internal/timeline"
)

// clientEnvironment describes this process as a presence client. Config
// values override what is detected from the host.
func clientEnvironment(c config.ClientConfig) presence.Environment {
	env := presence.HostEnvironment(api.Version)
	if c.UserAgent != "" {
		env.UserAgent = c.UserAgent
	}
	if c.Language != "" {
		env.Language = c.Language
	}
	if c.Timezone != "" {
		env.Timezone = c.Timezone
	}
	env.ScreenWidth = c.ScreenWidth
	env.ScreenHeight = c.ScreenHeight
	return env
}

// presenceOptions maps configuration onto channel options.
func presenceOptions(cfg *config.Config, sessions *presence.SessionManager) presence.Options {
	p := cfg.Presence
	opts := presence.Options{
		URL:               p.URL,
		Reconnect:         p.Reconnect,
		ReconnectDelay:    p.ReconnectDelay,
		HeartbeatInterval: p.HeartbeatInterval,
		VisitorThrottle:   p.VisitorThrottle,
		MaxPending:        p.MaxPending,
		HandshakeTimeout:  p.HandshakeTimeout,
		WriteTimeout:      p.WriteTimeout,
		ClockInterval:     cfg.Clock.Interval,
		ClockMode:         presence.ClockMode(cfg.Clock.Mode),
		Sessions:          sessions,
	}
	// Zero disables the heartbeat in configuration; the channel uses a
	// negative interval for that.
	if p.HeartbeatInterval == 0 {
		opts.HeartbeatInterval = -1
	}
	if p.Client.SendMetadata {
		meta := presence.BuildMetadata(clientEnvironment(p.Client))
		opts.Metadata = func() models.ClientMetadata { return meta }
	}
	return opts
}

// engineConfig maps configuration onto the timeline engine.
func engineConfig(cfg *config.Config) (timeline.EngineConfig, error) {
	loc, err := cfg.Timeline.Location()
	if err != nil {
		return timeline.EngineConfig{}, err
	}
	return timeline.EngineConfig{
		TimeSlots:  cfg.Timeline.Slots,
		Location:   loc,
		HourTicks:  cfg.Timeline.HourTicks,
		ReuseItems: cfg.Timeline.ReuseItems,
	}, nil
}

func hubConfig(cfg *config.Config) hub.Config {
	return hub.Config{
		BroadcastInterval: cfg.Server.BroadcastInterval,
		Retention:         cfg.Server.Retention,
		AllowedOrigins:    cfg.Server.CORSOrigins,
	}
}

// newHTTPServer builds the server. Write timeouts stay off because /ws
// connections are long lived; JSON handlers are bounded by the router.
func newHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
