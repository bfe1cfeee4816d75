// Visitline - Visitor Presence Timeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/visitline

// Package main is the entry point for the Visitline server.
//
// Visitline keeps a live timeline of visitor presence. The server joins a
// presence hub as a client (announcing its own visit), keeps the visitor
// list the hub pushes, and serves that list and its timeline layout over
// HTTP. It can also run the hub itself.
//
// # Application Architecture
//
// Components are built in this order:
//
//  1. Configuration: defaults, config.yaml, environment (koanf v2)
//  2. Logging: zerolog with the configured level and format
//  3. Session manager: memory or BadgerDB backed session id
//  4. Presence channel: websocket client with reconnect and heartbeat
//  5. Timeline engine and zoom state
//  6. Presence hub (optional, HUB_ENABLED)
//  7. HTTP router (chi)
//  8. Supervisor tree (suture v4): messaging layer with the hub and the
//     channel, API layer with the HTTP server
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the tree. The channel sends leave before it
// disconnects and the HTTP server drains in-flight requests.
//
// # Example Usage
//
// Run a hub and report into it:
//
//	export PRESENCE_URL=ws://localhost:3001/ws
//	./visitline
//
// Report into a remote hub with a persistent identity:
//
//	export PRESENCE_URL=wss://presence.example.com/ws
//	export PRESENCE_SESSION_POLICY=persistent
//	export PRESENCE_SESSION_STORE_PATH=/var/lib/visitline/session
//	export HUB_ENABLED=false
//	./visitline
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/visitline/internal/api"
	"github.com/tomtom215/visitline/internal/config"
	"github.com/tomtom215/visitline/internal/hub"
	"github.com/tomtom215/visitline/internal/logging"
	"github.com/tomtom215/visitline/internal/models"
	"github.com/tomtom215/visitline/internal/presence"
	"github.com/tomtom215/visitline/internal/supervisor"
	"github.com/tomtom215/visitline/internal/supervisor/services"
	"github.com/tomtom215/visitline/internal/timeline"
	"github.com/tomtom215/visitline/internal/zoom"
)

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("Visitline failed")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	logging.Info().
		Str("presence_url", cfg.Presence.URL).
		Str("session_policy", cfg.Presence.SessionPolicy).
		Bool("hub_enabled", cfg.Server.HubEnabled).
		Str("addr", cfg.Server.Addr()).
		Msg("Configuration loaded")

	sessions, err := presence.OpenSessionManager(presence.SessionPolicy(cfg.Presence.SessionPolicy), cfg.Presence.SessionStorePath)
	if err != nil {
		return err
	}
	defer func() {
		if err := sessions.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing session store")
		}
	}()

	channel, err := presence.New(presenceOptions(cfg, sessions))
	if err != nil {
		return err
	}
	defer channel.Close()

	channel.OnStatus(func(status presence.Status) {
		logging.Info().Str("status", string(status)).Msg("Presence status changed")
	})
	channel.OnVisitors(func(visitors []models.VisitInterval) {
		logging.Debug().Int("visitors", len(visitors)).Msg("Visitor list updated")
	})

	engineCfg, err := engineConfig(cfg)
	if err != nil {
		return err
	}
	engine := timeline.NewEngine(engineCfg)

	zoomState := zoom.New(cfg.Zoom.ClearDelay)
	defer zoomState.Stop()
	zoomState.OnChange(func(s zoom.Snapshot) {
		logging.Debug().Bool("zooming", s.Zooming).Bool("zoomed", s.Zoomed).Msg("Zoom state changed")
	})

	deps := api.Dependencies{
		Channel: channel,
		Engine:  engine,
		Zoom:    zoomState,
	}

	var presenceHub *hub.Hub
	if cfg.Server.HubEnabled {
		presenceHub = hub.New(hubConfig(cfg))
		deps.Hub = presenceHub
	}

	router := api.NewRouter(api.NewHandler(deps), api.RouterConfig{
		CORSOrigins: cfg.Server.CORSOrigins,
		Timeout:     cfg.Server.Timeout,

		RateLimitRequests: cfg.Server.RateLimitRequests,
		RateLimitWindow:   cfg.Server.RateLimitWindow,
	})
	server := newHTTPServer(cfg, router.Setup())

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		return err
	}

	if presenceHub != nil {
		tree.AddMessagingService(services.NewHubService(presenceHub))
		logging.Info().Msg("Presence hub added to supervisor tree")
	}
	tree.AddMessagingService(services.NewPresenceService(channel))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.Timeout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Visitline stopped")
	return nil
}
