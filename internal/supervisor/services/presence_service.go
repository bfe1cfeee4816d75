// Visitline - Visitor Presence Timeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/visitline

package services

import (
	"context"

	"github.com/tomtom215/visitline/internal/logging"
	"github.com/tomtom215/visitline/internal/models"
)

// PresenceChannel is satisfied by *presence.Channel.
type PresenceChannel interface {
	Connect(ctx context.Context)
	SendEnter() models.EnterMessage
	SendLeave() models.LeaveMessage
	Disconnect()
}

// PresenceService keeps this process's visit open for as long as it runs.
type PresenceService struct {
	channel PresenceChannel
	name    string
}

// NewPresenceService creates the service.
func NewPresenceService(channel PresenceChannel) *PresenceService {
	return &PresenceService{
		channel: channel,
		name:    "presence-channel",
	}
}

// Serve connects, sends enter and blocks until ctx is canceled. It then
// sends leave before disconnecting so the leave goes out on the open
// connection. The channel is connected with a context detached from ctx
// because cancellation would otherwise disconnect before the leave.
func (s *PresenceService) Serve(ctx context.Context) error {
	s.channel.Connect(context.WithoutCancel(ctx))
	enter := s.channel.SendEnter()
	logging.Info().Str("session_id", enter.ID).Str("entered_at", enter.EnteredAt).Msg("visit started")

	<-ctx.Done()

	leave := s.channel.SendLeave()
	s.channel.Disconnect()
	logging.Info().Str("session_id", leave.ID).Str("left_at", leave.LeftAt).Msg("visit ended")
	return ctx.Err()
}

// String implements fmt.Stringer for supervisor logs.
func (s *PresenceService) String() string {
	return s.name
}
