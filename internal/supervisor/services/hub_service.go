// Visitline - Visitor Presence Timeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/visitline

package services

import (
	"context"
)

// ContextHub is satisfied by *hub.Hub.
type ContextHub interface {
	RunWithContext(ctx context.Context) error
}

// HubService runs the presence hub under supervision.
type HubService struct {
	hub  ContextHub
	name string
}

// NewHubService creates the service.
func NewHubService(hub ContextHub) *HubService {
	return &HubService{
		hub:  hub,
		name: "presence-hub",
	}
}

// Serve implements suture.Service.
func (s *HubService) Serve(ctx context.Context) error {
	return s.hub.RunWithContext(ctx)
}

// String implements fmt.Stringer for supervisor logs.
func (s *HubService) String() string {
	return s.name
}
