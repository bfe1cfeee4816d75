// Visitline - Visitor Presence Timeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/visitline

/*
Package services provides suture.Service wrappers for Visitline components.

Each wrapper translates a component lifecycle into suture's context-aware
Serve pattern and names the service for supervisor logs:

  - HTTPServerService: ListenAndServe plus graceful Shutdown on cancel
  - HubService: delegates to hub.Hub.RunWithContext
  - PresenceService: connects the presence channel and announces the
    visit with enter; on cancel it sends leave and disconnects

The wrappers depend on small interfaces rather than the concrete types so
they can be tested with fakes.
*/
package services
