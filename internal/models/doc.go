// Visitline - Visitor Presence Timeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/visitline

/*
Package models defines the data structures shared by Visitline packages.

The package holds the presence wire protocol exchanged between browser tabs
(or any other presence client) and the presence server, the visit and time
slot records consumed by the timeline layout engine, and the standard HTTP
response envelope used by every API endpoint.

Wire Protocol:

  - EnterMessage: client announces a visit with its session id and metadata
  - LeaveMessage: client announces the end of its visit
  - PingMessage / PongMessage: keepalive exchange
  - VisitorsMessage: server pushes the full current visitor list

Timestamps on the wire are ISO-8601 strings in UTC with millisecond
precision (for example "2024-01-01T10:00:00.000Z"), see FormatTimestamp.

Thread Safety:

All model types are plain value types without internal synchronization.
Callers that share instances across goroutines must copy or guard them.
*/
package models
