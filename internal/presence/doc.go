// Visitline - Visitor Presence Timeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/visitline

/*
Package presence implements the client side of the visitor presence protocol.

A Channel keeps one websocket connection to a presence server, announces the
local visit (enter/leave), sends keepalive pings, and exposes the visitor list
pushed by the server together with a ticking clock for live timeline views.

# Lifecycle

The connection lifecycle is an explicit state machine (see Transition):

	idle ──Connect──▶ connecting ──Open──▶ open
	                      │                  │
	                    Error              Close/Error
	                      ▼                  ▼
	                    error ◀──────────▶ closed
	                      └──(reconnect delay)──▶ connecting

Disconnect moves any state back to idle, cancels the reconnect timer, stops
the heartbeat and the clock, and closes the transport. It is the only way to
leave the reconnect loop.

# Outbound Messages

Messages sent while the transport is not open are buffered in an Outbox and
flushed in order as soon as the connection opens. The buffer is unbounded
unless Options.MaxPending is set, in which case the oldest message is dropped
when it is full.

# Inbound Messages

Only {"type":"visitors","visitors":[...]} updates the visitor list. Anything
else, including malformed JSON, is ignored and logged at debug level.
Updates may be spaced out with Options.VisitorThrottle.

# Session Identity

Each channel announces itself with a session id ("tab_" followed by eight
base-36 characters) kept by a SessionManager. The memory policy keeps the id
for the life of the process; the persistent policy stores it in badger so a
restarted process keeps its identity.

# Thread Safety

All Channel methods are safe for concurrent use. Observer callbacks run on
the channel's internal goroutines and must not block.
*/
package presence
