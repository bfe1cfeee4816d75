// Visitline - Visitor Presence Timeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/visitline

/*
Package hub is a reference presence server: the counterpart the presence
channel talks to.

Clients connect over websocket and send enter, leave and ping messages.
The hub turns enter/leave pairs into visit intervals and broadcasts the
full list as a visitors message whenever it changes and on a fixed
interval, so open visits keep growing on every client timeline.

# Visits

  - enter opens a visit with id "<sessionId>-<enteredAtMs>"; entering a
    session that already has an open visit only moves ownership to the new
    connection
  - leave closes the session's open visit
  - a dropped connection closes every visit it opened
  - open visits report the current server time as their end
  - closed visits older than the retention window are pruned

Timestamps come from the client when they parse, else from the server
clock.

# Concurrency

A single goroutine (RunWithContext) owns the client set and applies all
registry changes. Each connection runs a read pump and a write pump. Slow
clients whose send buffer fills are dropped instead of blocking the hub.
*/
package hub
