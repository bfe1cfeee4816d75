// Visitline - Visitor Presence Timeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/visitline

package presence

import (
	"errors"
)

var (
	// ErrInvalidURL is returned by New when the presence URL is not a ws:// or wss:// URL.
	ErrInvalidURL = errors.New("invalid presence url")

	// ErrSessionNotFound is returned by SessionStore.Get when no value is stored.
	ErrSessionNotFound = errors.New("session not found")

	// ErrTransportClosed marks a read error caused by an orderly close of the transport.
	ErrTransportClosed = errors.New("transport closed")
)
