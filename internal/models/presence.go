// Visitline - Visitor Presence Timeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/visitline

package models

import (
	"time"
)

// Presence message types.
const (
	MessageTypeEnter    = "enter"
	MessageTypeLeave    = "leave"
	MessageTypePing     = "ping"
	MessageTypePong     = "pong"
	MessageTypeVisitors = "visitors"
)

// TimestampLayout is the wire format of presence timestamps.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatTimestamp renders t as a millisecond precision UTC ISO-8601 string.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ClientMetadata describes the environment of a presence client.
// It is attached to the enter message and summarized by Fingerprint.
type ClientMetadata struct {
	UserAgent    string `json:"userAgent"`
	Device       string `json:"device"`
	Browser      string `json:"browser"`
	Language     string `json:"language"`
	Timezone     string `json:"timezone"`
	ScreenWidth  int    `json:"screenWidth"`
	ScreenHeight int    `json:"screenHeight"`
	Fingerprint  string `json:"fingerprint"`
}

// EnterMessage announces the start of a visit.
type EnterMessage struct {
	Type      string          `json:"type"`
	ID        string          `json:"id"`
	EnteredAt string          `json:"enteredAt"`
	Meta      *ClientMetadata `json:"meta,omitempty"`
}

// LeaveMessage announces the end of a visit.
type LeaveMessage struct {
	Type   string `json:"type"`
	ID     string `json:"id"`
	LeftAt string `json:"leftAt"`
}

// PingMessage is the keepalive sent by clients. TS is unix milliseconds.
type PingMessage struct {
	Type string `json:"type"`
	TS   int64  `json:"ts"`
}

// PongMessage answers a PingMessage and echoes its TS.
type PongMessage struct {
	Type string `json:"type"`
	TS   int64  `json:"ts"`
}

// VisitorsMessage carries the full visitor list pushed by the server.
// Visitors is a pointer so a missing or null list can be told apart
// from an empty one.
type VisitorsMessage struct {
	Type     string           `json:"type"`
	Visitors *[]VisitInterval `json:"visitors"`
}

// Envelope is used to peek at the type of an inbound message.
type Envelope struct {
	Type string `json:"type"`
}
