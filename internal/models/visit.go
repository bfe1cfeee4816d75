// Visitline - Visitor Presence Timeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/visitline

package models

// VisitInterval is one continuous span of presence.
// Start and End are ISO-8601 timestamps; an ongoing visit reports the
// current time as its End.
type VisitInterval struct {
	ID          string `json:"id"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Fingerprint string `json:"fingerprint,omitempty"`
}

// TimeSlot is a display window of the timeline.
type TimeSlot struct {
	ID    string `json:"id" koanf:"id" validate:"required"`
	Start string `json:"start" koanf:"start" validate:"required,timestamp"`
	End   string `json:"end" koanf:"end" validate:"required,timestamp"`
}
