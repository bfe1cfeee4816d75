// Visitline - Visitor Presence Timeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/visitline

package timeline

import (
	"sort"
	"strings"
	"time"

	"github.com/tomtom215/visitline/internal/models"
)

// timestampLayouts are tried in order. Layouts without a zone parse as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 style timestamp into epoch milliseconds.
func ParseTimestamp(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UnixMilli(), true
		}
	}
	return 0, false
}

type visitRange struct {
	id          string
	fingerprint string
	startMs     int64
	endMs       int64
}

type slotRange struct {
	id      string
	startMs int64
	endMs   int64
}

func parseRange(start, end string) (int64, int64, bool) {
	startMs, ok := ParseTimestamp(start)
	if !ok {
		return 0, 0, false
	}
	endMs, ok := ParseTimestamp(end)
	if !ok || endMs <= startMs {
		return 0, 0, false
	}
	return startMs, endMs, true
}

// normalizeVisits drops unparsable or empty visits and sorts the rest by start.
func normalizeVisits(visits []models.VisitInterval) []visitRange {
	out := make([]visitRange, 0, len(visits))
	for _, v := range visits {
		startMs, endMs, ok := parseRange(v.Start, v.End)
		if !ok {
			continue
		}
		out = append(out, visitRange{id: v.ID, fingerprint: v.Fingerprint, startMs: startMs, endMs: endMs})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].startMs < out[j].startMs })
	return out
}

// normalizeSlots drops unparsable or empty slots and sorts the rest by start.
func normalizeSlots(slots []models.TimeSlot) []slotRange {
	out := make([]slotRange, 0, len(slots))
	for _, s := range slots {
		startMs, endMs, ok := parseRange(s.Start, s.End)
		if !ok {
			continue
		}
		out = append(out, slotRange{id: s.ID, startMs: startMs, endMs: endMs})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].startMs < out[j].startMs })
	return out
}
