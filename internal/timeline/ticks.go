// Visitline - Visitor Presence Timeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/visitline

package timeline

import (
	"strconv"
	"time"
)

// hourFloor truncates t to the start of its hour in loc.
func hourFloor(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, loc)
}

// hourTicks emits one tick per whole hour h with slot.start <= h < slot.end.
// A slot ending exactly on the hour does not get a tick for that end.
func hourTicks(axis []axisSlot, loc *time.Location) []HourTick {
	var ticks []HourTick
	for _, slot := range axis {
		start := time.UnixMilli(slot.startMs)
		h := hourFloor(start, loc)
		if h.Before(start) {
			h = h.Add(time.Hour)
		}
		for ms := h.UnixMilli(); ms < slot.endMs; ms = h.UnixMilli() {
			pct, ok := slot.position(ms)
			if ok {
				local := h.In(loc)
				ticks = append(ticks, HourTick{
					ID:      "tick-" + slot.id + "-" + strconv.FormatInt(ms, 10),
					Offset:  pct / 100,
					Label:   local.Format("15:04"),
					DateKey: local.Format("2006-01-02"),
					StartMs: ms,
				})
			}
			h = h.Add(time.Hour)
		}
	}
	return ticks
}
