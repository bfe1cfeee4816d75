// Visitline - Visitor Presence Timeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/visitline

package timeline

// FallbackSlotID identifies the synthetic slot used when no slots are configured.
const FallbackSlotID = "slot-fallback"

// axisSlot is a slot placed on the concatenated percentage axis.
type axisSlot struct {
	slotRange
	durationMs int64
	startPct   float64
	heightPct  float64
}

// buildSlots returns the configured slots, or a single slot spanning the
// earliest visit start to the latest visit end.
func buildSlots(slots []slotRange, visits []visitRange) []slotRange {
	if len(slots) > 0 {
		return slots
	}
	if len(visits) == 0 {
		return nil
	}
	endMs := visits[0].endMs
	for _, v := range visits[1:] {
		if v.endMs > endMs {
			endMs = v.endMs
		}
	}
	return []slotRange{{id: FallbackSlotID, startMs: visits[0].startMs, endMs: endMs}}
}

// buildAxis stacks slots end to end. Each slot's height is its share of the
// total duration of all slots.
func buildAxis(slots []slotRange) []axisSlot {
	var totalMs int64
	for _, s := range slots {
		totalMs += s.endMs - s.startMs
	}
	if totalMs < 1 {
		totalMs = 1
	}

	axis := make([]axisSlot, 0, len(slots))
	var offsetMs int64
	for _, s := range slots {
		durationMs := s.endMs - s.startMs
		axis = append(axis, axisSlot{
			slotRange:  s,
			durationMs: durationMs,
			startPct:   float64(offsetMs) / float64(totalMs) * 100,
			heightPct:  float64(durationMs) / float64(totalMs) * 100,
		})
		offsetMs += durationMs
	}
	return axis
}

// position maps ms inside the half-open slot interval [start, end) to the axis.
func (s axisSlot) position(ms int64) (float64, bool) {
	if ms < s.startMs || ms >= s.endMs {
		return 0, false
	}
	return s.pct(ms), true
}

// pct maps any ms within [start, end] to the axis. The slot end maps to the
// top of the slot so the last sub-interval of a slot keeps its height.
func (s axisSlot) pct(ms int64) float64 {
	if ms >= s.endMs {
		return s.startPct + s.heightPct
	}
	offsetMs := ms - s.startMs
	return s.startPct + float64(offsetMs)/float64(s.durationMs)*s.heightPct
}

// axisPosition maps ms to the axis ratio (0..1) using the first slot containing it.
func axisPosition(axis []axisSlot, ms int64) (float64, bool) {
	for _, s := range axis {
		if pct, ok := s.position(ms); ok {
			return pct / 100, true
		}
	}
	return 0, false
}
