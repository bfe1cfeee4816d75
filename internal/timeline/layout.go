// Visitline - Visitor Presence Timeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/visitline

package timeline

import (
	"sort"
	"time"

	"github.com/tomtom215/visitline/internal/models"
)

// Input is the data a layout is computed from.
type Input struct {
	Visits    []models.VisitInterval
	TimeSlots []models.TimeSlot

	// Now adds a cut point when it falls strictly inside a slot.
	// The zero value means no current time.
	Now time.Time

	// Location is used for hour ticks and HourStartMs. Nil means UTC.
	Location *time.Location

	HourTicks bool
}

// Result is a computed layout.
type Result struct {
	Items     []*Item    `json:"items"`
	HourTicks []HourTick `json:"hourTicks,omitempty"`

	// NowOffset is the axis ratio (0..1) of Input.Now, valid when HasNow is set.
	NowOffset float64 `json:"nowOffset,omitempty"`
	HasNow    bool    `json:"hasNow"`

	// Reused counts items served from the engine's item cache.
	Reused int `json:"-"`
}

// Counts returns the number of visit and gap items.
func (r Result) Counts() (visits, gaps int) {
	for _, item := range r.Items {
		if item.Type == ItemVisit {
			visits++
		} else {
			gaps++
		}
	}
	return visits, gaps
}

// Layout computes the render items for in. It never fails: malformed visits
// and slots are dropped.
func Layout(in Input) Result {
	return layout(in, nil)
}

func layout(in Input, cache *ItemCache) Result {
	loc := in.Location
	if loc == nil {
		loc = time.UTC
	}
	hasNow := !in.Now.IsZero()
	nowMs := in.Now.UnixMilli()

	visits := normalizeVisits(in.Visits)
	slots := buildSlots(normalizeSlots(in.TimeSlots), visits)
	axis := buildAxis(slots)

	var segments, gaps []*Item
	for _, slot := range axis {
		s, g := segmentSlot(slot, visits, nowMs, hasNow, loc)
		segments = append(segments, s...)
		gaps = append(gaps, g...)
	}

	markContinuations(segments)
	markEndings(segments)

	items := make([]*Item, 0, len(segments)+len(gaps))
	items = append(items, segments...)
	items = append(items, gaps...)
	reused := 0
	if cache != nil {
		items, reused = cache.Reuse(items)
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].SegStart < items[j].SegStart })

	result := Result{Items: items, Reused: reused}
	if in.HourTicks {
		result.HourTicks = hourTicks(axis, loc)
	}
	if hasNow {
		result.NowOffset, result.HasNow = axisPosition(axis, nowMs)
	}
	return result
}
