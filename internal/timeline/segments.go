// Visitline - Visitor Presence Timeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/visitline

package timeline

import (
	"sort"
	"strconv"
	"time"
)

// clippedVisit is the portion of a visit inside one slot.
type clippedVisit struct {
	visit   *visitRange
	startMs int64
	endMs   int64
}

func overlaps(startA, endA, startB, endB int64) bool {
	return startA < endB && endA > startB
}

// clipVisits keeps the positive-length overlap of each visit with the slot.
func clipVisits(slot axisSlot, visits []visitRange) []clippedVisit {
	var clipped []clippedVisit
	for i := range visits {
		v := &visits[i]
		if !overlaps(v.startMs, v.endMs, slot.startMs, slot.endMs) {
			continue
		}
		c := clippedVisit{
			visit:   v,
			startMs: max(v.startMs, slot.startMs),
			endMs:   min(v.endMs, slot.endMs),
		}
		if c.endMs > c.startMs {
			clipped = append(clipped, c)
		}
	}
	return clipped
}

// boundaries returns the sorted distinct cut points of a slot.
func boundaries(slot axisSlot, clipped []clippedVisit, nowMs int64, hasNow bool) []int64 {
	seen := map[int64]struct{}{slot.startMs: {}, slot.endMs: {}}
	for _, c := range clipped {
		seen[c.startMs] = struct{}{}
		seen[c.endMs] = struct{}{}
	}
	if hasNow && nowMs > slot.startMs && nowMs < slot.endMs {
		seen[nowMs] = struct{}{}
	}

	points := make([]int64, 0, len(seen))
	for p := range seen {
		points = append(points, p)
	}
	sort.Slice(points, func(i, j int) bool { return points[i] < points[j] })
	return points
}

// segmentSlot splits one slot into visit items and gap items.
func segmentSlot(slot axisSlot, visits []visitRange, nowMs int64, hasNow bool, loc *time.Location) (segments, gaps []*Item) {
	clipped := clipVisits(slot, visits)
	points := boundaries(slot, clipped, nowMs, hasNow)

	for i := 0; i < len(points)-1; i++ {
		segStart, segEnd := points[i], points[i+1]
		if segEnd <= segStart {
			continue
		}

		var active []*visitRange
		for _, c := range clipped {
			if overlaps(c.startMs, c.endMs, segStart, segEnd) {
				active = append(active, c.visit)
			}
		}
		sort.SliceStable(active, func(a, b int) bool {
			if active[a].startMs != active[b].startMs {
				return active[a].startMs < active[b].startMs
			}
			return active[a].id < active[b].id
		})

		startPct := slot.pct(segStart)
		endPct := slot.pct(segEnd)
		heightPct := max(endPct-startPct, 0)

		if len(active) == 0 {
			gaps = append(gaps, &Item{
				Type:        ItemGap,
				ID:          "gap-" + strconv.FormatInt(segStart, 10),
				SegStart:    segStart,
				SegEnd:      segEnd,
				CenterRatio: (startPct + endPct) / 200,
				Style:       Style{Bottom: startPct, Height: heightPct, Left: 0, Width: 100},
			})
			continue
		}

		laneWidth := 100 / float64(len(active))
		hourStart := hourFloor(time.UnixMilli((segStart+segEnd)/2), loc).UnixMilli()
		for lane, v := range active {
			segments = append(segments, &Item{
				Type:             ItemVisit,
				ID:               v.id + "-" + strconv.FormatInt(segStart, 10),
				VisitID:          v.id,
				SegStart:         segStart,
				SegEnd:           segEnd,
				VisitFingerprint: v.fingerprint,
				CenterRatio:      (startPct + endPct) / 200,
				HourStartMs:      hourStart,
				Style: Style{
					Bottom: startPct,
					Height: heightPct,
					Left:   float64(lane) * laneWidth,
					Width:  laneWidth,
				},
			})
		}
	}
	return segments, gaps
}

// markContinuations flags segments that start exactly where the previous
// segment of the same visit ended.
func markContinuations(segments []*Item) {
	ordered := make([]*Item, len(segments))
	copy(ordered, segments)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].SegStart < ordered[j].SegStart })

	lastEnd := make(map[string]int64, len(segments))
	for _, seg := range ordered {
		prevEnd, ok := lastEnd[seg.VisitID]
		seg.IsContinuation = ok && prevEnd == seg.SegStart
		lastEnd[seg.VisitID] = seg.SegEnd
	}
}

// markEndings flags the segment holding each visit's maximum end.
func markEndings(segments []*Item) {
	maxEnd := make(map[string]int64, len(segments))
	for _, seg := range segments {
		if end, ok := maxEnd[seg.VisitID]; !ok || seg.SegEnd > end {
			maxEnd[seg.VisitID] = seg.SegEnd
		}
	}
	for _, seg := range segments {
		seg.IsLastSegment = seg.SegEnd == maxEnd[seg.VisitID]
	}
}
