// Visitline - Visitor Presence Timeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/visitline

package timeline

import (
	"strconv"
)

// ItemType distinguishes visit segments from gaps.
type ItemType string

const (
	ItemVisit ItemType = "visit"
	ItemGap   ItemType = "gap"
)

// Style positions an item on the timeline. All values are percentages:
// Bottom and Height along the time axis, Left and Width across lanes.
type Style struct {
	Bottom float64 `json:"bottom"`
	Height float64 `json:"height"`
	Left   float64 `json:"left"`
	Width  float64 `json:"width"`
}

// CSS renders the style as percentage strings keyed by CSS property.
func (s Style) CSS() map[string]string {
	return map[string]string{
		"bottom": percent(s.Bottom),
		"height": percent(s.Height),
		"left":   percent(s.Left),
		"width":  percent(s.Width),
	}
}

func percent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "%"
}

// Item is one positioned render segment. Gap items leave the visit fields empty.
//
// Item is comparable; two items with equal values render identically.
type Item struct {
	Type             ItemType `json:"type"`
	ID               string   `json:"id"`
	VisitID          string   `json:"visitId,omitempty"`
	SegStart         int64    `json:"segStart"`
	SegEnd           int64    `json:"segEnd"`
	VisitFingerprint string   `json:"visitFingerprint,omitempty"`
	IsContinuation   bool     `json:"isContinuation"`
	IsLastSegment    bool     `json:"isLastSegment"`
	CenterRatio      float64  `json:"centerRatio"`
	HourStartMs      int64    `json:"hourStartMs,omitempty"`
	Style            Style    `json:"style"`
}

// HourTick marks a whole hour inside a slot.
type HourTick struct {
	ID      string  `json:"id"`
	Offset  float64 `json:"offset"`
	Label   string  `json:"label"`
	DateKey string  `json:"dateKey"`
	StartMs int64   `json:"startMs"`
}
