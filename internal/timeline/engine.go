// Visitline - Visitor Presence Timeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/visitline

package timeline

import (
	"time"

	"github.com/tomtom215/visitline/internal/metrics"
	"github.com/tomtom215/visitline/internal/models"
)

// EngineConfig configures an Engine.
type EngineConfig struct {
	TimeSlots  []models.TimeSlot
	Location   *time.Location
	HourTicks  bool
	ReuseItems bool
}

// Engine runs layouts against fixed slots, reusing unchanged items between calls.
type Engine struct {
	slots     []models.TimeSlot
	loc       *time.Location
	hourTicks bool
	cache     *ItemCache
}

// NewEngine creates an Engine.
func NewEngine(cfg EngineConfig) *Engine {
	e := &Engine{
		slots:     append([]models.TimeSlot(nil), cfg.TimeSlots...),
		loc:       cfg.Location,
		hourTicks: cfg.HourTicks,
	}
	if e.loc == nil {
		e.loc = time.UTC
	}
	if cfg.ReuseItems {
		e.cache = NewItemCache()
	}
	return e
}

// Layout lays out visits at now using the engine's slots.
func (e *Engine) Layout(visits []models.VisitInterval, now time.Time) Result {
	start := time.Now()
	result := layout(Input{
		Visits:    visits,
		TimeSlots: e.slots,
		Now:       now,
		Location:  e.loc,
		HourTicks: e.hourTicks,
	}, e.cache)

	visitCount, gapCount := result.Counts()
	metrics.RecordTimelineLayout(time.Since(start), visitCount, gapCount)
	if e.cache != nil {
		metrics.RecordTimelineReuse(result.Reused)
	}
	return result
}

// TimeSlots returns a copy of the configured slots.
func (e *Engine) TimeSlots() []models.TimeSlot {
	return append([]models.TimeSlot(nil), e.slots...)
}

// Location returns the tick location.
func (e *Engine) Location() *time.Location {
	return e.loc
}
