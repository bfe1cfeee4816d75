// Visitline - Visitor Presence Timeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/visitline

// Package zoom tracks the zoom interaction flags of a timeline view.
//
// "Zooming" is a transient flag: SetZoomingFor raises it and (re)starts a
// timer that lowers it again unless another zoom gesture arrives first.
// "Zoomed" is a plain flag for views that stay magnified.
package zoom

import (
	"sync"
	"time"

	"github.com/tomtom215/visitline/internal/schedule"
)

// DefaultClearDelay is how long the zooming flag stays raised after a gesture.
const DefaultClearDelay = 1200 * time.Millisecond

// Snapshot is the observable value of a State.
type Snapshot struct {
	Zooming bool `json:"zooming"`
	Zoomed  bool `json:"zoomed"`
}

// State holds the zoom flags.
type State struct {
	mu         sync.Mutex
	zooming    bool
	zoomed     bool
	clearDelay time.Duration
	timer      schedule.Timer
	observers  []func(Snapshot)
}

// New creates a State. A non-positive delay selects DefaultClearDelay.
func New(clearDelay time.Duration) *State {
	if clearDelay <= 0 {
		clearDelay = DefaultClearDelay
	}
	return &State{clearDelay: clearDelay}
}

// IsZooming reports whether a zoom gesture is in progress.
func (s *State) IsZooming() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.zooming
}

// IsZoomed reports whether the view is zoomed in.
func (s *State) IsZoomed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.zoomed
}

// Snapshot returns both flags.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{Zooming: s.zooming, Zoomed: s.zoomed}
}

// SetZooming sets the zooming flag without touching the clear timer.
func (s *State) SetZooming(v bool) {
	s.update(func() { s.zooming = v })
}

// SetZoomed sets the zoomed flag.
func (s *State) SetZoomed(v bool) {
	s.update(func() { s.zoomed = v })
}

// SetZoomingFor raises the zooming flag and restarts the clear timer.
func (s *State) SetZoomingFor() {
	s.update(func() { s.zooming = true })
	s.timer.Schedule(s.clearDelay, func() {
		s.update(func() { s.zooming = false })
	})
}

// Stop cancels a pending clear. The flags keep their current values.
func (s *State) Stop() {
	s.timer.Cancel()
}

// OnChange registers fn to be called after every flag change.
func (s *State) OnChange(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

func (s *State) update(mutate func()) {
	s.mu.Lock()
	before := Snapshot{Zooming: s.zooming, Zoomed: s.zoomed}
	mutate()
	after := Snapshot{Zooming: s.zooming, Zoomed: s.zoomed}
	observers := append([]func(Snapshot){}, s.observers...)
	s.mu.Unlock()

	if before == after {
		return
	}
	for _, fn := range observers {
		fn(after)
	}
}
