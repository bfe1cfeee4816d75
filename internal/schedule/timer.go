// Visitline - Visitor Presence Timeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/visitline

// Package schedule provides cancellable one-shot timers.
//
// A Timer holds at most one pending callback. Scheduling again supersedes the
// pending run, and Cancel guarantees the superseded callback never fires even
// when its underlying time.Timer has already expired and is waiting for the
// lock. The presence channel uses it for reconnect delays and the visitor
// throttle; the zoom state uses it for its auto-clear delay.
package schedule

import (
	"sync"
	"time"
)

// Timer is a one-shot timer whose pending callback can be replaced or
// cancelled. The zero value is ready to use.
type Timer struct {
	mu    sync.Mutex
	timer *time.Timer
	gen   uint64
}

// Schedule runs fn once after d, cancelling any callback still pending.
// A non-positive d runs fn on its own goroutine as soon as possible.
func (t *Timer) Schedule(d time.Duration, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()
	t.gen++
	gen := t.gen
	if d < 0 {
		d = 0
	}
	t.timer = time.AfterFunc(d, func() {
		t.mu.Lock()
		if gen != t.gen {
			t.mu.Unlock()
			return
		}
		t.timer = nil
		t.mu.Unlock()
		fn()
	})
}

// Cancel drops the pending callback. It reports whether one was pending.
func (t *Timer) Cancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	pending := t.timer != nil
	t.stopLocked()
	t.gen++
	return pending
}

// Pending reports whether a callback is scheduled and has not yet started.
func (t *Timer) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timer != nil
}

func (t *Timer) stopLocked() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
