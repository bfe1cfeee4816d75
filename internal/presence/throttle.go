// Visitline - Visitor Presence Timeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/visitline

package presence

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/visitline/internal/schedule"
)

// Throttle spaces out applications of a value. The first value applies
// immediately; values arriving inside the spacing window are coalesced and
// the latest one applies when the window ends.
type Throttle[T any] struct {
	mu         sync.Mutex
	interval   time.Duration
	limiter    *rate.Limiter
	apply      func(T)
	pending    T
	hasPending bool
	timer      schedule.Timer
}

// NewThrottle creates a Throttle. A non-positive interval applies every
// value synchronously.
func NewThrottle[T any](interval time.Duration, apply func(T)) *Throttle[T] {
	t := &Throttle[T]{interval: interval, apply: apply}
	if interval > 0 {
		t.limiter = rate.NewLimiter(rate.Every(interval), 1)
	}
	return t
}

// Submit offers v for application.
func (t *Throttle[T]) Submit(v T) {
	if t.limiter == nil {
		t.apply(v)
		return
	}

	t.mu.Lock()
	if !t.hasPending && t.limiter.Allow() {
		t.mu.Unlock()
		t.apply(v)
		return
	}

	t.pending = v
	if !t.hasPending {
		t.hasPending = true
		reservation := t.limiter.Reserve()
		t.timer.Schedule(reservation.Delay(), t.flush)
	}
	t.mu.Unlock()
}

func (t *Throttle[T]) flush() {
	t.mu.Lock()
	if !t.hasPending {
		t.mu.Unlock()
		return
	}
	v := t.pending
	var zero T
	t.pending = zero
	t.hasPending = false
	t.mu.Unlock()

	t.apply(v)
}

// Cancel drops a pending trailing value.
func (t *Throttle[T]) Cancel() {
	t.timer.Cancel()

	t.mu.Lock()
	defer t.mu.Unlock()
	var zero T
	t.pending = zero
	t.hasPending = false
}
