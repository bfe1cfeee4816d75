// Visitline - Visitor Presence Timeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/visitline

package schedule

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestTimerFiresOnce(t *testing.T) {
	t.Parallel()

	var timer Timer
	fired := make(chan struct{}, 2)
	timer.Schedule(10*time.Millisecond, func() { fired <- struct{}{} })

	if !timer.Pending() {
		t.Fatal("expected timer to be pending after Schedule")
	}

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}

	select {
	case <-fired:
		t.Fatal("timer fired twice")
	case <-time.After(50 * time.Millisecond):
	}

	if timer.Pending() {
		t.Error("timer should not be pending after firing")
	}
}

func TestTimerScheduleSupersedes(t *testing.T) {
	t.Parallel()

	var timer Timer
	var first, second atomic.Int32
	done := make(chan struct{})

	timer.Schedule(20*time.Millisecond, func() { first.Add(1) })
	timer.Schedule(40*time.Millisecond, func() {
		second.Add(1)
		close(done)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second callback did not fire")
	}
	time.Sleep(30 * time.Millisecond)

	if first.Load() != 0 {
		t.Errorf("superseded callback fired %d times", first.Load())
	}
	if second.Load() != 1 {
		t.Errorf("second callback fired %d times, want 1", second.Load())
	}
}

func TestTimerCancel(t *testing.T) {
	t.Parallel()

	var timer Timer
	var fired atomic.Bool
	timer.Schedule(20*time.Millisecond, func() { fired.Store(true) })

	if !timer.Cancel() {
		t.Error("Cancel() = false, want true for a pending timer")
	}
	if timer.Cancel() {
		t.Error("second Cancel() = true, want false")
	}

	time.Sleep(60 * time.Millisecond)
	if fired.Load() {
		t.Error("cancelled callback fired")
	}
}

func TestTimerZeroDelay(t *testing.T) {
	t.Parallel()

	var timer Timer
	done := make(chan struct{})
	timer.Schedule(-time.Second, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("zero delay callback did not run")
	}
}
