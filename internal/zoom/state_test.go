// Visitline - Visitor Presence Timeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/visitline

package zoom

import (
	"sync"
	"testing"
	"time"
)

func TestNewDefaultsDelay(t *testing.T) {
	t.Parallel()

	if s := New(0); s.clearDelay != DefaultClearDelay {
		t.Errorf("clearDelay = %v, want %v", s.clearDelay, DefaultClearDelay)
	}
	if s := New(time.Second); s.clearDelay != time.Second {
		t.Errorf("clearDelay = %v, want 1s", s.clearDelay)
	}
}

func TestSetZoomingForClearsAfterDelay(t *testing.T) {
	t.Parallel()

	s := New(30 * time.Millisecond)
	s.SetZoomingFor()
	if !s.IsZooming() {
		t.Fatal("expected zooming right after SetZoomingFor")
	}

	deadline := time.Now().Add(time.Second)
	for s.IsZooming() {
		if time.Now().After(deadline) {
			t.Fatal("zooming flag was never cleared")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSetZoomingForRestartsTimer(t *testing.T) {
	t.Parallel()

	s := New(60 * time.Millisecond)
	s.SetZoomingFor()
	time.Sleep(40 * time.Millisecond)
	s.SetZoomingFor()
	time.Sleep(40 * time.Millisecond)

	if !s.IsZooming() {
		t.Error("retriggered gesture should keep the flag raised")
	}
}

func TestStopKeepsFlag(t *testing.T) {
	t.Parallel()

	s := New(20 * time.Millisecond)
	s.SetZoomingFor()
	s.Stop()
	time.Sleep(50 * time.Millisecond)

	if !s.IsZooming() {
		t.Error("Stop should cancel the pending clear")
	}
}

func TestZoomedFlagAndObservers(t *testing.T) {
	t.Parallel()

	s := New(0)
	var mu sync.Mutex
	var seen []Snapshot
	s.OnChange(func(snap Snapshot) {
		mu.Lock()
		seen = append(seen, snap)
		mu.Unlock()
	})

	s.SetZoomed(true)
	s.SetZoomed(true)
	s.SetZooming(true)
	s.SetZooming(false)

	if !s.IsZoomed() {
		t.Error("expected zoomed")
	}

	mu.Lock()
	defer mu.Unlock()
	want := []Snapshot{
		{Zoomed: true},
		{Zoomed: true, Zooming: true},
		{Zoomed: true},
	}
	if len(seen) != len(want) {
		t.Fatalf("observer saw %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("change %d = %+v, want %+v", i, seen[i], want[i])
		}
	}
}
