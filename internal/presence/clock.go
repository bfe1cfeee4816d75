// Visitline - Visitor Presence Timeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/visitline

package presence

import (
	"sync"
	"sync/atomic"
	"time"
)

// ClockMode selects how the clock publishes.
type ClockMode string

const (
	// ClockModeFrame runs a 60 Hz frame loop and publishes at most
	// MaxFrameRate times a second.
	ClockModeFrame ClockMode = "frame"

	// ClockModeWall publishes once per configured interval.
	ClockModeWall ClockMode = "wall"
)

// MaxFrameRate caps frame mode publishing.
const MaxFrameRate = 30

const (
	frameInterval   = time.Second / 60
	minFrameSpacing = time.Second/MaxFrameRate - time.Millisecond
)

// DefaultClockInterval is the default tick interval.
const DefaultClockInterval = 33 * time.Millisecond

// Clock publishes the current time on a cadence while running.
type Clock struct {
	interval time.Duration
	mode     ClockMode
	source   func() time.Time
	onTick   func(time.Time)

	now atomic.Int64 // unix nanoseconds

	mu      sync.Mutex
	stop    chan struct{}
	done    chan struct{}
	running bool
}

// NewClock creates a stopped clock. interval only applies to wall mode.
// onTick may be nil.
func NewClock(interval time.Duration, mode ClockMode, onTick func(time.Time)) *Clock {
	if interval <= 0 {
		interval = DefaultClockInterval
	}
	if mode == "" {
		mode = ClockModeFrame
	}
	c := &Clock{interval: interval, mode: mode, source: time.Now, onTick: onTick}
	c.now.Store(c.source().UnixNano())
	return c
}

// Now returns the last published time.
func (c *Clock) Now() time.Time {
	return time.Unix(0, c.now.Load())
}

// Running reports whether the clock is ticking.
func (c *Clock) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Start begins ticking. Starting a running clock does nothing.
func (c *Clock) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return
	}
	c.running = true
	c.stop = make(chan struct{})
	c.done = make(chan struct{})
	c.now.Store(c.source().UnixNano())
	go c.run(c.stop, c.done)
}

// Stop halts ticking. It does not wait for an in-flight tick callback; use
// Wait for that.
func (c *Clock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return
	}
	c.running = false
	close(c.stop)
}

// Wait blocks until the most recently started tick loop has exited.
func (c *Clock) Wait() {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (c *Clock) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	interval := c.interval
	if c.mode == ClockModeFrame {
		interval = frameInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := c.source()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			now := c.source()
			if c.mode == ClockModeFrame && now.Sub(last) < minFrameSpacing {
				continue
			}
			last = now
			select {
			case <-stop:
				return
			default:
			}
			c.publish(now)
		}
	}
}

func (c *Clock) publish(now time.Time) {
	c.now.Store(now.UnixNano())
	if c.onTick != nil {
		c.onTick(now)
	}
}
