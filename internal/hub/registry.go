// Visitline - Visitor Presence Timeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/visitline

package hub

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/visitline/internal/models"
)

type visit struct {
	id          string
	sessionID   string
	fingerprint string
	start       time.Time
	end         time.Time
	open        bool
	owner       uint64
}

// Registry tracks visits keyed by session.
type Registry struct {
	mu        sync.Mutex
	visits    []*visit
	open      map[string]*visit
	retention time.Duration
}

// NewRegistry creates a registry that prunes closed visits older than
// retention. A non-positive retention keeps everything.
func NewRegistry(retention time.Duration) *Registry {
	return &Registry{open: make(map[string]*visit), retention: retention}
}

// Enter opens a visit for sessionID. It reports whether a new visit was
// opened; entering an already open session only records the new owner.
func (r *Registry) Enter(sessionID string, at time.Time, fingerprint string, owner uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v, ok := r.open[sessionID]; ok {
		v.owner = owner
		if fingerprint != "" {
			v.fingerprint = fingerprint
		}
		return false
	}

	v := &visit{
		id:          fmt.Sprintf("%s-%d", sessionID, at.UnixMilli()),
		sessionID:   sessionID,
		fingerprint: fingerprint,
		start:       at,
		open:        true,
		owner:       owner,
	}
	r.visits = append(r.visits, v)
	r.open[sessionID] = v
	return true
}

// Leave closes the open visit of sessionID and reports whether one existed.
func (r *Registry) Leave(sessionID string, at time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.open[sessionID]
	if !ok {
		return false
	}
	r.closeLocked(v, at)
	return true
}

// CloseOwnedBy closes every open visit owned by owner and returns how many
// were closed.
func (r *Registry) CloseOwnedBy(owner uint64, at time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	closed := 0
	for _, v := range r.open {
		if v.owner == owner {
			r.closeLocked(v, at)
			closed++
		}
	}
	return closed
}

func (r *Registry) closeLocked(v *visit, at time.Time) {
	if at.Before(v.start) {
		at = v.start
	}
	v.end = at
	v.open = false
	delete(r.open, v.sessionID)
}

// Prune drops closed visits that ended before now minus the retention
// window and returns how many were dropped.
func (r *Registry) Prune(now time.Time) int {
	if r.retention <= 0 {
		return 0
	}
	cutoff := now.Add(-r.retention)

	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.visits[:0]
	for _, v := range r.visits {
		if !v.open && v.end.Before(cutoff) {
			continue
		}
		kept = append(kept, v)
	}
	dropped := len(r.visits) - len(kept)
	for i := len(kept); i < len(r.visits); i++ {
		r.visits[i] = nil
	}
	r.visits = kept
	return dropped
}

// Visitors returns every tracked visit as an interval ordered by start.
// Open visits end at now.
func (r *Registry) Visitors(now time.Time) []models.VisitInterval {
	r.mu.Lock()
	defer r.mu.Unlock()

	sorted := make([]*visit, len(r.visits))
	copy(sorted, r.visits)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].start.Before(sorted[j].start)
	})

	out := make([]models.VisitInterval, 0, len(sorted))
	for _, v := range sorted {
		end := v.end
		if v.open {
			end = now
			if end.Before(v.start) {
				end = v.start
			}
		}
		out = append(out, models.VisitInterval{
			ID:          v.id,
			Start:       models.FormatTimestamp(v.start),
			End:         models.FormatTimestamp(end),
			Fingerprint: v.fingerprint,
		})
	}
	return out
}

// ActiveCount returns the number of open visits.
func (r *Registry) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.open)
}

// Len returns the number of tracked visits.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.visits)
}
