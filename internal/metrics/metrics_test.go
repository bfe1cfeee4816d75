// Visitline - Visitor Presence Timeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/visitline

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordPresenceTransition(t *testing.T) {
	before := testutil.ToFloat64(PresenceTransitions.WithLabelValues("connecting", "open"))

	RecordPresenceTransition("connecting", "open")

	if got := testutil.ToFloat64(PresenceTransitions.WithLabelValues("connecting", "open")); got != before+1 {
		t.Errorf("transitions counter = %v, want %v", got, before+1)
	}
	for _, status := range PresenceStatuses {
		want := 0.0
		if status == "open" {
			want = 1
		}
		if got := testutil.ToFloat64(PresenceStatus.WithLabelValues(status)); got != want {
			t.Errorf("status gauge %q = %v, want %v", status, got, want)
		}
	}
}

func TestRecordPresenceTransitionSameStatus(t *testing.T) {
	before := testutil.ToFloat64(PresenceTransitions.WithLabelValues("idle", "idle"))
	RecordPresenceTransition("idle", "idle")
	if got := testutil.ToFloat64(PresenceTransitions.WithLabelValues("idle", "idle")); got != before {
		t.Errorf("self transition should not be counted, got %v want %v", got, before)
	}
}

func TestRecordPresenceQueue(t *testing.T) {
	before := testutil.ToFloat64(PresenceMessagesQueued.WithLabelValues("enter"))
	droppedBefore := testutil.ToFloat64(PresenceMessagesDropped)

	RecordPresenceQueued("enter", 3)
	RecordPresenceDropped()

	if got := testutil.ToFloat64(PresenceMessagesQueued.WithLabelValues("enter")); got != before+1 {
		t.Errorf("queued counter = %v, want %v", got, before+1)
	}
	if got := testutil.ToFloat64(PresencePending); got != 3 {
		t.Errorf("pending gauge = %v, want 3", got)
	}
	if got := testutil.ToFloat64(PresenceMessagesDropped); got != droppedBefore+1 {
		t.Errorf("dropped counter = %v, want %v", got, droppedBefore+1)
	}

	RecordPresencePending(0)
	if got := testutil.ToFloat64(PresencePending); got != 0 {
		t.Errorf("pending gauge = %v, want 0", got)
	}
}

func TestRecordTimelineLayout(t *testing.T) {
	RecordTimelineLayout(2*time.Millisecond, 5, 2)

	if got := testutil.ToFloat64(TimelineItems.WithLabelValues("visit")); got != 5 {
		t.Errorf("visit items = %v, want 5", got)
	}
	if got := testutil.ToFloat64(TimelineItems.WithLabelValues("gap")); got != 2 {
		t.Errorf("gap items = %v, want 2", got)
	}

	before := testutil.ToFloat64(TimelineItemsReused)
	RecordTimelineReuse(0)
	RecordTimelineReuse(4)
	if got := testutil.ToFloat64(TimelineItemsReused); got != before+4 {
		t.Errorf("reused counter = %v, want %v", got, before+4)
	}
}

func TestRecordHubBroadcast(t *testing.T) {
	before := testutil.ToFloat64(HubBroadcasts)
	RecordHubBroadcast(7)

	if got := testutil.ToFloat64(HubBroadcasts); got != before+1 {
		t.Errorf("broadcast counter = %v, want %v", got, before+1)
	}
	if got := testutil.ToFloat64(HubActiveVisits); got != 7 {
		t.Errorf("active visits = %v, want 7", got)
	}
}

func TestRecordAPIRequest(t *testing.T) {
	tests := []struct {
		method   string
		endpoint string
		status   string
	}{
		{"GET", "/api/v1/visitors", "200"},
		{"GET", "/api/v1/timeline", "200"},
		{"GET", "/api/v1/timeline", "400"},
	}

	for _, tt := range tests {
		before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues(tt.method, tt.endpoint, tt.status))
		RecordAPIRequest(tt.method, tt.endpoint, tt.status, 10*time.Millisecond)
		got := testutil.ToFloat64(APIRequestsTotal.WithLabelValues(tt.method, tt.endpoint, tt.status))
		if got != before+1 {
			t.Errorf("%s %s %s: counter = %v, want %v", tt.method, tt.endpoint, tt.status, got, before+1)
		}
	}
}
