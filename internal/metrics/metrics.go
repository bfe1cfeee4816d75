// Visitline - Visitor Presence Timeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/visitline

// Package metrics exposes the Prometheus instrumentation for Visitline.
//
// Metric families:
//   - presence_*: presence channel lifecycle, outbound queue and inbound traffic
//   - timeline_*: layout computations
//   - hub_*: the presence hub served at /ws
//   - api_*: HTTP request latency and throughput
//
// All collectors are registered on the default registry via promauto and are
// scraped from /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PresenceStatuses lists the label values of PresenceStatus.
var PresenceStatuses = []string{"idle", "connecting", "open", "closed", "error"}

var (
	// Presence Channel Metrics
	PresenceStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "presence_channel_status",
			Help: "Current presence channel status (1 for the active status, 0 otherwise)",
		},
		[]string{"status"},
	)

	PresenceTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "presence_channel_transitions_total",
			Help: "Total number of presence channel status transitions",
		},
		[]string{"from", "to"},
	)

	PresenceReconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "presence_reconnect_attempts_total",
			Help: "Total number of reconnect attempts made by the presence channel",
		},
	)

	PresenceMessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "presence_messages_sent_total",
			Help: "Total number of presence messages written to the transport",
		},
		[]string{"type"},
	)

	PresenceMessagesQueued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "presence_messages_queued_total",
			Help: "Total number of presence messages buffered while the transport was not open",
		},
		[]string{"type"},
	)

	PresenceMessagesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "presence_messages_dropped_total",
			Help: "Total number of buffered presence messages dropped because the outbox was full",
		},
	)

	PresencePending = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "presence_pending_messages",
			Help: "Current number of buffered outbound presence messages",
		},
	)

	PresenceMessagesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "presence_messages_received_total",
			Help: "Total number of inbound presence messages by outcome",
		},
		[]string{"outcome"}, // "applied", "ignored", "malformed"
	)

	PresenceVisitors = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "presence_visitors",
			Help: "Number of visitor intervals in the latest applied visitor list",
		},
	)

	// Timeline Metrics
	TimelineLayoutDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "timeline_layout_duration_seconds",
			Help:    "Duration of timeline layout computations in seconds",
			Buckets: []float64{.0001, .0005, .001, .0025, .005, .01, .025, .05, .1},
		},
	)

	TimelineItems = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "timeline_items",
			Help: "Number of items produced by the latest timeline layout",
		},
		[]string{"type"}, // "visit", "gap"
	)

	TimelineItemsReused = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "timeline_items_reused_total",
			Help: "Total number of layout items reused from the item cache",
		},
	)

	// Hub Metrics
	HubConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hub_connections",
			Help: "Current number of presence clients connected to the hub",
		},
	)

	HubActiveVisits = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hub_active_visits",
			Help: "Current number of open visits tracked by the hub",
		},
	)

	HubBroadcasts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_broadcasts_total",
			Help: "Total number of visitor list broadcasts",
		},
	)

	HubMessagesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hub_messages_received_total",
			Help: "Total number of messages received by the hub",
		},
		[]string{"type"},
	)

	HubErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hub_errors_total",
			Help: "Total number of hub connection errors",
		},
		[]string{"error_type"},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
)

// RecordPresenceTransition records a status change and updates the status gauge.
func RecordPresenceTransition(from, to string) {
	if from != to {
		PresenceTransitions.WithLabelValues(from, to).Inc()
	}
	for _, s := range PresenceStatuses {
		value := 0.0
		if s == to {
			value = 1
		}
		PresenceStatus.WithLabelValues(s).Set(value)
	}
}

// RecordPresenceSent records a message written to the transport.
func RecordPresenceSent(msgType string) {
	PresenceMessagesSent.WithLabelValues(msgType).Inc()
}

// RecordPresenceQueued records a message buffered in the outbox.
func RecordPresenceQueued(msgType string, pending int) {
	PresenceMessagesQueued.WithLabelValues(msgType).Inc()
	PresencePending.Set(float64(pending))
}

// RecordPresenceDropped records a message evicted from a full outbox.
func RecordPresenceDropped() {
	PresenceMessagesDropped.Inc()
}

// RecordPresencePending updates the outbox depth gauge.
func RecordPresencePending(pending int) {
	PresencePending.Set(float64(pending))
}

// RecordPresenceReceived records an inbound message outcome.
func RecordPresenceReceived(outcome string) {
	PresenceMessagesReceived.WithLabelValues(outcome).Inc()
}

// RecordPresenceVisitors records the size of an applied visitor list.
func RecordPresenceVisitors(count int) {
	PresenceVisitors.Set(float64(count))
}

// RecordTimelineLayout records one layout computation.
func RecordTimelineLayout(duration time.Duration, visits, gaps int) {
	TimelineLayoutDuration.Observe(duration.Seconds())
	TimelineItems.WithLabelValues("visit").Set(float64(visits))
	TimelineItems.WithLabelValues("gap").Set(float64(gaps))
}

// RecordTimelineReuse records items served from the item cache.
func RecordTimelineReuse(reused int) {
	if reused > 0 {
		TimelineItemsReused.Add(float64(reused))
	}
}

// RecordHubBroadcast records a visitor list broadcast.
func RecordHubBroadcast(activeVisits int) {
	HubBroadcasts.Inc()
	HubActiveVisits.Set(float64(activeVisits))
}

// RecordHubMessage records a message received by the hub.
func RecordHubMessage(msgType string) {
	HubMessagesReceived.WithLabelValues(msgType).Inc()
}

// RecordHubError records a hub connection error.
func RecordHubError(errorType string) {
	HubErrors.WithLabelValues(errorType).Inc()
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
