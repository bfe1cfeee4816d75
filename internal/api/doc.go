// Visitline - Visitor Presence Timeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/visitline

/*
Package api provides the HTTP surface of Visitline.

Routes:

  - GET /ws: presence hub websocket (when the hub is enabled)
  - GET /api/v1/visitors: the channel's visitor list, status and session id
  - GET /api/v1/timeline: layout of the visitor list at the channel clock;
    an optional "at" query parameter overrides the current time
  - GET /api/v1/health: liveness plus channel and hub state
  - GET /api/v1/zoom, POST /api/v1/zoom: shared zoom flags for renderers
  - GET /metrics: Prometheus exposition

Every JSON response uses the models.APIResponse envelope:

	{
	  "status": "success",
	  "data": {...},
	  "metadata": {"timestamp": "2026-01-15T09:00:00Z", "query_time_ms": 1}
	}

Errors set status "error" and carry a machine readable code:

	{"status": "error", "data": null, "error": {"code": "VALIDATION_ERROR", "message": "..."}}

Middleware stack (outermost first): request id, real IP, panic recovery,
CORS, then per-group Prometheus instrumentation and gzip compression for
the JSON API. The websocket route is kept out of the compression and
metrics wrappers.
*/
package api
