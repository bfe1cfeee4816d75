// Visitline - Visitor Presence Timeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/visitline

/*
Package config provides layered configuration for Visitline.

Configuration is loaded with Koanf v2 in three layers, later layers winning:

 1. Built-in defaults (defaultConfig)
 2. An optional YAML file: CONFIG_PATH, else config.yaml / config.yml in the
    working directory, else /etc/visitline/config.yaml
 3. Environment variables with an explicit name mapping (envTransformFunc);
    unmapped variables are ignored

The merged result is validated with struct tags through internal/validation
plus a few cross-field rules in Validate.

# Example config.yaml

	presence:
	  url: wss://presence.example.com/ws
	  reconnect_delay: 5s
	  session_policy: persistent
	  session_store_path: /data/session
	clock:
	  mode: wall
	  interval: 1s
	timeline:
	  timezone: Europe/Berlin
	  slots:
	    - id: morning
	      start: "2024-05-01T08:00:00+02:00"
	      end: "2024-05-01T12:00:00+02:00"
	    - id: afternoon
	      start: "2024-05-01T13:00:00+02:00"
	      end: "2024-05-01T18:00:00+02:00"
	server:
	  port: 3001
	  cors_origins: ["https://dashboard.example.com"]

# Environment Variables

Presence channel:
  - PRESENCE_URL, PRESENCE_RECONNECT, PRESENCE_RECONNECT_DELAY
  - PRESENCE_HEARTBEAT_INTERVAL (0 disables), PRESENCE_VISITOR_THROTTLE
  - PRESENCE_MAX_PENDING, PRESENCE_SESSION_POLICY, PRESENCE_SESSION_STORE_PATH
  - PRESENCE_HANDSHAKE_TIMEOUT, PRESENCE_WRITE_TIMEOUT
  - PRESENCE_SEND_METADATA, PRESENCE_USER_AGENT, PRESENCE_LANGUAGE,
    PRESENCE_TIMEZONE, PRESENCE_SCREEN_WIDTH, PRESENCE_SCREEN_HEIGHT

Clock, timeline and zoom:
  - CLOCK_MODE, CLOCK_INTERVAL
  - TIMELINE_TIMEZONE, TIMELINE_HOUR_TICKS, TIMELINE_REUSE_ITEMS
  - ZOOM_CLEAR_DELAY

HTTP server and hub:
  - HTTP_HOST, HTTP_PORT, HTTP_TIMEOUT, CORS_ORIGINS (comma-separated)
  - HUB_ENABLED, HUB_BROADCAST_INTERVAL, HUB_RETENTION

Logging:
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER

Time slots are only configurable through the YAML file.

# Thread Safety

Config is immutable after Load and safe for concurrent reads.
*/
package config
