// Visitline - Visitor Presence Timeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/visitline

package config

import (
	"fmt"

	"github.com/tomtom215/visitline/internal/timeline"
	"github.com/tomtom215/visitline/internal/validation"
)

// Validate checks struct constraints and cross-field rules.
func (c *Config) Validate() error {
	if verr := validation.ValidateStruct(c); verr != nil {
		return verr
	}

	if err := c.validatePresence(); err != nil {
		return err
	}
	return c.validateSlots()
}

// validatePresence checks the session store settings.
func (c *Config) validatePresence() error {
	if c.Presence.SessionPolicy == "persistent" && c.Presence.SessionStorePath == "" {
		return fmt.Errorf("PRESENCE_SESSION_STORE_PATH is required when PRESENCE_SESSION_POLICY=persistent")
	}
	return nil
}

// validateSlots requires unique ids and end after start. Overlapping slots
// are allowed.
func (c *Config) validateSlots() error {
	seen := make(map[string]bool, len(c.Timeline.Slots))
	for i, slot := range c.Timeline.Slots {
		if seen[slot.ID] {
			return fmt.Errorf("timeline.slots[%d]: duplicate slot id %q", i, slot.ID)
		}
		seen[slot.ID] = true

		start, _ := timeline.ParseTimestamp(slot.Start)
		end, _ := timeline.ParseTimestamp(slot.End)
		if end <= start {
			return fmt.Errorf("timeline.slots[%d]: end %s must be after start %s", i, slot.End, slot.Start)
		}
	}
	return nil
}
