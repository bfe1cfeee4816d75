// Visitline - Visitor Presence Timeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/visitline

/*
Package timeline converts visit intervals and display time slots into
positioned render items.

Layout is a pure function of its Input. The slots are stacked end to end on
one synthetic axis running from 0 to 100 percent, each slot taking a share
proportional to its duration. Inside every slot the engine cuts time at each
visit start and end (and at "now" when it falls strictly inside the slot),
producing sub-intervals across which the set of active visits is constant:

  - no active visit: one full-width gap item
  - k active visits: k visit items side by side, each 100/k percent wide,
    ordered by visit start then visit id

Visit items carry IsContinuation (the previous segment of the same visit ends
exactly where this one starts) and IsLastSegment (this segment ends at the
visit's maximum end) so renderers can draw caps once per visit.

Identity Reuse:

ItemCache keeps the items of the previous call by id and hands back the old
pointer when a new item is field-for-field equal. Engine bundles a cache with
the configured slots and tick location for repeated calls, e.g. once per clock
tick.

Usage:

	engine := timeline.NewEngine(timeline.EngineConfig{
	    TimeSlots: cfg.Timeline.Slots,
	    Location:  loc,
	    HourTicks: true,
	    ReuseItems: true,
	})
	result := engine.Layout(channel.Visitors(), channel.Now())
*/
package timeline
