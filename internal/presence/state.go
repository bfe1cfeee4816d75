// Visitline - Visitor Presence Timeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/visitline

package presence

// Status is the connection status of a Channel.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusConnecting Status = "connecting"
	StatusOpen       Status = "open"
	StatusClosed     Status = "closed"
	StatusError      Status = "error"
)

// Event is an input to the connection state machine.
type Event int

const (
	EventConnect Event = iota
	EventOpen
	EventClose
	EventError
	EventRetry
	EventDisconnect
)

var eventNames = [...]string{"connect", "open", "close", "error", "retry", "disconnect"}

func (e Event) String() string {
	if int(e) < len(eventNames) {
		return eventNames[e]
	}
	return "unknown"
}

// Effect is a side effect the Channel performs after a transition.
type Effect int

const (
	EffectDial Effect = iota
	EffectStartClock
	EffectStopClock
	EffectFlush
	EffectStartHeartbeat
	EffectStopHeartbeat
	EffectScheduleReconnect
	EffectCancelReconnect
	EffectCloseTransport
)

var effectNames = [...]string{
	"dial", "start_clock", "stop_clock", "flush", "start_heartbeat",
	"stop_heartbeat", "schedule_reconnect", "cancel_reconnect", "close_transport",
}

func (e Effect) String() string {
	if int(e) < len(effectNames) {
		return effectNames[e]
	}
	return "unknown"
}

// Transition computes the next status and the effects to run for ev.
// Events that do not apply to the current status leave it unchanged with no
// effects. reconnect selects whether a lost connection schedules a retry.
func Transition(current Status, ev Event, reconnect bool) (Status, []Effect) {
	switch ev {
	case EventConnect:
		switch current {
		case StatusIdle:
			return StatusConnecting, []Effect{EffectDial, EffectStartClock}
		case StatusClosed, StatusError:
			return StatusConnecting, []Effect{EffectCancelReconnect, EffectDial, EffectStartClock}
		}

	case EventOpen:
		if current == StatusConnecting {
			return StatusOpen, []Effect{EffectFlush, EffectStartHeartbeat}
		}

	case EventClose:
		if current == StatusOpen || current == StatusConnecting {
			return StatusClosed, lostEffects(reconnect)
		}

	case EventError:
		if current == StatusOpen || current == StatusConnecting {
			return StatusError, lostEffects(reconnect)
		}

	case EventRetry:
		if current == StatusClosed || current == StatusError {
			return StatusConnecting, []Effect{EffectDial}
		}

	case EventDisconnect:
		return StatusIdle, []Effect{
			EffectCancelReconnect,
			EffectStopHeartbeat,
			EffectCloseTransport,
			EffectStopClock,
		}
	}
	return current, nil
}

func lostEffects(reconnect bool) []Effect {
	effects := []Effect{EffectStopHeartbeat, EffectCloseTransport}
	if reconnect {
		effects = append(effects, EffectScheduleReconnect)
	}
	return effects
}
