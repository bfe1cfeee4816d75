// Visitline - Visitor Presence Timeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/visitline

package presence

import (
	"github.com/tomtom215/visitline/internal/logging"
	"github.com/tomtom215/visitline/internal/metrics"
)

// outboundMessage is an encoded message waiting for an open transport.
type outboundMessage struct {
	msgType string
	data    []byte
}

// Outbox is a FIFO of messages waiting for an open transport. It is not
// safe for concurrent use; the Channel guards it with its own lock.
type Outbox struct {
	queue    []outboundMessage
	capacity int
}

// NewOutbox creates an Outbox. capacity <= 0 means unbounded.
func NewOutbox(capacity int) *Outbox {
	return &Outbox{capacity: capacity}
}

// Push appends a message, dropping the oldest one when the outbox is full.
func (o *Outbox) Push(msgType string, data []byte) {
	if o.capacity > 0 && len(o.queue) >= o.capacity {
		dropped := o.queue[0]
		o.queue = o.queue[1:]
		metrics.RecordPresenceDropped()
		logging.Warn().
			Str("type", dropped.msgType).
			Int("capacity", o.capacity).
			Msg("Presence outbox full, dropping oldest message")
	}
	o.queue = append(o.queue, outboundMessage{msgType: msgType, data: data})
	metrics.RecordPresenceQueued(msgType, len(o.queue))
}

// Drain sends queued messages in order. It stops at the first failing send,
// keeps that message and everything after it, and returns the error.
func (o *Outbox) Drain(send func(msgType string, data []byte) error) error {
	defer func() { metrics.RecordPresencePending(len(o.queue)) }()

	for len(o.queue) > 0 {
		head := o.queue[0]
		if err := send(head.msgType, head.data); err != nil {
			return err
		}
		o.queue[0] = outboundMessage{}
		o.queue = o.queue[1:]
	}
	o.queue = nil
	return nil
}

// Len returns the number of queued messages.
func (o *Outbox) Len() int {
	return len(o.queue)
}
