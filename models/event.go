package models

import (
	"time"

	"github.com/google/uuid"
)

// EventType names a booking lifecycle transition.
type EventType string

const (
	EventBookingCreated   EventType = "booking.created"
	EventBookingConfirmed EventType = "booking.confirmed"
	EventBookingCancelled EventType = "booking.cancelled"
	EventBookingCompleted EventType = "booking.completed"
	EventBookingReminder  EventType = "booking.reminder"
)

// eventNamespace seeds deterministic idempotency keys.
var eventNamespace = uuid.MustParse("9e2f1d4a-6c3b-4f80-9a51-2d7e8b0c4a11")

// LifecycleEvent is the immutable envelope published after a booking
// transition commits. Consumers treat the embedded snapshot as
// authoritative for the state at emission time.
type LifecycleEvent struct {
	Type           EventType `json:"type"`
	Booking        Booking   `json:"booking"`
	EmittedAt      time.Time `json:"emittedAt"`
	IdempotencyKey string    `json:"idempotencyKey"`
}

// NewLifecycleEvent builds the envelope for a committed transition. The
// idempotency key is a pure function of (booking id, event type) so a
// redelivered event is recognizable however many times the broker hands
// it out.
func NewLifecycleEvent(t EventType, b Booking) LifecycleEvent {
	return LifecycleEvent{
		Type:           t,
		Booking:        b,
		EmittedAt:      time.Now().UTC(),
		IdempotencyKey: IdempotencyKey(b.ID, t),
	}
}

// IdempotencyKey derives the deterministic duplicate-detection key for a
// (booking, transition) pair.
func IdempotencyKey(bookingID string, t EventType) string {
	return uuid.NewSHA1(eventNamespace, []byte(bookingID+"|"+string(t))).String()
}
