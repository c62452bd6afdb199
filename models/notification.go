package models

import "time"

// Channel identifies a notification delivery mechanism.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
	ChannelChat  Channel = "chat"
)

// Recipient roles for notification audit rows.
const (
	RecipientClient = "client"
	RecipientOwner  = "owner"
)

// NotificationLogEntry is one row per (booking, channel, attempt outcome),
// owned by the dispatch consumer.
type NotificationLogEntry struct {
	ID             string    `bson:"id" json:"id"`
	BookingID      string    `bson:"booking_id" json:"bookingId"`
	EventType      EventType `bson:"event_type" json:"eventType"`
	IdempotencyKey string    `bson:"idempotency_key" json:"idempotencyKey"`
	Channel        Channel   `bson:"channel" json:"channel"`
	Recipient      string    `bson:"recipient" json:"recipient"`
	Address        string    `bson:"address" json:"address"`
	Success        bool      `bson:"success" json:"success"`
	Error          string    `bson:"error,omitempty" json:"error,omitempty"`
	SentAt         time.Time `bson:"sent_at" json:"sentAt"`
}
