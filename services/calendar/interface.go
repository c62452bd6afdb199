package calendar

import (
	"context"
	"errors"
	"time"

	"salonbook/models"

	"golang.org/x/oauth2"
)

// ErrNoLinkedCalendar means the client never connected an external
// calendar. Not an error condition for the sync consumer; it skips.
var ErrNoLinkedCalendar = errors.New("no linked calendar for client")

// TokenStore resolves a client's linked-calendar OAuth credential. The
// token lifecycle (issuance, refresh persistence) is owned elsewhere.
type TokenStore interface {
	Token(ctx context.Context, clientID string) (*oauth2.Token, error)
}

// ExternalEvent is the provider-agnostic description of a calendar entry.
type ExternalEvent struct {
	Summary       string
	Description   string
	Start         time.Time
	End           time.Time
	TimeZone      string
	AttendeeEmail string
}

// CalendarClient is the opaque create/delete capability of the external
// provider. DeleteEvent treats an already-deleted event as success.
type CalendarClient interface {
	CreateEvent(ctx context.Context, token *oauth2.Token, event ExternalEvent) (string, error)
	DeleteEvent(ctx context.Context, token *oauth2.Token, eventID string) error
}

// BookingAttacher is the single write back into the booking store this
// consumer is allowed: recording the created event id.
type BookingAttacher interface {
	AttachExternalCalendarEventID(ctx context.Context, id, eventID string) (*models.Booking, error)
}

// BookingReader re-reads a booking when the event snapshot may predate a
// write the consumer depends on.
type BookingReader interface {
	FindByID(ctx context.Context, id string) (*models.Booking, error)
}
