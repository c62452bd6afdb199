package bookingRepo

import (
	"context"
	"errors"

	"salonbook/models"
)

// ErrSlotTaken is returned by ConditionalInsert when a conflicting
// reservation was committed between the availability read and the write.
var ErrSlotTaken = errors.New("time slot already taken")

// ErrNotFound is returned when no booking matches the given id.
var ErrNotFound = errors.New("booking not found")

// ErrStatusChanged is returned by UpdateStatus when the booking exists but
// its current status is not one of the allowed source statuses.
var ErrStatusChanged = errors.New("booking status changed")

// BookingRepository is the authoritative persisted record of bookings.
// Only UpdateStatus may mutate status; AttachCalendarEventID is the one
// write consumers are allowed, and it is idempotent.
type BookingRepository interface {
	FindByID(ctx context.Context, id string) (*models.Booking, error)

	// FindOverlapping returns slot-blocking bookings of the salon (and
	// staff member, when staffID is non-empty) on the date whose
	// [start, end) interval intersects the given one.
	FindOverlapping(ctx context.Context, salonID, staffID, date string, start, end int) ([]models.Booking, error)

	// FindBlocking returns every slot-blocking booking of the salon on
	// the date, for slot calculation.
	FindBlocking(ctx context.Context, salonID, date string) ([]models.Booking, error)

	// ConditionalInsert re-runs the overlap check and inserts the booking
	// in one atomic unit against the store. Returns ErrSlotTaken on clash.
	ConditionalInsert(ctx context.Context, booking *models.Booking) error

	// UpdateStatus moves the booking to the target status only if its
	// current status is in from, applying extra field sets atomically and
	// returning the post-image. Returns ErrNotFound or ErrStatusChanged.
	UpdateStatus(ctx context.Context, id string, from []models.BookingStatus, to models.BookingStatus, set map[string]any) (*models.Booking, error)

	// AttachCalendarEventID records the external calendar event id. Safe
	// to apply twice with the same value.
	AttachCalendarEventID(ctx context.Context, id, eventID string) (*models.Booking, error)
}
