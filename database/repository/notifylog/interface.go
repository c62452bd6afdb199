package notifylogRepo

import (
	"context"

	"salonbook/models"
)

// NotificationLogRepository is the append-only audit log of dispatch
// attempts. Writes must never fail the job that is being logged; callers
// swallow errors from Append.
type NotificationLogRepository interface {
	Append(ctx context.Context, entry models.NotificationLogEntry) error
	FindByBooking(ctx context.Context, bookingID string) ([]models.NotificationLogEntry, error)
}
