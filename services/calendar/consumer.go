package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bookingRepo "salonbook/database/repository/booking"
	"salonbook/models"
	"salonbook/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// callTimeout bounds each external calendar API call so a stalled
// upstream cannot starve the worker pool.
const callTimeout = 15 * time.Second

// SyncConsumer mirrors confirmed bookings into the client's external
// calendar and removes them on cancellation. It never writes booking
// status; its only store write is the event id attachment.
type SyncConsumer struct {
	Tokens   TokenStore
	Client   CalendarClient
	Attacher BookingAttacher
	Bookings BookingReader
	Location *time.Location
}

func NewSyncConsumer(tokens TokenStore, client CalendarClient, attacher BookingAttacher, bookings BookingReader, loc *time.Location) *SyncConsumer {
	return &SyncConsumer{Tokens: tokens, Client: client, Attacher: attacher, Bookings: bookings, Location: loc}
}

// HandleConfirmed creates the external event for a confirmed booking.
// Clients without a linked calendar are skipped silently.
func (c *SyncConsumer) HandleConfirmed(ctx context.Context, task *asynq.Task) error {
	logger := utils.GetLogger()

	event, err := decodeEvent(task)
	if err != nil {
		return err
	}
	b := event.Booking

	token, err := c.Tokens.Token(ctx, b.ClientID)
	if errors.Is(err, ErrNoLinkedCalendar) {
		logger.Debug("no linked calendar, skipping sync",
			zap.String("bookingID", b.ID), zap.String("clientID", b.ClientID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("token lookup failed for booking %s: %w", b.ID, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	eventID, err := c.Client.CreateEvent(callCtx, token, c.buildEvent(b))
	if err != nil {
		return fmt.Errorf("calendar create failed for booking %s: %w", b.ID, err)
	}

	// Explicit call back into the store; idempotent, so a redelivery that
	// re-creates and re-attaches is safe.
	if _, err := c.Attacher.AttachExternalCalendarEventID(ctx, b.ID, eventID); err != nil {
		return fmt.Errorf("failed to attach calendar event %s to booking %s: %w", eventID, b.ID, err)
	}

	logger.Info("calendar event created",
		zap.String("bookingID", b.ID), zap.String("calendarEventID", eventID))
	return nil
}

// HandleCancelled deletes the mirrored event. A booking that was never
// synced, or an event already deleted upstream, is not a failure.
func (c *SyncConsumer) HandleCancelled(ctx context.Context, task *asynq.Task) error {
	logger := utils.GetLogger()

	event, err := decodeEvent(task)
	if err != nil {
		return err
	}
	b := event.Booking

	eventID := b.CalendarEventID
	if eventID == "" {
		// The cancel may have raced the confirmed sync: the snapshot was
		// taken before the attacher wrote the id. Re-read before deciding
		// there is nothing to delete.
		fresh, err := c.Bookings.FindByID(ctx, b.ID)
		if errors.Is(err, bookingRepo.ErrNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to re-read booking %s on cancel: %w", b.ID, err)
		}
		eventID = fresh.CalendarEventID
	}
	if eventID == "" {
		logger.Debug("no calendar event to delete", zap.String("bookingID", b.ID))
		return nil
	}

	token, err := c.Tokens.Token(ctx, b.ClientID)
	if errors.Is(err, ErrNoLinkedCalendar) {
		logger.Debug("no linked calendar on cancel, skipping delete",
			zap.String("bookingID", b.ID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("token lookup failed for booking %s: %w", b.ID, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	if err := c.Client.DeleteEvent(callCtx, token, eventID); err != nil {
		return fmt.Errorf("calendar delete failed for booking %s: %w", b.ID, err)
	}

	logger.Info("calendar event deleted",
		zap.String("bookingID", b.ID), zap.String("calendarEventID", eventID))
	return nil
}

// buildEvent renders the booking snapshot as an external calendar entry
// in the salon's local time zone.
func (c *SyncConsumer) buildEvent(b models.Booking) ExternalEvent {
	day, _ := time.ParseInLocation("2006-01-02", b.Date, c.Location)
	start := day.Add(time.Duration(b.Start) * time.Minute)
	end := day.Add(time.Duration(b.End) * time.Minute)

	description := fmt.Sprintf("Services: %s\nTotal: %.2f", b.ServiceSummary(), b.TotalPrice)
	if b.Notes != "" {
		description += "\nNotes: " + b.Notes
	}

	return ExternalEvent{
		Summary:       fmt.Sprintf("Appointment: %s", b.ServiceSummary()),
		Description:   description,
		Start:         start,
		End:           end,
		TimeZone:      c.Location.String(),
		AttendeeEmail: b.Client.Email,
	}
}

// decodeEvent unmarshals the task payload. A payload that cannot parse
// will never parse; retrying is pointless.
func decodeEvent(task *asynq.Task) (models.LifecycleEvent, error) {
	var event models.LifecycleEvent
	if err := json.Unmarshal(task.Payload(), &event); err != nil {
		return event, fmt.Errorf("invalid event payload: %v: %w", err, asynq.SkipRetry)
	}
	return event, nil
}
