package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingRepo "salonbook/database/repository/booking"
	"salonbook/models"
	"salonbook/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// GetAvailableSlots lists the grid for a salon and date. The result is a
// point-in-time read; CreateBooking re-checks before committing.
func (svc *DefaultBookingService) GetAvailableSlots(ctx context.Context, salonID, date string, durationMin int) (models.DayAvailability, error) {
	if salonID == "" {
		return models.DayAvailability{}, NewValidationError("salonId is required")
	}
	if _, err := time.Parse(dateLayout, date); err != nil {
		return models.DayAvailability{}, NewValidationError("invalid date %q, expected YYYY-MM-DD", date)
	}
	if durationMin <= 0 {
		return models.DayAvailability{}, NewValidationError("duration must be positive, got %d", durationMin)
	}

	existing, err := svc.Repo.FindBlocking(ctx, salonID, date)
	if err != nil {
		return models.DayAvailability{}, fmt.Errorf("failed to load reservations for %s/%s: %w", salonID, date, err)
	}
	return BuildDayAvailability(svc.Window, date, durationMin, existing), nil
}

// CreateBooking validates the payload, derives the frozen totals and runs
// the atomic clash-check-and-insert. The created event is published only
// after the insert committed.
func (svc *DefaultBookingService) CreateBooking(ctx context.Context, input CreateBookingInput, clientID string) (*models.Booking, error) {
	logger := utils.GetLogger()

	if clientID == "" {
		return nil, NewValidationError("clientId is required")
	}
	if input.SalonID == "" {
		return nil, NewValidationError("salonId is required")
	}
	if len(input.Items) == 0 {
		return nil, NewValidationError("at least one service item is required")
	}
	if _, err := time.Parse(dateLayout, input.Date); err != nil {
		return nil, NewValidationError("invalid date %q, expected YYYY-MM-DD", input.Date)
	}

	totalDuration := 0
	totalPrice := 0.0
	for _, item := range input.Items {
		if item.DurationMin <= 0 {
			return nil, NewValidationError("service %q has non-positive duration", item.Name)
		}
		totalDuration += item.DurationMin
		totalPrice += item.Price
	}

	if input.Start < svc.Window.OpenMinute || input.Start+totalDuration > svc.Window.CloseMinute {
		return nil, NewValidationError("requested time %s (+%dmin) is outside the operating window",
			models.MinutesToClock(input.Start), totalDuration)
	}

	now := time.Now().UTC()
	booking := &models.Booking{
		ID:               uuid.New().String(),
		SalonID:          input.SalonID,
		ClientID:         clientID,
		StaffID:          input.StaffID,
		Items:            input.Items,
		TotalDurationMin: totalDuration,
		TotalPrice:       totalPrice,
		Date:             input.Date,
		Start:            input.Start,
		End:              input.Start + totalDuration,
		Status:           models.StatusPending,
		Notes:            input.Notes,
		Client:           input.Client,
		Owner:            input.Owner,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	// The slot list the client saw is stale by now; the repository re-runs
	// the overlap check and inserts in one atomic unit.
	if err := svc.Repo.ConditionalInsert(ctx, booking); err != nil {
		if errors.Is(err, bookingRepo.ErrSlotTaken) {
			return nil, NewConflictError("slot %s-%s on %s is no longer available",
				models.MinutesToClock(booking.Start), models.MinutesToClock(booking.End), booking.Date)
		}
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	logger.Info("booking created",
		zap.String("bookingID", booking.ID),
		zap.String("salonID", booking.SalonID),
		zap.String("date", booking.Date),
		zap.Int("start", booking.Start),
		zap.Int("end", booking.End))

	if err := svc.publish(ctx, models.EventBookingCreated, booking); err != nil {
		return nil, err
	}
	return booking, nil
}

// ConfirmBooking moves PENDING to CONFIRMED.
func (svc *DefaultBookingService) ConfirmBooking(ctx context.Context, id string) (*models.Booking, error) {
	return svc.transition(ctx, id, models.EventBookingConfirmed, nil)
}

// CancelBooking moves PENDING or CONFIRMED to CANCELLED. Cancellation is
// not idempotent: cancelling an already cancelled booking is rejected.
func (svc *DefaultBookingService) CancelBooking(ctx context.Context, id, actorID, reason string) (*models.Booking, error) {
	if reason == "" {
		return nil, NewValidationError("a cancellation reason is required")
	}
	return svc.transition(ctx, id, models.EventBookingCancelled, map[string]any{
		"cancelled_by":        actorID,
		"cancellation_reason": reason,
	})
}

// CompleteBooking moves CONFIRMED or IN_PROGRESS to COMPLETED.
func (svc *DefaultBookingService) CompleteBooking(ctx context.Context, id string) (*models.Booking, error) {
	return svc.transition(ctx, id, models.EventBookingCompleted, nil)
}

// AttachExternalCalendarEventID records the synced calendar event id.
// Consumer-only; never touches status.
func (svc *DefaultBookingService) AttachExternalCalendarEventID(ctx context.Context, id, eventID string) (*models.Booking, error) {
	if eventID == "" {
		return nil, NewValidationError("eventId is required")
	}
	updated, err := svc.Repo.AttachCalendarEventID(ctx, id, eventID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrNotFound) {
			return nil, NewNotFoundError("booking %s not found", id)
		}
		return nil, fmt.Errorf("failed to attach calendar event id: %w", err)
	}
	return updated, nil
}

// transition applies one state machine edge with a guarded store update
// and emits the matching event once the update committed. A rejected
// transition mutates nothing and emits nothing.
func (svc *DefaultBookingService) transition(ctx context.Context, id string, event models.EventType, set map[string]any) (*models.Booking, error) {
	logger := utils.GetLogger()

	updated, err := svc.Repo.UpdateStatus(ctx, id, transitions[event], targetStatus[event], set)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrNotFound) {
			return nil, NewNotFoundError("booking %s not found", id)
		}
		if errors.Is(err, bookingRepo.ErrStatusChanged) {
			current, ferr := svc.Repo.FindByID(ctx, id)
			if ferr != nil {
				return nil, fmt.Errorf("failed to read booking %s after rejected transition: %w", id, ferr)
			}
			return nil, NewInvalidStateError("cannot apply %s: booking %s is %s", event, id, current.Status)
		}
		return nil, fmt.Errorf("transition %s failed for booking %s: %w", event, id, err)
	}

	logger.Info("booking transitioned",
		zap.String("bookingID", id),
		zap.String("event", string(event)),
		zap.String("status", string(updated.Status)))

	if err := svc.publish(ctx, event, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// publish hands the event to the broker. The store commit stands either
// way; a publish failure is surfaced so the caller knows the downstream
// fan-out did not start.
func (svc *DefaultBookingService) publish(ctx context.Context, event models.EventType, b *models.Booking) error {
	if err := svc.Publisher.Publish(ctx, models.NewLifecycleEvent(event, *b)); err != nil {
		utils.GetLogger().Error("failed to publish lifecycle event",
			zap.String("bookingID", b.ID),
			zap.String("event", string(event)),
			zap.Error(err))
		return NewUpstreamError("booking %s committed but %s event could not be queued", b.ID, event)
	}
	return nil
}
