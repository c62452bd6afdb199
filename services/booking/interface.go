package booking

import (
	"context"

	bookingRepo "salonbook/database/repository/booking"
	"salonbook/models"
)

// EventPublisher appends a lifecycle event to the durable queue. Publish
// is called only after the corresponding store write committed.
type EventPublisher interface {
	Publish(ctx context.Context, event models.LifecycleEvent) error
}

// CreateBookingInput is the validated payload for a new booking. Client
// and Owner contacts arrive denormalized from the API layer; the core
// never looks identities up.
type CreateBookingInput struct {
	SalonID string               `json:"salonId" binding:"required"`
	StaffID string               `json:"staffId"`
	Date    string               `json:"date" binding:"required"`
	Start   int                  `json:"start"`
	Items   []models.ServiceItem `json:"items" binding:"required"`
	Notes   string               `json:"notes"`
	Client  models.Contact       `json:"client"`
	Owner   models.Contact       `json:"owner"`
}

// BookingService orchestrates the booking lifecycle. Every successful
// transition emits exactly one lifecycle event after the commit.
type BookingService interface {
	GetAvailableSlots(ctx context.Context, salonID, date string, durationMin int) (models.DayAvailability, error)
	CreateBooking(ctx context.Context, input CreateBookingInput, clientID string) (*models.Booking, error)
	ConfirmBooking(ctx context.Context, id string) (*models.Booking, error)
	CancelBooking(ctx context.Context, id, actorID, reason string) (*models.Booking, error)
	CompleteBooking(ctx context.Context, id string) (*models.Booking, error)
	AttachExternalCalendarEventID(ctx context.Context, id, eventID string) (*models.Booking, error)
}

// DefaultBookingService is the production implementation.
type DefaultBookingService struct {
	Repo      bookingRepo.BookingRepository
	Publisher EventPublisher
	Window    OperatingWindow
}
