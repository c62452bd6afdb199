package models

import "time"

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	StatusPending    BookingStatus = "PENDING"
	StatusConfirmed  BookingStatus = "CONFIRMED"
	StatusInProgress BookingStatus = "IN_PROGRESS"
	StatusCompleted  BookingStatus = "COMPLETED"
	StatusCancelled  BookingStatus = "CANCELLED"
	StatusNoShow     BookingStatus = "NO_SHOW"
)

// IsTerminal reports whether no further transition is defined from s.
func (s BookingStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusNoShow
}

// BlocksSlot reports whether a booking in this status still occupies its
// time interval. Cancelled and no-show bookings free the slot.
func (s BookingStatus) BlocksSlot() bool {
	return s != StatusCancelled && s != StatusNoShow
}

// ServiceItem is one line of a booking, frozen at creation.
type ServiceItem struct {
	ServiceID   string  `bson:"service_id" json:"serviceId"`
	Name        string  `bson:"name" json:"name"`
	Price       float64 `bson:"price" json:"price"`
	DurationMin int     `bson:"duration_min" json:"durationMin"`
}

// Contact is a denormalized recipient snapshot carried on the booking so
// queue consumers never look identities up.
type Contact struct {
	Name      string `bson:"name" json:"name"`
	Email     string `bson:"email,omitempty" json:"email,omitempty"`
	Phone     string `bson:"phone,omitempty" json:"phone,omitempty"`
	ChatToken string `bson:"chat_token,omitempty" json:"chatToken,omitempty"`
}

// Booking represents a reservation of a salon's time.
// Start and End are minutes from midnight; [Start, End) is half-open.
type Booking struct {
	ID       string `bson:"id" json:"id"`
	SalonID  string `bson:"salon_id" json:"salonId"`
	ClientID string `bson:"client_id" json:"clientId"`
	StaffID  string `bson:"staff_id,omitempty" json:"staffId,omitempty"`

	Items            []ServiceItem `bson:"items" json:"items"`
	TotalDurationMin int           `bson:"total_duration_min" json:"totalDurationMin"`
	TotalPrice       float64       `bson:"total_price" json:"totalPrice"`

	Date  string `bson:"date" json:"date"` // "YYYY-MM-DD"
	Start int    `bson:"start" json:"start"`
	End   int    `bson:"end" json:"end"`

	Status BookingStatus `bson:"status" json:"status"`
	Notes  string        `bson:"notes,omitempty" json:"notes,omitempty"`

	// Set exactly once, on cancel.
	CancelledBy        string `bson:"cancelled_by,omitempty" json:"cancelledBy,omitempty"`
	CancellationReason string `bson:"cancellation_reason,omitempty" json:"cancellationReason,omitempty"`

	// Set exactly once, by the calendar sync consumer.
	CalendarEventID string `bson:"calendar_event_id,omitempty" json:"calendarEventId,omitempty"`

	Client Contact `bson:"client" json:"client"`
	Owner  Contact `bson:"owner" json:"owner"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// Overlaps reports whether the booking's interval intersects [start, end)
// on the same date. A booking ending at 10:00 does not conflict with one
// starting at 10:00.
func (b *Booking) Overlaps(date string, start, end int) bool {
	return b.Date == date && b.Start < end && start < b.End
}

// ServiceSummary joins the line item names for human-readable output.
func (b *Booking) ServiceSummary() string {
	summary := ""
	for i, item := range b.Items {
		if i > 0 {
			summary += ", "
		}
		summary += item.Name
	}
	return summary
}
