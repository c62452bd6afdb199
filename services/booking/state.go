package booking

import "salonbook/models"

// transitions maps each lifecycle transition to its legal source statuses.
// NO_SHOW is a valid terminal status but is set by an external scheduling
// job, never through this service.
var transitions = map[models.EventType][]models.BookingStatus{
	models.EventBookingConfirmed: {models.StatusPending},
	models.EventBookingCancelled: {models.StatusPending, models.StatusConfirmed},
	models.EventBookingCompleted: {models.StatusConfirmed, models.StatusInProgress},
}

// targetStatus maps a transition to the status it commits.
var targetStatus = map[models.EventType]models.BookingStatus{
	models.EventBookingConfirmed: models.StatusConfirmed,
	models.EventBookingCancelled: models.StatusCancelled,
	models.EventBookingCompleted: models.StatusCompleted,
}
