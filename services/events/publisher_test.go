package events

import (
	"testing"

	"salonbook/models"

	"github.com/stretchr/testify/assert"
)

func TestTaskType(t *testing.T) {
	assert.Equal(t, "calendar:booking.confirmed", TaskType(GroupCalendar, models.EventBookingConfirmed))
	assert.Equal(t, "notify:booking.created", TaskType(GroupNotify, models.EventBookingCreated))
}

func TestSubscriptions_RoutingPerTopic(t *testing.T) {
	// The calendar consumer only cares about transitions that add or
	// remove an external event; everything notifies.
	assert.ElementsMatch(t, []string{GroupNotify}, subscriptions[models.EventBookingCreated])
	assert.ElementsMatch(t, []string{GroupCalendar, GroupNotify}, subscriptions[models.EventBookingConfirmed])
	assert.ElementsMatch(t, []string{GroupCalendar, GroupNotify}, subscriptions[models.EventBookingCancelled])
	assert.ElementsMatch(t, []string{GroupNotify}, subscriptions[models.EventBookingCompleted])
	assert.ElementsMatch(t, []string{GroupNotify}, subscriptions[models.EventBookingReminder])
}
