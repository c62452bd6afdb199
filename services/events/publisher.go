package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"salonbook/models"
	"salonbook/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Consumer group names. Each group gets its own copy of an event so
// retries and failures stay isolated per consumer.
const (
	GroupCalendar = "calendar"
	GroupNotify   = "notify"
)

// subscriptions maps each topic to the groups that consume it.
var subscriptions = map[models.EventType][]string{
	models.EventBookingCreated:   {GroupNotify},
	models.EventBookingConfirmed: {GroupCalendar, GroupNotify},
	models.EventBookingCancelled: {GroupCalendar, GroupNotify},
	models.EventBookingCompleted: {GroupNotify},
	models.EventBookingReminder:  {GroupNotify},
}

// TaskType builds the asynq task type for a (group, topic) pair.
func TaskType(group string, topic models.EventType) string {
	return group + ":" + string(topic)
}

// reminderLead is how long before the appointment start the reminder
// dispatch fires.
const reminderLead = 2 * time.Hour

// AsynqPublisher appends lifecycle events to the redis-backed broker.
// One task is enqueued per subscribed consumer group, giving each group
// independent at-least-once delivery with backoff.
type AsynqPublisher struct {
	client   *asynq.Client
	maxRetry int
	location *time.Location
}

func NewAsynqPublisher(client *asynq.Client, maxRetry int, loc *time.Location) *AsynqPublisher {
	return &AsynqPublisher{client: client, maxRetry: maxRetry, location: loc}
}

// Publish fans the event out to every subscribed group. Enqueueing is
// all-or-error from the caller's view: the first failed enqueue aborts
// and surfaces, so the lifecycle service can report the publish failure.
func (p *AsynqPublisher) Publish(ctx context.Context, event models.LifecycleEvent) error {
	logger := utils.GetLogger()

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal lifecycle event: %w", err)
	}

	for _, group := range subscriptions[event.Type] {
		task := asynq.NewTask(TaskType(group, event.Type), payload)
		opts := []asynq.Option{
			asynq.MaxRetry(p.maxRetry),
			asynq.Timeout(30 * time.Second),
		}
		if _, err := p.client.EnqueueContext(ctx, task, opts...); err != nil {
			return fmt.Errorf("failed to enqueue %s for group %s: %w", event.Type, group, err)
		}
		logger.Debug("lifecycle event enqueued",
			zap.String("topic", string(event.Type)),
			zap.String("group", group),
			zap.String("idempotencyKey", event.IdempotencyKey))
	}

	if event.Type == models.EventBookingConfirmed {
		if err := p.scheduleReminder(ctx, event); err != nil {
			// The confirm fan-out already ran; a reminder that cannot be
			// scheduled is logged, not surfaced.
			logger.Warn("failed to schedule booking reminder",
				zap.String("bookingID", event.Booking.ID), zap.Error(err))
		}
	}
	return nil
}

// scheduleReminder enqueues a delayed reminder dispatch for a confirmed
// booking. The consumer re-reads the booking before sending, so a later
// cancellation suppresses it.
func (p *AsynqPublisher) scheduleReminder(ctx context.Context, event models.LifecycleEvent) error {
	day, err := time.ParseInLocation("2006-01-02", event.Booking.Date, p.location)
	if err != nil {
		return fmt.Errorf("invalid booking date %q: %w", event.Booking.Date, err)
	}
	start := day.Add(time.Duration(event.Booking.Start) * time.Minute)
	fireAt := start.Add(-reminderLead)
	if !fireAt.After(time.Now()) {
		return nil
	}

	reminder := models.NewLifecycleEvent(models.EventBookingReminder, event.Booking)
	payload, err := json.Marshal(reminder)
	if err != nil {
		return fmt.Errorf("failed to marshal reminder event: %w", err)
	}

	task := asynq.NewTask(TaskType(GroupNotify, models.EventBookingReminder), payload)
	_, err = p.client.EnqueueContext(ctx, task,
		asynq.ProcessAt(fireAt),
		asynq.MaxRetry(p.maxRetry),
		asynq.Timeout(30*time.Second))
	if err != nil {
		return fmt.Errorf("failed to enqueue reminder: %w", err)
	}
	return nil
}
