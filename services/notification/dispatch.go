package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	bookingRepo "salonbook/database/repository/booking"
	notifylogRepo "salonbook/database/repository/notifylog"
	"salonbook/models"
	"salonbook/utils"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// sendTimeout bounds each channel call.
const sendTimeout = 10 * time.Second

// ledgerTTL keeps dispatch ledger keys around long enough to cover the
// broker's full retry window.
const ledgerTTL = 7 * 24 * time.Hour

// DispatchLedger records which (event, channel, recipient) sends already
// went out, so redelivery does not duplicate them. An entry is written
// only after the send succeeded: a worker that dies mid-dispatch leaves
// the key absent, and redelivery re-sends. Duplicate sends are tolerated;
// dropped sends are not.
type DispatchLedger interface {
	// Sent reports whether the key was already delivered.
	Sent(ctx context.Context, key string) (bool, error)
	// MarkSent records a completed delivery.
	MarkSent(ctx context.Context, key string) error
}

// RedisLedger implements DispatchLedger on plain keys with a TTL.
type RedisLedger struct {
	client *redis.Client
}

func NewRedisLedger(client *redis.Client) *RedisLedger {
	return &RedisLedger{client: client}
}

func (l *RedisLedger) Sent(ctx context.Context, key string) (bool, error) {
	n, err := l.client.Exists(ctx, key).Result()
	return n > 0, err
}

func (l *RedisLedger) MarkSent(ctx context.Context, key string) error {
	return l.client.Set(ctx, key, 1, ledgerTTL).Err()
}

// Dispatcher is the notification fan-out consumer. Each channel/recipient
// attempt runs independently: all attempts execute, all outcomes are
// collected and logged, and only then does the job report failure if any
// attempt failed.
type Dispatcher struct {
	Templates TemplateResolver
	Senders   []ChannelSender
	Log       notifylogRepo.NotificationLogRepository
	Ledger    DispatchLedger
	Repo      bookingRepo.BookingRepository
}

func NewDispatcher(
	templates TemplateResolver,
	senders []ChannelSender,
	logRepo notifylogRepo.NotificationLogRepository,
	ledger DispatchLedger,
	repo bookingRepo.BookingRepository,
) *Dispatcher {
	return &Dispatcher{
		Templates: templates,
		Senders:   senders,
		Log:       logRepo,
		Ledger:    ledger,
		Repo:      repo,
	}
}

// attempt is one (recipient, channel) delivery.
type attempt struct {
	recipient string
	contact   models.Contact
	sender    ChannelSender
}

// outcome is the settled result of one attempt.
type outcome struct {
	attempt attempt
	err     error
}

// HandleEvent processes one lifecycle event from the queue.
func (d *Dispatcher) HandleEvent(ctx context.Context, task *asynq.Task) error {
	logger := utils.GetLogger()

	var event models.LifecycleEvent
	if err := json.Unmarshal(task.Payload(), &event); err != nil {
		return fmt.Errorf("invalid event payload: %v: %w", err, asynq.SkipRetry)
	}

	booking := event.Booking
	if event.Type == models.EventBookingReminder {
		// Reminders fire hours after the snapshot was taken; re-derive
		// from a fresh store read and drop if no longer confirmed.
		fresh, err := d.Repo.FindByID(ctx, booking.ID)
		if errors.Is(err, bookingRepo.ErrNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to re-read booking %s for reminder: %w", booking.ID, err)
		}
		if fresh.Status != models.StatusConfirmed {
			logger.Debug("reminder suppressed, booking no longer confirmed",
				zap.String("bookingID", booking.ID), zap.String("status", string(fresh.Status)))
			return nil
		}
		booking = *fresh
	}

	attempts := d.buildAttempts(event.Type, booking)
	if len(attempts) == 0 {
		return nil
	}

	outcomes := d.dispatchAll(ctx, event, booking, attempts)

	var failed []error
	for _, o := range outcomes {
		d.logOutcome(ctx, event, booking, o)
		if o.err != nil {
			failed = append(failed, fmt.Errorf("%s/%s: %w", o.attempt.sender.Channel(), o.attempt.recipient, o.err))
		}
	}

	if len(failed) > 0 {
		// Surface so the broker retries; the ledger keeps already
		// delivered channels from being re-sent.
		return fmt.Errorf("%d of %d dispatches failed: %w", len(failed), len(outcomes), errors.Join(failed...))
	}
	return nil
}

// buildAttempts pairs recipients with the channels they can receive. The
// client is always notified; the owner only for created and cancelled.
func (d *Dispatcher) buildAttempts(event models.EventType, b models.Booking) []attempt {
	recipients := []struct {
		role    string
		contact models.Contact
	}{
		{models.RecipientClient, b.Client},
	}
	if event == models.EventBookingCreated || event == models.EventBookingCancelled {
		recipients = append(recipients, struct {
			role    string
			contact models.Contact
		}{models.RecipientOwner, b.Owner})
	}

	var attempts []attempt
	for _, r := range recipients {
		for _, sender := range d.Senders {
			if addressFor(sender.Channel(), r.contact) == "" {
				continue
			}
			attempts = append(attempts, attempt{recipient: r.role, contact: r.contact, sender: sender})
		}
	}
	return attempts
}

// dispatchAll runs every attempt and collects every outcome. Nothing
// short-circuits: one channel failing never blocks another.
func (d *Dispatcher) dispatchAll(ctx context.Context, event models.LifecycleEvent, b models.Booking, attempts []attempt) []outcome {
	outcomes := make([]outcome, len(attempts))
	var wg sync.WaitGroup

	for i, a := range attempts {
		wg.Add(1)
		go func(i int, a attempt) {
			defer wg.Done()
			outcomes[i] = outcome{attempt: a, err: d.dispatchOne(ctx, event, b, a)}
		}(i, a)
	}
	wg.Wait()
	return outcomes
}

// dispatchOne sends a single message, guarded by the idempotency ledger
// so a redelivered event does not re-send channels that already went out.
func (d *Dispatcher) dispatchOne(ctx context.Context, event models.LifecycleEvent, b models.Booking, a attempt) error {
	logger := utils.GetLogger()
	key := fmt.Sprintf("dispatch:%s:%s:%s", event.IdempotencyKey, a.sender.Channel(), a.recipient)

	sent, err := d.Ledger.Sent(ctx, key)
	if err != nil {
		// Ledger unavailable: fall through and send. Duplicate sends are
		// tolerated; dropped sends are not.
		logger.Warn("dispatch ledger unavailable", zap.String("key", key), zap.Error(err))
	} else if sent {
		logger.Debug("duplicate dispatch suppressed",
			zap.String("bookingID", b.ID),
			zap.String("channel", string(a.sender.Channel())),
			zap.String("recipient", a.recipient))
		return nil
	}

	template, err := d.Templates.Resolve(event.Type, a.sender.Channel())
	if err != nil {
		return fmt.Errorf("template resolution failed: %w", err)
	}

	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	if err := a.sender.Send(sendCtx, a.contact, template.Render(b, a.recipient)); err != nil {
		return err
	}

	// Recorded only after the send went out. A crash before this point
	// costs a duplicate on redelivery, never a lost notification.
	if err := d.Ledger.MarkSent(ctx, key); err != nil {
		logger.Warn("failed to record dispatch in ledger", zap.String("key", key), zap.Error(err))
	}
	return nil
}

// logOutcome appends one audit row. Audit logging must never fail the
// dispatch it is recording, so errors are swallowed.
func (d *Dispatcher) logOutcome(ctx context.Context, event models.LifecycleEvent, b models.Booking, o outcome) {
	entry := models.NotificationLogEntry{
		ID:             uuid.New().String(),
		BookingID:      b.ID,
		EventType:      event.Type,
		IdempotencyKey: event.IdempotencyKey,
		Channel:        o.attempt.sender.Channel(),
		Recipient:      o.attempt.recipient,
		Address:        addressFor(o.attempt.sender.Channel(), o.attempt.contact),
		Success:        o.err == nil,
		SentAt:         time.Now().UTC(),
	}
	if o.err != nil {
		entry.Error = o.err.Error()
	}

	if err := d.Log.Append(ctx, entry); err != nil {
		utils.GetLogger().Warn("failed to write notification log entry",
			zap.String("bookingID", b.ID),
			zap.String("channel", string(entry.Channel)),
			zap.Error(err))
	}
}

// addressFor returns the contact's address on the channel, or empty when
// the recipient cannot be reached there.
func addressFor(channel models.Channel, contact models.Contact) string {
	switch channel {
	case models.ChannelEmail:
		return contact.Email
	case models.ChannelSMS:
		return contact.Phone
	case models.ChannelChat:
		return contact.ChatToken
	}
	return ""
}
