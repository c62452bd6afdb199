package notification

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	bookingRepo "salonbook/database/repository/booking"
	"salonbook/models"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMessage struct {
	address string
	msg     Message
}

// fakeSender records sends; safe for concurrent use since attempts run in
// parallel.
type fakeSender struct {
	channel models.Channel
	mu      sync.Mutex
	sent    []sentMessage
	err     error
}

func (s *fakeSender) Channel() models.Channel { return s.channel }

func (s *fakeSender) Send(_ context.Context, recipient models.Contact, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	address := recipient.Email
	if s.channel == models.ChannelSMS {
		address = recipient.Phone
	} else if s.channel == models.ChannelChat {
		address = recipient.ChatToken
	}
	s.sent = append(s.sent, sentMessage{address: address, msg: msg})
	return nil
}

func (s *fakeSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

type fakeLogRepo struct {
	mu      sync.Mutex
	entries []models.NotificationLogEntry
	err     error
}

func (r *fakeLogRepo) Append(_ context.Context, entry models.NotificationLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeLogRepo) FindByBooking(_ context.Context, bookingID string) ([]models.NotificationLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.NotificationLogEntry
	for _, e := range r.entries {
		if e.BookingID == bookingID {
			out = append(out, e)
		}
	}
	return out, nil
}

// memLedger is an in-memory DispatchLedger.
type memLedger struct {
	mu      sync.Mutex
	sent    map[string]struct{}
	err     error
	markErr error
}

func newMemLedger() *memLedger {
	return &memLedger{sent: map[string]struct{}{}}
}

func (l *memLedger) Sent(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return false, l.err
	}
	_, ok := l.sent[key]
	return ok, nil
}

func (l *memLedger) MarkSent(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.markErr != nil {
		return l.markErr
	}
	l.sent[key] = struct{}{}
	return nil
}

func (l *memLedger) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.sent)
}

// staticBookingRepo serves reminder re-reads.
type staticBookingRepo struct {
	booking *models.Booking
	err     error
}

func (r *staticBookingRepo) FindByID(_ context.Context, id string) (*models.Booking, error) {
	if r.err != nil {
		return nil, r.err
	}
	if r.booking == nil || r.booking.ID != id {
		return nil, bookingRepo.ErrNotFound
	}
	copy := *r.booking
	return &copy, nil
}

func (r *staticBookingRepo) FindOverlapping(context.Context, string, string, string, int, int) ([]models.Booking, error) {
	return nil, nil
}

func (r *staticBookingRepo) FindBlocking(context.Context, string, string) ([]models.Booking, error) {
	return nil, nil
}

func (r *staticBookingRepo) ConditionalInsert(context.Context, *models.Booking) error {
	return nil
}

func (r *staticBookingRepo) UpdateStatus(context.Context, string, []models.BookingStatus, models.BookingStatus, map[string]any) (*models.Booking, error) {
	return nil, bookingRepo.ErrNotFound
}

func (r *staticBookingRepo) AttachCalendarEventID(context.Context, string, string) (*models.Booking, error) {
	return nil, bookingRepo.ErrNotFound
}

func dispatchBooking() models.Booking {
	return models.Booking{
		ID:      "bk-1",
		SalonID: "salon-1",
		Items: []models.ServiceItem{
			{Name: "Haircut", Price: 35, DurationMin: 45},
		},
		TotalPrice: 35,
		Date:       "2026-09-01",
		Start:      540,
		End:        585,
		Status:     models.StatusConfirmed,
		Client: models.Contact{
			Name: "Ada", Email: "ada@example.com", Phone: "+254700000001", ChatToken: "fcm-ada",
		},
		Owner: models.Contact{
			Name: "Olu", Email: "olu@example.com", Phone: "+254700000002",
		},
	}
}

func eventTask(t *testing.T, eventType models.EventType, b models.Booking) *asynq.Task {
	t.Helper()
	payload, err := json.Marshal(models.NewLifecycleEvent(eventType, b))
	require.NoError(t, err)
	return asynq.NewTask("notify:"+string(eventType), payload)
}

type dispatchFixture struct {
	dispatcher *Dispatcher
	email      *fakeSender
	sms        *fakeSender
	chat       *fakeSender
	log        *fakeLogRepo
	ledger     *memLedger
	repo       *staticBookingRepo
}

func newDispatchFixture() *dispatchFixture {
	f := &dispatchFixture{
		email:  &fakeSender{channel: models.ChannelEmail},
		sms:    &fakeSender{channel: models.ChannelSMS},
		chat:   &fakeSender{channel: models.ChannelChat},
		log:    &fakeLogRepo{},
		ledger: newMemLedger(),
		repo:   &staticBookingRepo{},
	}
	f.dispatcher = NewDispatcher(
		NewStaticTemplates(),
		[]ChannelSender{f.email, f.sms, f.chat},
		f.log,
		f.ledger,
		f.repo,
	)
	return f
}

func TestHandleEvent_ConfirmedNotifiesClientOnAllChannels(t *testing.T) {
	f := newDispatchFixture()

	err := f.dispatcher.HandleEvent(context.Background(), eventTask(t, models.EventBookingConfirmed, dispatchBooking()))
	require.NoError(t, err)

	// The owner has no chat token, and confirmed only goes to the client
	// anyway: exactly one send per channel.
	assert.Equal(t, 1, f.email.count())
	assert.Equal(t, 1, f.sms.count())
	assert.Equal(t, 1, f.chat.count())

	assert.Equal(t, "ada@example.com", f.email.sent[0].address)
	assert.Contains(t, f.email.sent[0].msg.Body, "Haircut")
	assert.Contains(t, f.email.sent[0].msg.Body, "Ada")
	assert.Contains(t, f.email.sent[0].msg.Subject, "confirmed")

	entries, _ := f.log.FindByBooking(context.Background(), "bk-1")
	assert.Len(t, entries, 3)
	for _, e := range entries {
		assert.True(t, e.Success)
		assert.Equal(t, models.RecipientClient, e.Recipient)
	}
}

func TestHandleEvent_CreatedNotifiesOwnerToo(t *testing.T) {
	f := newDispatchFixture()

	err := f.dispatcher.HandleEvent(context.Background(), eventTask(t, models.EventBookingCreated, dispatchBooking()))
	require.NoError(t, err)

	// Client on 3 channels, owner on email and sms (no chat token).
	assert.Equal(t, 2, f.email.count())
	assert.Equal(t, 2, f.sms.count())
	assert.Equal(t, 1, f.chat.count())

	entries, _ := f.log.FindByBooking(context.Background(), "bk-1")
	roles := map[string]int{}
	for _, e := range entries {
		roles[e.Recipient]++
	}
	assert.Equal(t, 3, roles[models.RecipientClient])
	assert.Equal(t, 2, roles[models.RecipientOwner])
}

func TestHandleEvent_OneChannelFailingDoesNotBlockOthers(t *testing.T) {
	f := newDispatchFixture()
	f.email.err = errors.New("smtp relay down")

	err := f.dispatcher.HandleEvent(context.Background(), eventTask(t, models.EventBookingConfirmed, dispatchBooking()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 3 dispatches failed")

	// The other channels still went out.
	assert.Equal(t, 1, f.sms.count())
	assert.Equal(t, 1, f.chat.count())

	// Every attempt was logged, the failure with its error.
	entries, _ := f.log.FindByBooking(context.Background(), "bk-1")
	require.Len(t, entries, 3)
	failures := 0
	for _, e := range entries {
		if !e.Success {
			failures++
			assert.Equal(t, models.ChannelEmail, e.Channel)
			assert.Contains(t, e.Error, "smtp relay down")
		}
	}
	assert.Equal(t, 1, failures)
}

func TestHandleEvent_RedeliveryOnlyRetriesFailedChannel(t *testing.T) {
	f := newDispatchFixture()
	f.email.err = errors.New("smtp relay down")

	task := eventTask(t, models.EventBookingConfirmed, dispatchBooking())
	err := f.dispatcher.HandleEvent(context.Background(), task)
	require.Error(t, err)

	// Broker redelivers; email recovered in the meantime.
	f.email.mu.Lock()
	f.email.err = nil
	f.email.mu.Unlock()

	err = f.dispatcher.HandleEvent(context.Background(), task)
	require.NoError(t, err)

	// SMS and chat were not re-sent; email went out exactly once.
	assert.Equal(t, 1, f.email.count())
	assert.Equal(t, 1, f.sms.count())
	assert.Equal(t, 1, f.chat.count())
}

func TestHandleEvent_LedgerRecordsOnlySuccessfulSends(t *testing.T) {
	f := newDispatchFixture()
	f.email.err = errors.New("smtp relay down")

	err := f.dispatcher.HandleEvent(context.Background(), eventTask(t, models.EventBookingConfirmed, dispatchBooking()))
	require.Error(t, err)

	// Only sms and chat made it out, so only their keys are recorded.
	// Nothing is written before a send: a worker dying mid-dispatch leaves
	// the ledger empty for undelivered channels, and redelivery sends them.
	assert.Equal(t, 2, f.ledger.size())

	err = f.dispatcher.HandleEvent(context.Background(), eventTask(t, models.EventBookingConfirmed, dispatchBooking()))
	require.Error(t, err)
	assert.Equal(t, 2, f.email.count()+f.sms.count()+f.chat.count())
}

func TestHandleEvent_MarkFailureStillDelivers(t *testing.T) {
	f := newDispatchFixture()
	f.ledger.markErr = errors.New("redis write failed")

	err := f.dispatcher.HandleEvent(context.Background(), eventTask(t, models.EventBookingConfirmed, dispatchBooking()))
	require.NoError(t, err)

	// The send stands even though it could not be recorded; the worst
	// case on redelivery is a duplicate.
	assert.Equal(t, 1, f.email.count())
	assert.Equal(t, 0, f.ledger.size())
}

func TestHandleEvent_SkipsChannelsWithoutAddress(t *testing.T) {
	f := newDispatchFixture()

	b := dispatchBooking()
	b.Client = models.Contact{Name: "Ada", Email: "ada@example.com"}

	err := f.dispatcher.HandleEvent(context.Background(), eventTask(t, models.EventBookingConfirmed, b))
	require.NoError(t, err)

	assert.Equal(t, 1, f.email.count())
	assert.Equal(t, 0, f.sms.count())
	assert.Equal(t, 0, f.chat.count())
}

func TestHandleEvent_BadPayloadSkipsRetry(t *testing.T) {
	f := newDispatchFixture()
	task := asynq.NewTask("notify:booking.confirmed", []byte("{not json"))

	err := f.dispatcher.HandleEvent(context.Background(), task)
	require.Error(t, err)
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}

func TestHandleEvent_ReminderUsesFreshSnapshot(t *testing.T) {
	f := newDispatchFixture()

	fresh := dispatchBooking()
	fresh.Notes = "moved to chair 2"
	f.repo.booking = &fresh

	stale := dispatchBooking()
	err := f.dispatcher.HandleEvent(context.Background(), eventTask(t, models.EventBookingReminder, stale))
	require.NoError(t, err)

	assert.Equal(t, 1, f.email.count())
	assert.Contains(t, f.email.sent[0].msg.Subject, "Upcoming")
}

func TestHandleEvent_ReminderSuppressedWhenNoLongerConfirmed(t *testing.T) {
	f := newDispatchFixture()

	cancelled := dispatchBooking()
	cancelled.Status = models.StatusCancelled
	f.repo.booking = &cancelled

	err := f.dispatcher.HandleEvent(context.Background(), eventTask(t, models.EventBookingReminder, dispatchBooking()))
	require.NoError(t, err)

	assert.Equal(t, 0, f.email.count())
	assert.Equal(t, 0, f.sms.count())
	assert.Equal(t, 0, f.chat.count())
}

func TestHandleEvent_ReminderForDeletedBookingDropsSilently(t *testing.T) {
	f := newDispatchFixture()
	// repo has no booking at all

	err := f.dispatcher.HandleEvent(context.Background(), eventTask(t, models.EventBookingReminder, dispatchBooking()))
	require.NoError(t, err)
	assert.Equal(t, 0, f.email.count())
}

func TestHandleEvent_LogFailureDoesNotFailDispatch(t *testing.T) {
	f := newDispatchFixture()
	f.log.err = errors.New("mongo write concern")

	err := f.dispatcher.HandleEvent(context.Background(), eventTask(t, models.EventBookingConfirmed, dispatchBooking()))
	require.NoError(t, err)
	assert.Equal(t, 1, f.email.count())
}

func TestHandleEvent_LedgerUnavailableStillSends(t *testing.T) {
	f := newDispatchFixture()
	f.ledger.err = errors.New("redis timeout")

	err := f.dispatcher.HandleEvent(context.Background(), eventTask(t, models.EventBookingConfirmed, dispatchBooking()))
	require.NoError(t, err)

	// Sends proceed without de-dup rather than being dropped.
	assert.Equal(t, 1, f.email.count())
	assert.Equal(t, 1, f.sms.count())
}
