package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	bookingRepo "salonbook/database/repository/booking"
	"salonbook/models"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type fakeTokenStore struct {
	tokens map[string]*oauth2.Token
	err    error
}

func (s *fakeTokenStore) Token(_ context.Context, clientID string) (*oauth2.Token, error) {
	if s.err != nil {
		return nil, s.err
	}
	token, ok := s.tokens[clientID]
	if !ok {
		return nil, ErrNoLinkedCalendar
	}
	return token, nil
}

type fakeCalendarClient struct {
	created   []ExternalEvent
	deleted   []string
	createErr error
	deleteErr error
	nextID    string
}

func (c *fakeCalendarClient) CreateEvent(_ context.Context, _ *oauth2.Token, event ExternalEvent) (string, error) {
	if c.createErr != nil {
		return "", c.createErr
	}
	c.created = append(c.created, event)
	return c.nextID, nil
}

func (c *fakeCalendarClient) DeleteEvent(_ context.Context, _ *oauth2.Token, eventID string) error {
	if c.deleteErr != nil {
		return c.deleteErr
	}
	c.deleted = append(c.deleted, eventID)
	return nil
}

type fakeAttacher struct {
	attached map[string]string
	err      error
}

func (a *fakeAttacher) AttachExternalCalendarEventID(_ context.Context, id, eventID string) (*models.Booking, error) {
	if a.err != nil {
		return nil, a.err
	}
	if a.attached == nil {
		a.attached = map[string]string{}
	}
	a.attached[id] = eventID
	return &models.Booking{ID: id, CalendarEventID: eventID}, nil
}

func testBooking() models.Booking {
	return models.Booking{
		ID:       "bk-1",
		SalonID:  "salon-1",
		ClientID: "client-1",
		Items: []models.ServiceItem{
			{Name: "Haircut", Price: 35, DurationMin: 45},
		},
		TotalPrice: 35,
		Date:       "2026-09-01",
		Start:      540,
		End:        585,
		Status:     models.StatusConfirmed,
		Client:     models.Contact{Name: "Ada", Email: "ada@example.com"},
	}
}

func taskFor(t *testing.T, eventType models.EventType, b models.Booking) *asynq.Task {
	t.Helper()
	payload, err := json.Marshal(models.NewLifecycleEvent(eventType, b))
	require.NoError(t, err)
	return asynq.NewTask("calendar:"+string(eventType), payload)
}

// fakeReader serves fresh-read lookups during cancel handling.
type fakeReader struct {
	booking *models.Booking
	err     error
}

func (r *fakeReader) FindByID(_ context.Context, id string) (*models.Booking, error) {
	if r.err != nil {
		return nil, r.err
	}
	if r.booking == nil || r.booking.ID != id {
		return nil, bookingRepo.ErrNotFound
	}
	copy := *r.booking
	return &copy, nil
}

func newTestConsumer() (*SyncConsumer, *fakeTokenStore, *fakeCalendarClient, *fakeAttacher, *fakeReader) {
	tokens := &fakeTokenStore{tokens: map[string]*oauth2.Token{}}
	client := &fakeCalendarClient{nextID: "gcal-1"}
	attacher := &fakeAttacher{}
	reader := &fakeReader{}
	consumer := NewSyncConsumer(tokens, client, attacher, reader, time.UTC)
	return consumer, tokens, client, attacher, reader
}

func TestHandleConfirmed_CreatesAndAttaches(t *testing.T) {
	consumer, tokens, client, attacher, _ := newTestConsumer()
	tokens.tokens["client-1"] = &oauth2.Token{AccessToken: "at"}

	err := consumer.HandleConfirmed(context.Background(), taskFor(t, models.EventBookingConfirmed, testBooking()))
	require.NoError(t, err)

	require.Len(t, client.created, 1)
	event := client.created[0]
	assert.Equal(t, "Appointment: Haircut", event.Summary)
	assert.Equal(t, "ada@example.com", event.AttendeeEmail)
	assert.Equal(t, 9, event.Start.Hour())
	assert.Equal(t, 45*time.Minute, event.End.Sub(event.Start))

	assert.Equal(t, "gcal-1", attacher.attached["bk-1"])
}

func TestHandleConfirmed_NoLinkedCalendarSkips(t *testing.T) {
	consumer, _, client, attacher, _ := newTestConsumer()

	err := consumer.HandleConfirmed(context.Background(), taskFor(t, models.EventBookingConfirmed, testBooking()))
	require.NoError(t, err)

	assert.Empty(t, client.created)
	assert.Empty(t, attacher.attached)
}

func TestHandleConfirmed_CreateFailureIsRetryable(t *testing.T) {
	consumer, tokens, client, attacher, _ := newTestConsumer()
	tokens.tokens["client-1"] = &oauth2.Token{AccessToken: "at"}
	client.createErr = errors.New("calendar API 503")

	err := consumer.HandleConfirmed(context.Background(), taskFor(t, models.EventBookingConfirmed, testBooking()))
	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
	assert.Empty(t, attacher.attached)
}

func TestHandleConfirmed_AttachFailureIsRetryable(t *testing.T) {
	consumer, tokens, _, attacher, _ := newTestConsumer()
	tokens.tokens["client-1"] = &oauth2.Token{AccessToken: "at"}
	attacher.err = errors.New("store unavailable")

	err := consumer.HandleConfirmed(context.Background(), taskFor(t, models.EventBookingConfirmed, testBooking()))
	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
}

func TestHandleConfirmed_BadPayloadSkipsRetry(t *testing.T) {
	consumer, _, _, _, _ := newTestConsumer()
	task := asynq.NewTask("calendar:booking.confirmed", []byte("{not json"))

	err := consumer.HandleConfirmed(context.Background(), task)
	require.Error(t, err)
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}

func TestHandleCancelled_DeletesSyncedEvent(t *testing.T) {
	consumer, tokens, client, _, _ := newTestConsumer()
	tokens.tokens["client-1"] = &oauth2.Token{AccessToken: "at"}

	b := testBooking()
	b.Status = models.StatusCancelled
	b.CalendarEventID = "gcal-9"

	err := consumer.HandleCancelled(context.Background(), taskFor(t, models.EventBookingCancelled, b))
	require.NoError(t, err)
	assert.Equal(t, []string{"gcal-9"}, client.deleted)
}

func TestHandleCancelled_NeverSyncedSkips(t *testing.T) {
	consumer, tokens, client, _, _ := newTestConsumer()
	tokens.tokens["client-1"] = &oauth2.Token{AccessToken: "at"}

	b := testBooking()
	b.Status = models.StatusCancelled

	err := consumer.HandleCancelled(context.Background(), taskFor(t, models.EventBookingCancelled, b))
	require.NoError(t, err)
	assert.Empty(t, client.deleted)
}

func TestHandleCancelled_NoLinkedCalendarSkips(t *testing.T) {
	consumer, _, client, _, _ := newTestConsumer()

	b := testBooking()
	b.Status = models.StatusCancelled
	b.CalendarEventID = "gcal-9"

	err := consumer.HandleCancelled(context.Background(), taskFor(t, models.EventBookingCancelled, b))
	require.NoError(t, err)
	assert.Empty(t, client.deleted)
}

func TestHandleCancelled_FreshReadFindsLateAttachedEvent(t *testing.T) {
	consumer, tokens, client, _, reader := newTestConsumer()
	tokens.tokens["client-1"] = &oauth2.Token{AccessToken: "at"}

	// The cancel snapshot predates the confirmed sync's attach; the store
	// has the id by the time this handler runs.
	b := testBooking()
	b.Status = models.StatusCancelled

	synced := b
	synced.CalendarEventID = "gcal-7"
	reader.booking = &synced

	err := consumer.HandleCancelled(context.Background(), taskFor(t, models.EventBookingCancelled, b))
	require.NoError(t, err)
	assert.Equal(t, []string{"gcal-7"}, client.deleted)
}

func TestHandleCancelled_FreshReadFailureIsRetryable(t *testing.T) {
	consumer, tokens, client, _, reader := newTestConsumer()
	tokens.tokens["client-1"] = &oauth2.Token{AccessToken: "at"}
	reader.err = errors.New("store unavailable")

	b := testBooking()
	b.Status = models.StatusCancelled

	err := consumer.HandleCancelled(context.Background(), taskFor(t, models.EventBookingCancelled, b))
	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
	assert.Empty(t, client.deleted)
}

func TestHandleCancelled_DeleteFailureIsRetryable(t *testing.T) {
	consumer, tokens, client, _, _ := newTestConsumer()
	tokens.tokens["client-1"] = &oauth2.Token{AccessToken: "at"}
	client.deleteErr = errors.New("calendar API 500")

	b := testBooking()
	b.Status = models.StatusCancelled
	b.CalendarEventID = "gcal-9"

	err := consumer.HandleCancelled(context.Background(), taskFor(t, models.EventBookingCancelled, b))
	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
}
