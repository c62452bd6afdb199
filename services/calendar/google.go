package calendar

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GoogleCalendarClient implements CalendarClient against the Google
// Calendar API using the client's own OAuth token.
type GoogleCalendarClient struct {
	oauthConfig *oauth2.Config
}

func NewGoogleCalendarClient(clientID, clientSecret string) *GoogleCalendarClient {
	return &GoogleCalendarClient{
		oauthConfig: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{gcal.CalendarEventsScope},
		},
	}
}

func (g *GoogleCalendarClient) service(ctx context.Context, token *oauth2.Token) (*gcal.Service, error) {
	ts := g.oauthConfig.TokenSource(ctx, token)
	srv, err := gcal.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("failed to build calendar service: %w", err)
	}
	return srv, nil
}

func (g *GoogleCalendarClient) CreateEvent(ctx context.Context, token *oauth2.Token, event ExternalEvent) (string, error) {
	srv, err := g.service(ctx, token)
	if err != nil {
		return "", err
	}

	entry := &gcal.Event{
		Summary:     event.Summary,
		Description: event.Description,
		Start: &gcal.EventDateTime{
			DateTime: event.Start.Format(time.RFC3339),
			TimeZone: event.TimeZone,
		},
		End: &gcal.EventDateTime{
			DateTime: event.End.Format(time.RFC3339),
			TimeZone: event.TimeZone,
		},
	}
	if event.AttendeeEmail != "" {
		entry.Attendees = []*gcal.EventAttendee{{Email: event.AttendeeEmail}}
	}

	created, err := srv.Events.Insert("primary", entry).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("calendar event insert failed: %w", err)
	}
	return created.Id, nil
}

// DeleteEvent removes the event; a 404/410 means it is already gone and
// counts as success.
func (g *GoogleCalendarClient) DeleteEvent(ctx context.Context, token *oauth2.Token, eventID string) error {
	srv, err := g.service(ctx, token)
	if err != nil {
		return err
	}

	err = srv.Events.Delete("primary", eventID).Context(ctx).Do()
	if err != nil {
		if eventAlreadyGone(err) {
			return nil
		}
		return fmt.Errorf("calendar event delete failed: %w", err)
	}
	return nil
}

// eventAlreadyGone reports whether the API says the event no longer
// exists upstream.
func eventAlreadyGone(err error) bool {
	gerr, ok := err.(*googleapi.Error)
	return ok && (gerr.Code == 404 || gerr.Code == 410)
}
