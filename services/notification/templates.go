package notification

import (
	"fmt"
	"strings"

	"salonbook/models"
)

// Template is message text with {{field}} placeholders.
type Template struct {
	Subject string
	Body    string
}

// Render substitutes booking fields into the template.
func (t Template) Render(b models.Booking, recipient string) Message {
	name := b.Client.Name
	if recipient == models.RecipientOwner {
		name = b.Owner.Name
	}
	r := strings.NewReplacer(
		"{{name}}", name,
		"{{services}}", b.ServiceSummary(),
		"{{date}}", b.Date,
		"{{time}}", models.MinutesToClock(b.Start),
		"{{price}}", fmt.Sprintf("%.2f", b.TotalPrice),
		"{{reason}}", b.CancellationReason,
	)
	return Message{Subject: r.Replace(t.Subject), Body: r.Replace(t.Body)}
}

type templateKey struct {
	event   models.EventType
	channel models.Channel
}

// StaticTemplates is the built-in template set, used when no external
// template service is configured.
type StaticTemplates struct {
	templates map[templateKey]Template
}

func NewStaticTemplates() *StaticTemplates {
	s := &StaticTemplates{templates: map[templateKey]Template{}}

	bodies := map[models.EventType]string{
		models.EventBookingCreated:   "Hi {{name}}, your booking for {{services}} on {{date}} at {{time}} was received and is awaiting confirmation.",
		models.EventBookingConfirmed: "Hi {{name}}, your booking for {{services}} on {{date}} at {{time}} is confirmed. Total: {{price}}.",
		models.EventBookingCancelled: "Hi {{name}}, the booking for {{services}} on {{date}} at {{time}} was cancelled. Reason: {{reason}}.",
		models.EventBookingCompleted: "Hi {{name}}, thanks for visiting! Your {{services}} appointment is complete.",
		models.EventBookingReminder:  "Hi {{name}}, a reminder: {{services}} on {{date}} at {{time}}.",
	}
	subjects := map[models.EventType]string{
		models.EventBookingCreated:   "Booking received: {{services}} on {{date}}",
		models.EventBookingConfirmed: "Booking confirmed: {{services}} on {{date}}",
		models.EventBookingCancelled: "Booking cancelled: {{services}} on {{date}}",
		models.EventBookingCompleted: "Thanks for your visit",
		models.EventBookingReminder:  "Upcoming appointment: {{services}}",
	}

	for event, body := range bodies {
		for _, ch := range []models.Channel{models.ChannelEmail, models.ChannelSMS, models.ChannelChat} {
			t := Template{Body: body}
			if ch == models.ChannelEmail {
				t.Subject = subjects[event]
			} else if ch == models.ChannelChat {
				t.Subject = subjects[event]
			}
			s.templates[templateKey{event, ch}] = t
		}
	}
	return s
}

func (s *StaticTemplates) Resolve(event models.EventType, channel models.Channel) (Template, error) {
	t, ok := s.templates[templateKey{event, channel}]
	if !ok {
		return Template{}, fmt.Errorf("no template for %s/%s", event, channel)
	}
	return t, nil
}
