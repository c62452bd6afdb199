package notification

import (
	"context"

	"salonbook/models"
)

// Message is a rendered, channel-ready notification.
type Message struct {
	Subject string
	Body    string
}

// TemplateResolver supplies the message template for an (event, channel)
// pair. Template text is owned by an external collaborator; this package
// only substitutes booking fields into it.
type TemplateResolver interface {
	Resolve(event models.EventType, channel models.Channel) (Template, error)
}

// ChannelSender delivers a rendered message over one channel. Senders are
// independent: one failing must not affect the others.
type ChannelSender interface {
	Channel() models.Channel
	Send(ctx context.Context, recipient models.Contact, msg Message) error
}
