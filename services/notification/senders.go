package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"salonbook/models"

	"firebase.google.com/go/v4/messaging"
)

// HTTPEmailSender posts messages to a transactional email provider API.
type HTTPEmailSender struct {
	apiURL string
	apiKey string
	from   string
	client *http.Client
}

func NewHTTPEmailSender(apiURL, apiKey, from string) *HTTPEmailSender {
	return &HTTPEmailSender{
		apiURL: apiURL,
		apiKey: apiKey,
		from:   from,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *HTTPEmailSender) Channel() models.Channel { return models.ChannelEmail }

func (s *HTTPEmailSender) Send(ctx context.Context, recipient models.Contact, msg Message) error {
	if recipient.Email == "" {
		return fmt.Errorf("recipient %s has no email address", recipient.Name)
	}
	payload := map[string]string{
		"from":    s.from,
		"to":      recipient.Email,
		"subject": msg.Subject,
		"body":    msg.Body,
	}
	return s.post(ctx, payload)
}

func (s *HTTPEmailSender) post(ctx context.Context, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal email payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("email provider unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("email provider returned status %d", resp.StatusCode)
	}
	return nil
}

// HTTPSMSSender posts messages to an SMS gateway API.
type HTTPSMSSender struct {
	apiURL string
	apiKey string
	client *http.Client
}

func NewHTTPSMSSender(apiURL, apiKey string) *HTTPSMSSender {
	return &HTTPSMSSender{
		apiURL: apiURL,
		apiKey: apiKey,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *HTTPSMSSender) Channel() models.Channel { return models.ChannelSMS }

func (s *HTTPSMSSender) Send(ctx context.Context, recipient models.Contact, msg Message) error {
	if recipient.Phone == "" {
		return fmt.Errorf("recipient %s has no phone number", recipient.Name)
	}
	body, err := json.Marshal(map[string]string{
		"to":      recipient.Phone,
		"message": msg.Body,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal sms payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("sms gateway unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
	}
	return nil
}

// FCMChatSender delivers the chat channel as a push message.
type FCMChatSender struct {
	client *messaging.Client
}

func NewFCMChatSender(client *messaging.Client) *FCMChatSender {
	return &FCMChatSender{client: client}
}

func (s *FCMChatSender) Channel() models.Channel { return models.ChannelChat }

func (s *FCMChatSender) Send(ctx context.Context, recipient models.Contact, msg Message) error {
	if recipient.ChatToken == "" {
		return fmt.Errorf("recipient %s has no chat token", recipient.Name)
	}
	_, err := s.client.Send(ctx, &messaging.Message{
		Token: recipient.ChatToken,
		Notification: &messaging.Notification{
			Title: msg.Subject,
			Body:  msg.Body,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send chat push: %w", err)
	}
	return nil
}
