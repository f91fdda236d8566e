package utils

import (
	"context"
	"fmt"
	"log"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Message is a single plain-text plus HTML notification.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Mailer delivers notifications.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SendGridMailer sends mail through the SendGrid v3 API.
type SendGridMailer struct {
	client *sendgrid.Client
	from   *mail.Email
}

func NewSendGridMailer(apiKey, from string) *SendGridMailer {
	return &SendGridMailer{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail("TaskFlow", from),
	}
}

func (m *SendGridMailer) Send(ctx context.Context, msg Message) error {
	message := mail.NewSingleEmail(m.from, msg.Subject, mail.NewEmail("", msg.To), msg.Text, msg.HTML)

	response, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	if response.StatusCode >= 300 {
		return fmt.Errorf("sendgrid rejected email: status %d: %s", response.StatusCode, response.Body)
	}

	log.Printf("email %q sent to %s", msg.Subject, msg.To)
	return nil
}

// LogMailer writes notifications to the log instead of sending them.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, msg Message) error {
	log.Printf("email to %s: %s: %s", msg.To, msg.Subject, msg.Text)
	return nil
}

// NewMailer returns a SendGrid mailer when apiKey is set and a LogMailer otherwise.
func NewMailer(apiKey, from string) Mailer {
	if apiKey == "" {
		return LogMailer{}
	}
	return NewSendGridMailer(apiKey, from)
}
