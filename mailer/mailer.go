// Package mailer sends the interview emails volunteers file after recording.
package mailer

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

const (
	fromName  = "Miracle Messages"
	fromEmail = "no-reply@miraclemessages.org"
)

// Message is a single email with a plain text and an HTML body
type Message struct {
	ToName  string
	ToEmail string
	Subject string
	Plain   string
	HTML    string
}

// Sender delivers messages
type Sender interface {
	Send(ctx context.Context, m Message) error
}

// SendGrid sends mail through the SendGrid v3 API
type SendGrid struct {
	client *sendgrid.Client
	from   *mail.Email
}

// NewSendGrid returns a SendGrid sender for apiKey
func NewSendGrid(apiKey string) *SendGrid {
	return &SendGrid{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail(fromName, fromEmail),
	}
}

// Send delivers m
func (s *SendGrid) Send(ctx context.Context, m Message) error {
	msg := mail.NewSingleEmail(s.from, m.Subject, mail.NewEmail(m.ToName, m.ToEmail), m.Plain, m.HTML)
	response, err := s.client.SendWithContext(ctx, msg)
	if err != nil {
		zap.S().Errorw("failed to send email", "error", err, "to", m.ToEmail)
		return err
	}
	if response.StatusCode >= 400 {
		zap.S().Errorw("sendgrid returned error status", "status", response.StatusCode, "body", response.Body, "to", m.ToEmail)
		return fmt.Errorf("sendgrid error: status %d", response.StatusCode)
	}
	zap.S().Infow("email sent successfully", "to", m.ToEmail, "subject", m.Subject)
	return nil
}
