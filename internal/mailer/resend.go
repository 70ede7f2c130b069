package mailer

import (
	"context"
	"errors"
	"os"

	"github.com/resend/resend-go/v2"
)

// ResendSender delivers through the Resend API.
type ResendSender struct {
	client *resend.Client
}

// NewResendSender fails fast when the API key is missing rather than letting
// every send attempt retry against a misconfigured client.
func NewResendSender() (*ResendSender, error) {
	key := os.Getenv("RESEND_API_KEY")
	if key == "" {
		return nil, errors.New("RESEND_API_KEY environment variable is not set")
	}
	return &ResendSender{client: resend.NewClient(key)}, nil
}

func (s *ResendSender) Send(ctx context.Context, m *Message) (string, error) {
	sent, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    m.From,
		To:      []string{m.To},
		Subject: m.Subject,
		Html:    m.HTML,
		Headers: m.Headers,
	})
	if err != nil {
		return "", err
	}
	return sent.Id, nil
}
