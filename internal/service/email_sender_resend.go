package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/resend/resend-go/v2"
)

type ResendEmailSender struct {
	From string
	send func(request *resend.SendEmailRequest) error
}

// NewResendEmailSender returns an unavailable sender when either the API key or
// the from address is missing.
func NewResendEmailSender(apiKey string, from string) *ResendEmailSender {
	if strings.TrimSpace(apiKey) == "" || strings.TrimSpace(from) == "" {
		return &ResendEmailSender{}
	}
	client := resend.NewClient(apiKey)
	return &ResendEmailSender{
		From: from,
		send: func(request *resend.SendEmailRequest) error {
			_, err := client.Emails.Send(request)
			return err
		},
	}
}

func (s *ResendEmailSender) Available() bool {
	return s != nil && s.send != nil && s.From != ""
}

func (s *ResendEmailSender) Send(ctx context.Context, message EmailMessage) error {
	if !s.Available() {
		return fmt.Errorf("resend: sender not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	request := &resend.SendEmailRequest{
		From:    s.From,
		To:      []string{message.To},
		Subject: message.Subject,
		Html:    message.HTML,
		Text:    message.Text,
	}
	if err := s.send(request); err != nil {
		return fmt.Errorf("resend: %w", err)
	}
	return nil
}
