package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

const emailCharset = "UTF-8"

type sesAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SESEmailSender struct {
	client sesAPI
	// This address must be verified with Amazon SES.
	from string
}

func NewSESEmailSender(awsConfig aws.Config, from string) *SESEmailSender {
	if strings.TrimSpace(from) == "" {
		return &SESEmailSender{}
	}
	return &SESEmailSender{client: ses.NewFromConfig(awsConfig), from: from}
}

func (s *SESEmailSender) Available() bool {
	return s != nil && s.client != nil && s.from != ""
}

func (s *SESEmailSender) Send(ctx context.Context, message EmailMessage) error {
	if !s.Available() {
		return fmt.Errorf("ses: sender not configured")
	}
	body := &types.Body{
		Html: &types.Content{Data: aws.String(message.HTML), Charset: aws.String(emailCharset)},
	}
	if message.Text != "" {
		body.Text = &types.Content{Data: aws.String(message.Text), Charset: aws.String(emailCharset)}
	}
	_, err := s.client.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(s.from),
		Destination: &types.Destination{
			ToAddresses: []string{message.To},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(message.Subject), Charset: aws.String(emailCharset)},
			Body:    body,
		},
	})
	if err != nil {
		return fmt.Errorf("ses: %w", err)
	}
	return nil
}
