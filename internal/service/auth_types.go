package service

import (
	"context"
	"time"

	"catalance/internal/entity"
)

const (
	MinPasswordLength = 8
	MaxPasswordLength = 128
)

type AuthConfig struct {
	ResetTokenTTL time.Duration
	// FrontendURL is the base the reset link is built on.
	FrontendURL string
	AppName     string
}

type EmailMessage struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// EmailSender delivers transactional email. Available reports whether the
// transport has credentials at all; Send is only attempted when it does.
type EmailSender interface {
	Available() bool
	Send(ctx context.Context, message EmailMessage) error
}

type AccessTokenIssuer interface {
	IssueAccessToken(user entity.User) (string, time.Duration, error)
}

type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

// NoopEmailSender stands in when no transport is configured.
type NoopEmailSender struct{}

func (NoopEmailSender) Available() bool { return false }

func (NoopEmailSender) Send(context.Context, EmailMessage) error { return nil }
