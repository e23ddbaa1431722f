package notify

import (
	"context"
	"strings"
	"time"
)

const (
	EventEmailVerification = "email_verification"
	EventPasswordReset     = "password_reset"
)

// Recipient identifies who a message is for.
type Recipient struct {
	UserID string
	Email  string
	Name   string
}

// Notifier delivers account mail out of band.
type Notifier interface {
	SendEmailVerification(ctx context.Context, to Recipient, token string, expiresAt time.Time) error
	SendPasswordReset(ctx context.Context, to Recipient, token string, expiresAt time.Time) error
}

// Links renders the frontend URLs a token is delivered in.
type Links struct {
	base string
}

func NewLinks(frontendURL string) Links {
	return Links{base: strings.TrimRight(frontendURL, "/")}
}

func (l Links) VerifyEmail(token string) string {
	return l.base + "/verify-email/" + token
}

func (l Links) ResetPassword(token string) string {
	return l.base + "/reset-password/" + token
}

func (l Links) For(event, token string) string {
	if event == EventPasswordReset {
		return l.ResetPassword(token)
	}
	return l.VerifyEmail(token)
}
