package notify

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// LogNotifier writes account mail to the application log. Links carry live
// tokens, so they are only included when revealLinks is set (development).
type LogNotifier struct {
	log         *zap.Logger
	links       Links
	revealLinks bool
}

func NewLogNotifier(log *zap.Logger, links Links, revealLinks bool) *LogNotifier {
	return &LogNotifier{log: log, links: links, revealLinks: revealLinks}
}

func (n *LogNotifier) SendEmailVerification(_ context.Context, to Recipient, token string, expiresAt time.Time) error {
	n.write(EventEmailVerification, to, token, expiresAt)
	return nil
}

func (n *LogNotifier) SendPasswordReset(_ context.Context, to Recipient, token string, expiresAt time.Time) error {
	n.write(EventPasswordReset, to, token, expiresAt)
	return nil
}

func (n *LogNotifier) write(event string, to Recipient, token string, expiresAt time.Time) {
	fields := []zap.Field{
		zap.String("event", event),
		zap.String("user_id", to.UserID),
		zap.String("email", to.Email),
		zap.Time("expires_at", expiresAt),
	}
	if n.revealLinks {
		fields = append(fields, zap.String("url", n.links.For(event, token)))
	}
	n.log.Info("account mail queued", fields...)
}
