package auth

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// TokenSweeper clears single-use token hashes once they can no longer be
// redeemed, so stale hashes do not linger on account rows.
type TokenSweeper struct {
	repo     Repository
	interval time.Duration
	log      *zap.Logger
	now      func() time.Time
}

func NewTokenSweeper(repo Repository, interval time.Duration, log *zap.Logger) *TokenSweeper {
	return &TokenSweeper{repo: repo, interval: interval, log: log, now: time.Now}
}

func (s *TokenSweeper) WithClock(now func() time.Time) *TokenSweeper {
	s.now = now
	return s
}

// Sweep purges expired reset and verification tokens. A failure on one kind
// does not stop the other.
func (s *TokenSweeper) Sweep(ctx context.Context) (int64, error) {
	now := s.now()
	var total int64
	var firstErr error

	for _, kind := range []TokenKind{TokenPasswordReset, TokenEmailVerification} {
		n, err := s.repo.PurgeExpiredTokens(ctx, kind, now)
		if err != nil {
			s.log.Warn("failed to purge expired tokens",
				zap.Stringer("kind", kind),
				zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		total += n
	}

	if total > 0 {
		s.log.Info("purged expired tokens", zap.Int64("accounts", total))
	}
	return total, firstErr
}

// Run sweeps every interval until ctx is done.
func (s *TokenSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = s.Sweep(ctx)
		}
	}
}
