package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

const (
	tokenBytes = 32

	DefaultPasswordResetTTL     = 10 * time.Minute
	DefaultEmailVerificationTTL = 24 * time.Hour
)

var ErrTokenNotFound = errors.New("token not found")

// TokenManager issues and consumes single-use password reset and email
// verification tokens. Only the sha256 of a token is stored.
type TokenManager struct {
	repo            Repository
	resetTTL        time.Duration
	verificationTTL time.Duration
	now             func() time.Time
}

func NewTokenManager(repo Repository, resetTTL, verificationTTL time.Duration, now func() time.Time) *TokenManager {
	if resetTTL <= 0 {
		resetTTL = DefaultPasswordResetTTL
	}
	if verificationTTL <= 0 {
		verificationTTL = DefaultEmailVerificationTTL
	}
	if now == nil {
		now = time.Now
	}
	return &TokenManager{
		repo:            repo,
		resetTTL:        resetTTL,
		verificationTTL: verificationTTL,
		now:             now,
	}
}

// Issue stores a fresh token of kind on u, replacing any outstanding one, and
// returns the plaintext for delivery. The caller persists u.
func (m *TokenManager) Issue(u *User, kind TokenKind) (string, time.Time, error) {
	raw := make([]byte, tokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate token: %w", err)
	}
	plaintext := hex.EncodeToString(raw)
	hash := hashToken(plaintext)

	switch kind {
	case TokenPasswordReset:
		expiresAt := m.now().Add(m.resetTTL)
		u.PasswordResetTokenHash = &hash
		u.PasswordResetExpiresAt = &expiresAt
		return plaintext, expiresAt, nil
	case TokenEmailVerification:
		expiresAt := m.now().Add(m.verificationTTL)
		u.EmailVerificationTokenHash = &hash
		u.EmailVerificationExpiresAt = &expiresAt
		return plaintext, expiresAt, nil
	default:
		return "", time.Time{}, fmt.Errorf("unknown token kind %d", kind)
	}
}

// Consume redeems plaintext once. Unknown, expired and already used tokens
// and inactive accounts all yield ErrTokenNotFound.
func (m *TokenManager) Consume(ctx context.Context, kind TokenKind, plaintext string) (*User, error) {
	if plaintext == "" {
		return nil, ErrTokenNotFound
	}

	u, err := m.repo.GetByTokenHash(ctx, kind, hashToken(plaintext), m.now())
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}

	Clear(u, kind)
	if err := m.repo.Save(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Clear drops the outstanding token of kind from u.
func Clear(u *User, kind TokenKind) {
	switch kind {
	case TokenPasswordReset:
		u.PasswordResetTokenHash = nil
		u.PasswordResetExpiresAt = nil
	case TokenEmailVerification:
		u.EmailVerificationTokenHash = nil
		u.EmailVerificationExpiresAt = nil
	}
}

func hashToken(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}
