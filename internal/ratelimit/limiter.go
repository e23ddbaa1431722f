package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"time"
)

const (
	ClassLogin              = "login"
	ClassSignup             = "signup"
	ClassForgotPassword     = "forgot-password"
	ClassResendVerification = "resend-verification"
)

var ErrRateLimited = errors.New("too many requests, please try again later")

// Policy allows Max hits per fixed Window.
type Policy struct {
	Window time.Duration
	Max    int
}

// DefaultPolicies are used for classes missing from configuration.
var DefaultPolicies = map[string]Policy{
	ClassLogin:              {Window: 15 * time.Minute, Max: 5},
	ClassSignup:             {Window: time.Hour, Max: 3},
	ClassForgotPassword:     {Window: time.Hour, Max: 3},
	ClassResendVerification: {Window: time.Hour, Max: 3},
}

// LimitError is returned when a client has used up its window.
type LimitError struct {
	Class      string
	RetryAfter time.Duration
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("%s: %s", e.Class, ErrRateLimited)
}

func (e *LimitError) Unwrap() error {
	return ErrRateLimited
}

// RetryAfterSeconds rounds up so clients never retry early.
func (e *LimitError) RetryAfterSeconds() int {
	return int(math.Ceil(e.RetryAfter.Seconds()))
}

type Limiter struct {
	store    Store
	policies map[string]Policy
}

func NewLimiter(store Store, policies map[string]Policy) *Limiter {
	merged := make(map[string]Policy, len(DefaultPolicies))
	for class, p := range DefaultPolicies {
		merged[class] = p
	}
	for class, p := range policies {
		if p.Window > 0 && p.Max > 0 {
			merged[class] = p
		}
	}
	return &Limiter{store: store, policies: merged}
}

func (l *Limiter) Policy(class string) (Policy, bool) {
	p, ok := l.policies[class]
	return p, ok
}

// Allow records one hit for fingerprint in class. It returns a *LimitError
// once the window's budget is spent, and store errors as they are.
func (l *Limiter) Allow(ctx context.Context, class, fingerprint string) error {
	p, ok := l.policies[class]
	if !ok {
		return fmt.Errorf("unknown rate limit class %q", class)
	}

	count, ttl, err := l.store.Increment(ctx, class+":"+fingerprint, p.Window)
	if err != nil {
		return err
	}
	if count > int64(p.Max) {
		return &LimitError{Class: class, RetryAfter: ttl}
	}
	return nil
}

// Fingerprint identifies a client by address and user agent without
// keeping either in the counter key.
func Fingerprint(ip, userAgent string) string {
	sum := sha256.Sum256([]byte(ip + "|" + userAgent))
	return hex.EncodeToString(sum[:])
}
