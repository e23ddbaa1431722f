package auth

import "time"

const (
	DefaultLockoutThreshold = 5
	DefaultLockoutDuration  = 2 * time.Hour
)

// LockoutPolicy decides lock state from the counters stored on the account,
// so locks survive restarts and expire without an explicit unlock.
type LockoutPolicy struct {
	threshold int
	duration  time.Duration
	now       func() time.Time
}

func NewLockoutPolicy(threshold int, duration time.Duration, now func() time.Time) *LockoutPolicy {
	if threshold <= 0 {
		threshold = DefaultLockoutThreshold
	}
	if duration <= 0 {
		duration = DefaultLockoutDuration
	}
	if now == nil {
		now = time.Now
	}
	return &LockoutPolicy{threshold: threshold, duration: duration, now: now}
}

func (p *LockoutPolicy) IsLocked(u *User) bool {
	return u.LockedUntil != nil && u.LockedUntil.After(p.now())
}

// OnFailedAttempt records a failed password check. A failure after an expired
// lock starts counting again from one.
func (p *LockoutPolicy) OnFailedAttempt(u *User) {
	now := p.now()

	if u.LockedUntil != nil && !u.LockedUntil.After(now) {
		u.FailedLoginAttempts = 1
		u.LockedUntil = nil
	} else {
		u.FailedLoginAttempts++
	}

	if u.FailedLoginAttempts >= p.threshold && u.LockedUntil == nil {
		until := now.Add(p.duration)
		u.LockedUntil = &until
	}
}

func (p *LockoutPolicy) OnSuccess(u *User) {
	u.FailedLoginAttempts = 0
	u.LockedUntil = nil
}
