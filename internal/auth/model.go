package auth

import (
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is the account record. It is also the credential store: password hash,
// lockout counters and single-use token hashes live on the same row.
type User struct {
	ID            string    `gorm:"primaryKey;type:uuid" json:"id"`
	FirstName     string    `gorm:"not null" json:"firstName"`
	LastName      string    `gorm:"not null" json:"lastName"`
	Email         string    `gorm:"uniqueIndex;not null" json:"email"`
	Username      *string   `gorm:"uniqueIndex" json:"username,omitempty"`
	PasswordHash  string    `gorm:"not null" json:"-"`
	Role          string    `gorm:"not null;default:user" json:"role"`
	Active        bool      `gorm:"not null;default:true" json:"-"`
	EmailVerified bool      `gorm:"not null;default:false" json:"isEmailVerified"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`

	FailedLoginAttempts int        `gorm:"not null;default:0" json:"-"`
	LockedUntil         *time.Time `json:"-"`
	PasswordChangedAt   *time.Time `json:"-"`
	LastLoginAt         *time.Time `json:"lastLoginAt,omitempty"`

	PasswordResetTokenHash     *string    `gorm:"index" json:"-"`
	PasswordResetExpiresAt     *time.Time `json:"-"`
	EmailVerificationTokenHash *string    `gorm:"index" json:"-"`
	EmailVerificationExpiresAt *time.Time `json:"-"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// ChangedPasswordAfter reports whether the password was changed after a
// token issued at issuedAt. Both sides are compared at microsecond precision,
// the finest the database keeps.
func (u *User) ChangedPasswordAfter(issuedAt time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return u.PasswordChangedAt.Truncate(time.Microsecond).After(issuedAt.Truncate(time.Microsecond))
}

func (u *User) HasRole(roles ...string) bool {
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}
