package password

import (
	"errors"
	"strings"
	"unicode"
)

const (
	MinLength = 8
	// MaxBytes is the longest input bcrypt hashes without truncation.
	MaxBytes = 72
)

var ErrWeakPassword = errors.New("password does not meet complexity requirements")

// PolicyError lists every rule a candidate password broke.
type PolicyError struct {
	Violations []string
}

func (e *PolicyError) Error() string {
	return "password must " + strings.Join(e.Violations, ", ")
}

func (e *PolicyError) Unwrap() error {
	return ErrWeakPassword
}

// Validate checks length and character-class requirements.
func Validate(password string) error {
	var (
		violations                           []string
		hasUpper, hasLower, hasDigit, hasSym bool
	)

	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSym = true
		}
	}

	if len([]rune(password)) < MinLength {
		violations = append(violations, "be at least 8 characters long")
	}
	if len(password) > MaxBytes {
		violations = append(violations, "be at most 72 bytes long")
	}
	if !hasUpper {
		violations = append(violations, "contain an uppercase letter")
	}
	if !hasLower {
		violations = append(violations, "contain a lowercase letter")
	}
	if !hasDigit {
		violations = append(violations, "contain a digit")
	}
	if !hasSym {
		violations = append(violations, "contain a symbol")
	}

	if len(violations) > 0 {
		return &PolicyError{Violations: violations}
	}
	return nil
}
