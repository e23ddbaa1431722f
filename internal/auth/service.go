package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/elskow/airdrop-journal/internal/config"
	"github.com/elskow/airdrop-journal/internal/httpx"
	"github.com/elskow/airdrop-journal/internal/notify"
	"github.com/elskow/airdrop-journal/internal/password"
	"github.com/elskow/airdrop-journal/internal/token"
)

// Session is a signed session token and the moment it stops being accepted.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

type SignupInput struct {
	FirstName       string
	LastName        string
	Email           string
	Username        string
	Password        string
	PasswordConfirm string
}

// ProfileInput holds the fields a user may change on their own account. Nil
// fields are left untouched; an empty Username clears it.
type ProfileInput struct {
	FirstName *string
	LastName  *string
	Email     *string
	Username  *string
}

type Service struct {
	config   *config.AuthConfig
	log      *zap.Logger
	repo     Repository
	hasher   *password.Hasher
	issuer   *token.Issuer
	notifier notify.Notifier
	lockout  *LockoutPolicy
	tokens   *TokenManager
	now      func() time.Time

	// dummyHash keeps unknown-email logins as slow as wrong-password ones.
	dummyHash string
}

func NewService(
	cfg *config.AuthConfig,
	log *zap.Logger,
	repo Repository,
	hasher *password.Hasher,
	issuer *token.Issuer,
	notifier notify.Notifier,
) (*Service, error) {
	dummy, err := hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("failed to prepare dummy hash: %w", err)
	}

	s := &Service{
		config:    cfg,
		log:       log,
		repo:      repo,
		hasher:    hasher,
		issuer:    issuer,
		notifier:  notifier,
		dummyHash: dummy,
	}
	s.WithClock(time.Now)
	return s, nil
}

// WithClock replaces the time source used for lockout, single-use tokens and
// account timestamps. The token issuer keeps its own clock.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	s.lockout = NewLockoutPolicy(s.config.Lockout.Threshold, s.config.Lockout.Duration, now)
	s.tokens = NewTokenManager(s.repo, s.config.Tokens.PasswordResetTTL, s.config.Tokens.EmailVerificationTTL, now)
	return s
}

func (s *Service) SessionTTL() time.Duration {
	return s.issuer.TTL()
}

func (s *Service) Signup(ctx context.Context, in SignupInput) (*User, Session, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = normalizeEmail(in.Email)
	in.Username = strings.TrimSpace(in.Username)

	if err := validateSignup(in); err != nil {
		return nil, Session{}, err
	}

	if err := s.ensureEmailFree(ctx, in.Email, ""); err != nil {
		return nil, Session{}, err
	}
	if in.Username != "" {
		if err := s.ensureUsernameFree(ctx, in.Username, ""); err != nil {
			return nil, Session{}, err
		}
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, Session{}, err
	}

	user := &User{
		ID:           uuid.NewString(),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PasswordHash: digest,
		Role:         RoleUser,
		Active:       true,
	}
	if in.Username != "" {
		user.Username = &in.Username
	}

	plaintext, expiresAt, err := s.tokens.Issue(user, TokenEmailVerification)
	if err != nil {
		return nil, Session{}, err
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, ErrUserExists) {
			// Lost a race with a concurrent signup for the same identity.
			return nil, Session{}, ErrDuplicateEmail
		}
		return nil, Session{}, err
	}

	if err := s.notifier.SendEmailVerification(ctx, recipient(user), plaintext, expiresAt); err != nil {
		s.log.Warn("failed to deliver verification email",
			zap.String("user_id", user.ID),
			zap.Error(err))
	}

	session, err := s.issueSession(user)
	if err != nil {
		return nil, Session{}, err
	}

	s.log.Info("user signed up", zap.String("user_id", user.ID))
	return user, session, nil
}

func (s *Service) Login(ctx context.Context, email, plaintext string) (*User, Session, error) {
	user, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, Session{}, err
	}
	if user == nil || !user.Active {
		s.hasher.Verify(plaintext, s.dummyHash)
		return nil, Session{}, ErrInvalidCredentials
	}

	if s.lockout.IsLocked(user) {
		return nil, Session{}, ErrAccountLocked
	}

	if !s.hasher.Verify(plaintext, user.PasswordHash) {
		s.lockout.OnFailedAttempt(user)
		if err := s.repo.Save(ctx, user); err != nil {
			return nil, Session{}, err
		}
		if s.lockout.IsLocked(user) {
			s.log.Warn("account locked after repeated failed logins",
				zap.String("user_id", user.ID),
				zap.Timep("locked_until", user.LockedUntil))
		}
		return nil, Session{}, ErrInvalidCredentials
	}

	s.lockout.OnSuccess(user)
	now := s.now()
	user.LastLoginAt = &now
	if err := s.repo.Save(ctx, user); err != nil {
		return nil, Session{}, err
	}

	session, err := s.issueSession(user)
	if err != nil {
		return nil, Session{}, err
	}
	return user, session, nil
}

// ChangePassword replaces the password of an authenticated user. Sessions
// issued before the change stop working; the returned one replaces them.
func (s *Service) ChangePassword(ctx context.Context, user *User, current, next, confirm string) (Session, error) {
	if !s.hasher.Verify(current, user.PasswordHash) {
		return Session{}, ErrIncorrectPassword
	}
	if err := validateNewPassword(next, confirm); err != nil {
		return Session{}, err
	}
	if err := s.setPassword(user, next); err != nil {
		return Session{}, err
	}
	if err := s.repo.Save(ctx, user); err != nil {
		return Session{}, err
	}

	s.log.Info("password changed", zap.String("user_id", user.ID))
	return s.issueSession(user)
}

// ForgotPassword never reports whether the address belongs to an account.
// Only storage failures are returned.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil
		}
		return err
	}
	if !user.Active {
		return nil
	}

	plaintext, expiresAt, err := s.tokens.Issue(user, TokenPasswordReset)
	if err != nil {
		return err
	}
	if err := s.repo.Save(ctx, user); err != nil {
		return err
	}

	if err := s.notifier.SendPasswordReset(ctx, recipient(user), plaintext, expiresAt); err != nil {
		s.log.Error("failed to deliver password reset email",
			zap.String("user_id", user.ID),
			zap.Error(err))
		Clear(user, TokenPasswordReset)
		if err := s.repo.Save(ctx, user); err != nil {
			s.log.Error("failed to clear undelivered reset token",
				zap.String("user_id", user.ID),
				zap.Error(err))
		}
	}
	return nil
}

func (s *Service) ResetPassword(ctx context.Context, plaintext, next, confirm string) (*User, Session, error) {
	if err := validateNewPassword(next, confirm); err != nil {
		return nil, Session{}, err
	}

	user, err := s.tokens.Consume(ctx, TokenPasswordReset, plaintext)
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return nil, Session{}, ErrInvalidOrExpiredToken
		}
		return nil, Session{}, err
	}

	if err := s.setPassword(user, next); err != nil {
		return nil, Session{}, err
	}
	// A reset proves control of the mailbox, so it also lifts a lockout.
	s.lockout.OnSuccess(user)
	if err := s.repo.Save(ctx, user); err != nil {
		return nil, Session{}, err
	}

	session, err := s.issueSession(user)
	if err != nil {
		return nil, Session{}, err
	}

	s.log.Info("password reset", zap.String("user_id", user.ID))
	return user, session, nil
}

func (s *Service) VerifyEmail(ctx context.Context, plaintext string) (*User, error) {
	user, err := s.tokens.Consume(ctx, TokenEmailVerification, plaintext)
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return nil, ErrInvalidOrExpiredToken
		}
		return nil, err
	}

	user.EmailVerified = true
	if err := s.repo.Save(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) ResendVerification(ctx context.Context, user *User) error {
	if user.EmailVerified {
		return ErrAlreadyVerified
	}

	plaintext, expiresAt, err := s.tokens.Issue(user, TokenEmailVerification)
	if err != nil {
		return err
	}
	if err := s.repo.Save(ctx, user); err != nil {
		return err
	}
	return s.notifier.SendEmailVerification(ctx, recipient(user), plaintext, expiresAt)
}

// Authenticate resolves a session token to its active account.
func (s *Service) Authenticate(ctx context.Context, raw string) (*User, error) {
	if raw == "" {
		return nil, ErrUnauthenticated
	}

	claims, err := s.issuer.Verify(raw)
	if err != nil {
		if errors.Is(err, token.ErrTokenExpired) {
			return nil, ErrSessionExpired
		}
		return nil, ErrUnauthenticated
	}

	user, err := s.repo.GetByID(ctx, claims.UserID())
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	if !user.Active {
		return nil, ErrUnauthenticated
	}
	if user.ChangedPasswordAfter(claims.IssuedAtTime()) {
		return nil, ErrPasswordChanged
	}
	return user, nil
}

func (s *Service) RestrictTo(user *User, roles ...string) error {
	if user == nil || !user.HasRole(roles...) {
		return ErrForbidden
	}
	return nil
}

func (s *Service) RequireEmailVerification(user *User) error {
	if user == nil || !user.EmailVerified {
		return ErrEmailNotVerified
	}
	return nil
}

// UpdateProfile applies in to user. Changing the email address resets the
// verified flag and sends a new verification link. user is only modified
// once the change has been stored.
func (s *Service) UpdateProfile(ctx context.Context, user *User, in ProfileInput) (*User, error) {
	next := *user
	verr := &httpx.ValidationError{}

	if in.FirstName != nil {
		if v := strings.TrimSpace(*in.FirstName); v == "" {
			verr.Add("firstName", "is required")
		} else {
			next.FirstName = v
		}
	}
	if in.LastName != nil {
		if v := strings.TrimSpace(*in.LastName); v == "" {
			verr.Add("lastName", "is required")
		} else {
			next.LastName = v
		}
	}

	var emailChanged bool
	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		switch {
		case !validEmail(email):
			verr.Add("email", "must be a valid email address")
		case email != next.Email:
			if err := s.ensureEmailFree(ctx, email, next.ID); err != nil {
				return nil, err
			}
			next.Email = email
			next.EmailVerified = false
			emailChanged = true
		}
	}

	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if username == "" {
			next.Username = nil
		} else if next.Username == nil || *next.Username != username {
			if err := s.ensureUsernameFree(ctx, username, next.ID); err != nil {
				return nil, err
			}
			next.Username = &username
		}
	}

	if err := verr.Err(); err != nil {
		return nil, err
	}

	var plaintext string
	var expiresAt time.Time
	if emailChanged {
		var err error
		if plaintext, expiresAt, err = s.tokens.Issue(&next, TokenEmailVerification); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Save(ctx, &next); err != nil {
		if errors.Is(err, ErrUserExists) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}

	if emailChanged {
		if err := s.notifier.SendEmailVerification(ctx, recipient(&next), plaintext, expiresAt); err != nil {
			s.log.Warn("failed to deliver verification email",
				zap.String("user_id", next.ID),
				zap.Error(err))
		}
	}
	*user = next
	return user, nil
}

// Deactivate closes the account after confirming the password. The row is
// kept; its email and username are rewritten so they can be registered again.
func (s *Service) Deactivate(ctx context.Context, user *User, plaintext string) error {
	if !s.hasher.Verify(plaintext, user.PasswordHash) {
		return ErrIncorrectPassword
	}

	user.Active = false
	user.Email = fmt.Sprintf("deleted+%s@deactivated.invalid", user.ID)
	user.Username = nil
	Clear(user, TokenPasswordReset)
	Clear(user, TokenEmailVerification)

	if err := s.repo.Save(ctx, user); err != nil {
		return err
	}

	s.log.Info("account deactivated", zap.String("user_id", user.ID))
	return nil
}

func (s *Service) ListUsers(ctx context.Context, filter UserFilter, q httpx.ListQuery) ([]User, int64, error) {
	return s.repo.List(ctx, filter, q)
}

func (s *Service) issueSession(user *User) (Session, error) {
	raw, expiresAt, err := s.issuer.Issue(user.ID, user.Role)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: raw, ExpiresAt: expiresAt}, nil
}

func (s *Service) setPassword(user *User, plaintext string) error {
	digest, err := s.hasher.Hash(plaintext)
	if err != nil {
		return err
	}
	now := s.now()
	user.PasswordHash = digest
	user.PasswordChangedAt = &now
	Clear(user, TokenPasswordReset)
	return nil
}

func (s *Service) ensureEmailFree(ctx context.Context, email, selfID string) error {
	existing, err := s.repo.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, ErrUserNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != selfID:
		return ErrDuplicateEmail
	}
	return nil
}

func (s *Service) ensureUsernameFree(ctx context.Context, username, selfID string) error {
	existing, err := s.repo.GetByUsername(ctx, username)
	switch {
	case errors.Is(err, ErrUserNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != selfID:
		return ErrDuplicateUsername
	}
	return nil
}

func validateSignup(in SignupInput) error {
	verr := &httpx.ValidationError{}
	if in.FirstName == "" {
		verr.Add("firstName", "is required")
	}
	if in.LastName == "" {
		verr.Add("lastName", "is required")
	}
	if !validEmail(in.Email) {
		verr.Add("email", "must be a valid email address")
	}
	if in.Password != in.PasswordConfirm {
		verr.Add("confirmPassword", "must match password")
	}
	if err := verr.Err(); err != nil {
		return err
	}
	return password.Validate(in.Password)
}

func validateNewPassword(next, confirm string) error {
	if next != confirm {
		return httpx.NewValidationError("confirmPassword", "must match password")
	}
	return password.Validate(next)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func recipient(u *User) notify.Recipient {
	return notify.Recipient{UserID: u.ID, Email: u.Email, Name: u.FullName()}
}
