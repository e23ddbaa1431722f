package auth

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/elskow/airdrop-journal/internal/httpx"
)

// mockRepository keeps copies of users so callers see the same
// read-modify-write behaviour as with the database.
type mockRepository struct {
	mu    sync.Mutex
	users map[string]User

	// failNext makes the next call return this error.
	failNext error
}

func newMockRepository() *mockRepository {
	return &mockRepository{users: make(map[string]User)}
}

func (r *mockRepository) takeFailure() error {
	err := r.failNext
	r.failNext = nil
	return err
}

func (r *mockRepository) Create(_ context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.takeFailure(); err != nil {
		return err
	}
	if err := r.checkUnique(user); err != nil {
		return err
	}
	if user.ID == "" {
		user.ID = "user-" + time.Now().Format("150405.000000000")
	}
	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now
	r.users[user.ID] = *user
	return nil
}

func (r *mockRepository) GetByID(_ context.Context, id string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.takeFailure(); err != nil {
		return nil, err
	}
	u, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

func (r *mockRepository) GetByEmail(_ context.Context, email string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.find(func(u User) bool { return u.Email == email })
}

func (r *mockRepository) GetByUsername(_ context.Context, username string) (*User, error) {
	return r.find(func(u User) bool { return u.Username != nil && *u.Username == username })
}

func (r *mockRepository) GetByTokenHash(_ context.Context, kind TokenKind, hash string, now time.Time) (*User, error) {
	return r.find(func(u User) bool {
		if !u.Active {
			return false
		}
		switch kind {
		case TokenPasswordReset:
			return u.PasswordResetTokenHash != nil && *u.PasswordResetTokenHash == hash &&
				u.PasswordResetExpiresAt != nil && u.PasswordResetExpiresAt.After(now)
		case TokenEmailVerification:
			return u.EmailVerificationTokenHash != nil && *u.EmailVerificationTokenHash == hash &&
				u.EmailVerificationExpiresAt != nil && u.EmailVerificationExpiresAt.After(now)
		}
		return false
	})
}

func (r *mockRepository) PurgeExpiredTokens(_ context.Context, kind TokenKind, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.takeFailure(); err != nil {
		return 0, err
	}
	var n int64
	for id, u := range r.users {
		switch {
		case kind == TokenPasswordReset && u.PasswordResetExpiresAt != nil && !u.PasswordResetExpiresAt.After(now):
			u.PasswordResetTokenHash, u.PasswordResetExpiresAt = nil, nil
		case kind == TokenEmailVerification && u.EmailVerificationExpiresAt != nil && !u.EmailVerificationExpiresAt.After(now):
			u.EmailVerificationTokenHash, u.EmailVerificationExpiresAt = nil, nil
		default:
			continue
		}
		r.users[id] = u
		n++
	}
	return n, nil
}

func (r *mockRepository) Save(_ context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.takeFailure(); err != nil {
		return err
	}
	if err := r.checkUnique(user); err != nil {
		return err
	}
	user.UpdatedAt = time.Now()
	r.users[user.ID] = *user
	return nil
}

func (r *mockRepository) List(_ context.Context, filter UserFilter, q httpx.ListQuery) ([]User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []User
	for _, u := range r.users {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if filter.Active != nil && u.Active != *filter.Active {
			continue
		}
		if q.Search != "" && !strings.Contains(strings.ToLower(u.Email), strings.ToLower(q.Search)) {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })

	total := int64(len(out))
	start := q.Offset()
	if start > len(out) {
		start = len(out)
	}
	end := start + q.Limit
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], total, nil
}

// stored returns the persisted copy of a user, bypassing failNext.
func (r *mockRepository) stored(id string) User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[id]
}

func (r *mockRepository) find(match func(User) bool) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.takeFailure(); err != nil {
		return nil, err
	}
	for _, u := range r.users {
		if match(u) {
			found := u
			return &found, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *mockRepository) checkUnique(user *User) error {
	for id, u := range r.users {
		if id == user.ID {
			continue
		}
		if u.Email == user.Email {
			return ErrUserExists
		}
		if u.Username != nil && user.Username != nil && *u.Username == *user.Username {
			return ErrUserExists
		}
	}
	return nil
}
