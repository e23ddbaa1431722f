package auth

import (
	"context"
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUser(t *testing.T, repo *mockRepository, email string) *User {
	t.Helper()
	u := &User{ID: "id-" + email, FirstName: "Ada", LastName: "Lovelace", Email: email, Role: RoleUser, Active: true}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func TestTokenManager_IssueStoresOnlyHash(t *testing.T) {
	repo := newMockRepository()
	clock := newTestClock()
	tm := NewTokenManager(repo, 10*time.Minute, 24*time.Hour, clock.Now)
	u := seedUser(t, repo, "ada@example.com")

	plaintext, expiresAt, err := tm.Issue(u, TokenPasswordReset)
	require.NoError(t, err)

	raw, err := hex.DecodeString(plaintext)
	require.NoError(t, err)
	assert.Len(t, raw, 32)
	assert.Equal(t, clock.Now().Add(10*time.Minute), expiresAt)
	require.NotNil(t, u.PasswordResetTokenHash)
	assert.NotEqual(t, plaintext, *u.PasswordResetTokenHash)
	assert.Equal(t, hashToken(plaintext), *u.PasswordResetTokenHash)

	_, expiresAt, err = tm.Issue(u, TokenEmailVerification)
	require.NoError(t, err)
	assert.Equal(t, clock.Now().Add(24*time.Hour), expiresAt)
}

func TestTokenManager_ConsumeIsSingleUse(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepository()
	clock := newTestClock()
	tm := NewTokenManager(repo, 10*time.Minute, 24*time.Hour, clock.Now)
	u := seedUser(t, repo, "ada@example.com")

	plaintext, _, err := tm.Issue(u, TokenEmailVerification)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, u))

	got, err := tm.Consume(ctx, TokenEmailVerification, plaintext)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Nil(t, repo.stored(u.ID).EmailVerificationTokenHash)

	_, err = tm.Consume(ctx, TokenEmailVerification, plaintext)
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestTokenManager_NewTokenReplacesOld(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepository()
	tm := NewTokenManager(repo, 10*time.Minute, 24*time.Hour, newTestClock().Now)
	u := seedUser(t, repo, "ada@example.com")

	first, _, err := tm.Issue(u, TokenPasswordReset)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, u))
	second, _, err := tm.Issue(u, TokenPasswordReset)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, u))

	_, err = tm.Consume(ctx, TokenPasswordReset, first)
	assert.ErrorIs(t, err, ErrTokenNotFound)

	_, err = tm.Consume(ctx, TokenPasswordReset, second)
	assert.NoError(t, err)
}

func TestTokenManager_ConsumeRejects(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		setup func(repo *mockRepository, clock *testClock, u *User)
		kind  TokenKind
	}{
		{
			name:  "expired",
			setup: func(_ *mockRepository, clock *testClock, _ *User) { clock.Advance(10 * time.Minute) },
			kind:  TokenPasswordReset,
		},
		{
			name: "inactive account",
			setup: func(repo *mockRepository, _ *testClock, u *User) {
				u.Active = false
				_ = repo.Save(ctx, u)
			},
			kind: TokenPasswordReset,
		},
		{
			name:  "wrong kind",
			setup: func(*mockRepository, *testClock, *User) {},
			kind:  TokenEmailVerification,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockRepository()
			clock := newTestClock()
			tm := NewTokenManager(repo, 10*time.Minute, 24*time.Hour, clock.Now)
			u := seedUser(t, repo, "ada@example.com")

			plaintext, _, err := tm.Issue(u, TokenPasswordReset)
			require.NoError(t, err)
			require.NoError(t, repo.Save(ctx, u))

			tt.setup(repo, clock, u)

			_, err = tm.Consume(ctx, tt.kind, plaintext)
			assert.ErrorIs(t, err, ErrTokenNotFound)
		})
	}

	t.Run("empty", func(t *testing.T) {
		tm := NewTokenManager(newMockRepository(), 0, 0, nil)
		_, err := tm.Consume(ctx, TokenPasswordReset, "")
		assert.ErrorIs(t, err, ErrTokenNotFound)
	})
}
