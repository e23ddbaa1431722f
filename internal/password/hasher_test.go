package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHasher_HashAndVerify(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	tests := []struct {
		name     string
		password string
	}{
		{name: "simple", password: "Abcdef1!"},
		{name: "unicode", password: "Пароль-123Ab"},
		{name: "long", password: "Correct-Horse-Battery-Staple-42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			digest, err := h.Hash(tt.password)
			require.NoError(t, err)
			assert.NotEqual(t, tt.password, digest)

			assert.True(t, h.Verify(tt.password, digest))
			assert.False(t, h.Verify(tt.password+"x", digest))
		})
	}
}

func TestHasher_SaltsEveryHash(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	first, err := h.Hash("Abcdef1!")
	require.NoError(t, err)
	second, err := h.Hash("Abcdef1!")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestHasher_VerifyMalformedDigest(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	for _, digest := range []string{"", "not-a-hash", "$2a$10$short"} {
		assert.False(t, h.Verify("Abcdef1!", digest), digest)
	}
}

func TestNewHasher_CostBounds(t *testing.T) {
	assert.Equal(t, DefaultCost, NewHasher(0).Cost())
	assert.Equal(t, DefaultCost, NewHasher(bcrypt.MaxCost+1).Cost())
	assert.Equal(t, 10, NewHasher(10).Cost())
}
