package helpers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher_HashAndVerify(t *testing.T) {
	hasher := NewPasswordHasher(bcrypt.MinCost)

	tests := []struct {
		name     string
		password string
	}{
		{name: "simple password", password: "password123"},
		{name: "policy password", password: "Str0ng!pw"},
		{name: "unicode password", password: "lozinka-čćž-123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := hasher.Hash(tt.password)
			require.NoError(t, err)
			assert.NotEqual(t, tt.password, hash)
			assert.True(t, hasher.Verify(tt.password, hash))
			assert.False(t, hasher.Verify(tt.password+"x", hash))
		})
	}
}

func TestPasswordHasher_UniqueSalts(t *testing.T) {
	hasher := NewPasswordHasher(bcrypt.MinCost)

	h1, err := hasher.Hash("samepassword")
	require.NoError(t, err)
	h2, err := hasher.Hash("samepassword")
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
	assert.True(t, hasher.Verify("samepassword", h1))
	assert.True(t, hasher.Verify("samepassword", h2))
}

func TestPasswordHasher_VerifyMalformedHash(t *testing.T) {
	hasher := NewPasswordHasher(bcrypt.MinCost)

	for _, hash := range []string{"", "not-a-hash", "$2a$", strings.Repeat("$", 60)} {
		assert.NotPanics(t, func() {
			assert.False(t, hasher.Verify("password", hash))
		})
	}
}

func TestPasswordHasher_CostFallback(t *testing.T) {
	assert.Equal(t, DefaultBcryptCost, NewPasswordHasher(0).Cost())
	assert.Equal(t, DefaultBcryptCost, NewPasswordHasher(99).Cost())
	assert.Equal(t, bcrypt.MinCost, NewPasswordHasher(bcrypt.MinCost).Cost())
}

func TestPasswordHasher_DummyHash(t *testing.T) {
	hasher := NewPasswordHasher(bcrypt.MinCost)

	d := hasher.DummyHash()
	assert.Equal(t, d, hasher.DummyHash())

	cost, err := bcrypt.Cost([]byte(d))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)
	assert.False(t, hasher.Verify("", d))
	assert.False(t, hasher.Verify("password", d))
}

func TestPasswordHasher_VerifyRejectsBytesPastLimit(t *testing.T) {
	hasher := NewPasswordHasher(bcrypt.MinCost)

	stored := "Aa1!" + strings.Repeat("x", 68)
	require.Len(t, stored, MaxPasswordBytes)
	hash, err := hasher.Hash(stored)
	require.NoError(t, err)

	assert.True(t, hasher.Verify(stored, hash))
	assert.False(t, hasher.Verify(stored+"-totally-different-suffix", hash))
	assert.False(t, hasher.Verify(stored+"x", hash))
}

func TestPasswordHasher_DummyHashReadyAtConstruction(t *testing.T) {
	hasher := NewPasswordHasher(bcrypt.MinCost)
	assert.NotEmpty(t, hasher.dummy)
	assert.Equal(t, hasher.dummy, hasher.DummyHash())
}
