package helpers

import (
	"crypto/rand"
	"encoding/base64"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost keeps a single hash in the 100-300ms range on current hardware.
const DefaultBcryptCost = 12

// MaxPasswordBytes is the longest input bcrypt reads. Longer inputs never verify.
const MaxPasswordBytes = 72

// PasswordHasher hashes and verifies passwords with bcrypt.
// Each Hash call draws a fresh salt.
type PasswordHasher struct {
	cost  int
	dummy string
}

// NewPasswordHasher returns a hasher using cost, or DefaultBcryptCost when
// cost is outside bcrypt's accepted range. The dummy hash is computed here so
// no login pays for it.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &PasswordHasher{cost: cost, dummy: newDummyHash(cost)}
}

// Cost reports the work factor in use.
func (h *PasswordHasher) Cost() int { return h.cost }

// Hash hashes the plain text password using bcrypt
func (h *PasswordHasher) Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify compares a bcrypt hash with a plain password.
// Malformed hashes and inputs over MaxPasswordBytes verify as false; bcrypt
// would otherwise ignore everything past byte 72.
func (h *PasswordHasher) Verify(plain, hash string) bool {
	if len(plain) > MaxPasswordBytes {
		// same cost as a real comparison
		_ = bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain[:MaxPasswordBytes]))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// DummyHash returns a valid hash, at this hasher's cost, of a random secret
// nobody knows. Verifying against it costs the same as a real comparison.
func (h *PasswordHasher) DummyHash() string { return h.dummy }

func newDummyHash(cost int) string {
	b := make([]byte, 24)
	_, _ = rand.Read(b)
	hash, err := bcrypt.GenerateFromPassword([]byte(base64.RawStdEncoding.EncodeToString(b)), cost)
	if err != nil {
		// unreachable for a 32 byte input at a valid cost
		panic(err)
	}
	return string(hash)
}
