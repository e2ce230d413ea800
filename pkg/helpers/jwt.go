package helpers

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrTokenMalformed    = errors.New("token malformed")
	ErrTokenBadSignature = errors.New("token signature invalid")
	ErrTokenExpired      = errors.New("token expired")
)

// TokenManager signs and verifies HS256 session tokens.
// The secret is fixed at construction; rotating it invalidates every
// token issued before.
type TokenManager struct {
	secret []byte
	issuer string
	now    func() time.Time
}

type TokenOption func(*TokenManager)

// WithClock replaces time.Now for issuing and expiry checks.
func WithClock(now func() time.Time) TokenOption {
	return func(m *TokenManager) { m.now = now }
}

func NewTokenManager(secret []byte, issuer string, opts ...TokenOption) *TokenManager {
	m := &TokenManager{
		secret: append([]byte(nil), secret...),
		issuer: issuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

type Claims struct {
	jwt.RegisteredClaims
}

// UserID is the subject of the session.
func (c *Claims) UserID() string { return c.Subject }

// SessionToken is an issued token together with the values it asserts.
type SessionToken struct {
	Value     string
	ID        string
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Issue signs a token for subject valid for ttl from now.
func (m *TokenManager) Issue(subject string, ttl time.Duration) (SessionToken, error) {
	now := m.now().Truncate(time.Second)
	exp := now.Add(ttl)
	id := uuid.NewString()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Issuer:    m.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := t.SignedString(m.secret)
	if err != nil {
		return SessionToken{}, err
	}
	return SessionToken{Value: s, ID: id, Subject: subject, IssuedAt: now, ExpiresAt: exp}, nil
}

// Verify checks signature, issuer and expiry. The returned error is one of
// ErrTokenMalformed, ErrTokenBadSignature or ErrTokenExpired.
func (m *TokenManager) Verify(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrTokenMalformed
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
			return nil, ErrTokenBadSignature
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		default:
			return nil, ErrTokenMalformed
		}
	}
	if !tkn.Valid || claims.Subject == "" || claims.ID == "" {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}
