package application

import (
	"errors"
	"time"
)

// Kind is the stable, machine-readable class of an auth failure.
type Kind string

const (
	KindInvalidInput       Kind = "InvalidInput"
	KindEmailTaken         Kind = "EmailTaken"
	KindDuplicateEmail     Kind = "DuplicateEmail"
	KindInvalidCredentials Kind = "InvalidCredentials"
	KindRateLimited        Kind = "RateLimited"
	KindTokenExpired       Kind = "TokenExpired"
	KindTokenInvalid       Kind = "TokenInvalid"
	KindServiceUnavailable Kind = "ServiceUnavailable"
)

var defaultMessages = map[Kind]string{
	KindInvalidInput:       "Invalid input.",
	KindEmailTaken:         "User already exists.",
	KindDuplicateEmail:     "User already exists.",
	KindInvalidCredentials: "Invalid credentials.",
	KindRateLimited:        "Too many attempts. Try again later.",
	KindTokenExpired:       "Session expired.",
	KindTokenInvalid:       "Not authenticated.",
	KindServiceUnavailable: "Service temporarily unavailable.",
}

// Error is returned by every AuthService operation that fails.
// Message is safe to show to clients; Err is for logs only.
type Error struct {
	Kind       Kind
	Message    string
	Details    map[string]string
	RetryAfter time.Duration
	Err        error
}

func newError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Message: defaultMessages[kind], Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return string(e.Kind) + ": " + e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf classifies err. Anything that is not an *Error is ServiceUnavailable.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindServiceUnavailable
}

// PublicMessage is the client-facing text for err.
func PublicMessage(err error) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	return defaultMessages[KindServiceUnavailable]
}
