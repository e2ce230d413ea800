package repository

import (
	"context"
	"errors"

	"github.com/projectfocus/focus-api/internal/domain/entity"
)

var (
	// ErrNotFound is returned when no user matches the lookup.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned by Create when the normalized email is
	// already taken. Implementations must enforce this atomically.
	ErrDuplicateEmail = errors.New("duplicate email")
	// ErrUnavailable marks transient storage failures (timeouts, lost
	// connections) that a caller may retry.
	ErrUnavailable = errors.New("store unavailable")
)

// UserRepository is the credential store.
type UserRepository interface {
	// Create inserts u and fills ID and CreatedAt.
	Create(ctx context.Context, u *entity.User) error
	FindByID(ctx context.Context, id string) (*entity.User, error)
	// FindByEmail compares case-insensitively.
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
}
