package entity

import (
	"strings"
	"time"
)

// User is the aggregate root for the account domain.
// PasswordHash holds the bcrypt output, never the raw password.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// PublicUser is the identity that may leave the server.
type PublicUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// DirectoryEntry is what other signed-in users see of an account.
type DirectoryEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Public strips the credential material from u.
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, Email: u.Email}
}

// NormalizeEmail is the canonical form used for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
