package entity

import (
	"time"

	"github.com/google/uuid"
)

// User is the core entity in the system, representing a unique account.
// Email is stored case-folded and is the login identifier for the
// email-code flows.
type User struct {
	ID            uuid.UUID
	Email         string   // Primary contact email, lowercased. Unique.
	Name          string   // Display name.
	Handle        string   // Optional public handle. Unique when set.
	Bio           string   // Free-form profile text.
	AvatarURL     string   // Profile picture location, if any.
	EmailVerified bool     // Set once the signup verification code was confirmed.
	AllowedScopes []string // User-level scope grants. Defaults to {basic}.
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewUser builds a verified user account with default grants.
// Signup only completes after code verification, so EmailVerified starts true.
func NewUser(email, name, handle string) *User {
	return &User{
		Email:         email,
		Name:          name,
		Handle:        handle,
		EmailVerified: true,
		AllowedScopes: []string{ScopeBasic},
	}
}

// PendingSignup is the lightweight record created when a signup is initiated
// and removed once it completes. It reserves the email (and optionally a
// handle) while the verification code is outstanding.
type PendingSignup struct {
	ID        uuid.UUID
	Email     string // Lowercased, one pending signup per email.
	Name      string
	Handle    string // Requested handle, may be empty.
	CreatedAt time.Time
}
