package repository

import (
	"context"
	"errors"

	"arcana/internal/domain/entity"

	"github.com/google/uuid"
)

// Domain-specific errors for user persistence.
var (
	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists is returned when the email or handle is already taken.
	ErrUserExists = errors.New("user already exists")
)

// UserRepository defines the standard operations for user persistence.
// The application layer depends on this interface, not the concrete implementation.
type UserRepository interface {
	// FindByID retrieves a single user by their unique ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)

	// FindByEmail retrieves a single user by their case-folded email.
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// Create persists a new user. Fails with ErrUserExists on a duplicate
	// email or handle.
	Create(ctx context.Context, user *entity.User) error

	// Update modifies an existing user entity in the storage.
	Update(ctx context.Context, user *entity.User) error

	// Delete removes a user account.
	Delete(ctx context.Context, id uuid.UUID) error
}

// ErrPendingSignupNotFound is returned when no pending signup exists for an email.
var ErrPendingSignupNotFound = errors.New("pending signup not found")

// PendingSignupRepository stores the lightweight records created between
// signup initiation and completion.
type PendingSignupRepository interface {
	// Upsert creates or replaces the pending signup for its email.
	Upsert(ctx context.Context, pending *entity.PendingSignup) error

	// FindByEmail retrieves the pending signup for an email.
	FindByEmail(ctx context.Context, email string) (*entity.PendingSignup, error)

	// DeleteByEmail removes the pending signup for an email. Idempotent.
	DeleteByEmail(ctx context.Context, email string) error
}
