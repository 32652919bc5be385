package repository

import (
	"context"
	"errors"

	"arcana/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrVerificationNotFound is returned when no verification record matches.
var ErrVerificationNotFound = errors.New("verification record not found")

// VerificationRepository defines persistence for email verification codes.
// A partial unique index keeps at most one unverified record per email.
type VerificationRepository interface {
	// Create persists a fresh challenge.
	Create(ctx context.Context, verification *entity.EmailVerification) error

	// FindLatestByEmail returns the most recently created record for the
	// email regardless of state. Used for rate limiting.
	FindLatestByEmail(ctx context.Context, email string) (*entity.EmailVerification, error)

	// FindUnverifiedByEmail returns the unverified, non-expired record.
	FindUnverifiedByEmail(ctx context.Context, email string) (*entity.EmailVerification, error)

	// IncrementAttempts atomically bumps the attempt counter and returns the
	// new value.
	IncrementAttempts(ctx context.Context, id uuid.UUID) (int, error)

	// DeleteByEmail removes every record for the email. Idempotent.
	DeleteByEmail(ctx context.Context, email string) error

	// DeleteExpired removes expired records across all emails, returning how
	// many were removed.
	DeleteExpired(ctx context.Context) (int, error)
}
