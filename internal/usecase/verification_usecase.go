package usecase

import (
	"context"
	"time"
)

// VerificationUsecase issues and validates the rate-limited one-time email
// codes used by both signup and login.
type VerificationUsecase interface {
	// EnforceRateLimit fails if a code was issued for this email within the
	// resend window.
	EnforceRateLimit(ctx context.Context, email string) error

	// Issue replaces any outstanding challenge for the email with a freshly
	// generated hashed code and returns the plaintext code for delivery.
	Issue(ctx context.Context, email string) (code string, expiresAt time.Time, err error)

	// Validate checks a submitted code against the outstanding challenge.
	// On success the record is left in place; the caller finishes the flow
	// with Complete.
	Validate(ctx context.Context, email, submittedCode string) error

	// Complete deletes all verification records for the email. Idempotent.
	Complete(ctx context.Context, email string) error
}
