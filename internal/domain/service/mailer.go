package service

import (
	"context"
	"time"
)

// VerificationPurpose distinguishes the two email-code flows for templating.
type VerificationPurpose string

const (
	PurposeSignup VerificationPurpose = "signup"
	PurposeLogin  VerificationPurpose = "login"
)

// Mailer delivers verification codes. Template rendering and transport are
// external collaborators; the orchestrators only depend on this contract.
type Mailer interface {
	// SendVerificationCode delivers a one-time code to the address.
	SendVerificationCode(ctx context.Context, email, code string, expiresAt time.Time, purpose VerificationPurpose) error
}
