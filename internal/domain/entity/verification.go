package entity

import (
	"time"

	"github.com/google/uuid"
)

// EmailVerification is a one-time code challenge bound to an email address.
// The code itself is stored hashed. At most one unverified record exists per
// email at a time (partial unique index in the store); expired records are
// removed by the store's TTL mechanism.
type EmailVerification struct {
	ID        uuid.UUID
	Email     string    // Lowercased.
	CodeHash  string    // bcrypt hash of the six-digit code.
	ExpiresAt time.Time // TTL-expired by the store once passed.
	Attempts  int       // Failed validation attempts, capped.
	Verified  bool
	CreatedAt time.Time
}

// ExpiredAt reports whether the challenge has passed its expiry.
func (v *EmailVerification) ExpiredAt(now time.Time) bool {
	return !v.ExpiresAt.After(now)
}
