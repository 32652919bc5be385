package entity

import (
	"time"

	"github.com/google/uuid"
)

// UserSession represents a logical login session for a user. The server-side
// secret and (for long-lived sessions) refresh secret are random opaque
// strings; the token handed to clients is a signed envelope around the
// session identity, minted by the session manager.
type UserSession struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	SessionToken   string    // Opaque server-side secret. Unique.
	RefreshToken   string    // Opaque refresh secret. Unique, empty unless KeepMeLoggedIn.
	KeepMeLoggedIn bool      // Long-lived session with refresh support.
	ExpiresAt      time.Time // TTL-expired by the store once passed.
	LastUsedAt     time.Time // Bumped on every validated use.
	UserAgent      string    // Device binding: user agent observed at creation.
	IPAddress      string    // Device binding: ip observed at creation.
	IsActive       bool      // Cleared on logout / forced termination.
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Expired reports whether the session has passed its expiry at the given time.
func (s *UserSession) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// SessionInfo is the view of a validated session returned to callers.
type SessionInfo struct {
	SessionID      uuid.UUID
	UserID         uuid.UUID
	KeepMeLoggedIn bool
	LastUsedAt     time.Time
	UserAgent      string
	IPAddress      string
	CreatedAt      time.Time
	ExpiresAt      time.Time
}

// DeviceInfo carries the request-side device context captured at session
// creation and checked during binding enforcement. Extraction from transport
// headers lives in the delivery layer; this struct keeps the session manager
// transport-agnostic.
type DeviceInfo struct {
	UserAgent string
	IPAddress string
}

// SessionBundle is what session creation and refresh hand back to the caller.
type SessionBundle struct {
	SessionID    uuid.UUID
	UserID       uuid.UUID
	SessionToken string // Signed envelope, presented via X-Session-Token.
	RefreshToken string // Raw refresh secret, empty for short sessions.
	ExpiresIn    int64  // Seconds until the session expires.
	ExpiresAt    time.Time
}
