package repository

import (
	"context"
	"errors"
	"time"

	"arcana/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrSessionNotFound is returned when no session matches the lookup.
var ErrSessionNotFound = errors.New("session not found")

// SessionRepository defines persistence for user sessions. Implementations
// rely on single-document atomic updates; no cross-document transactions are
// required by the session manager.
type SessionRepository interface {
	// Create persists a new session row.
	Create(ctx context.Context, session *entity.UserSession) error

	// FindByID retrieves a session by id scoped to its owning user.
	FindByID(ctx context.Context, id, userID uuid.UUID) (*entity.UserSession, error)

	// FindActiveByRefreshToken retrieves an active, non-expired, long-lived
	// session by exact refresh-token match.
	FindActiveByRefreshToken(ctx context.Context, refreshToken string) (*entity.UserSession, error)

	// FindActiveByUserID returns all active, non-expired sessions for a user,
	// most recently used first.
	FindActiveByUserID(ctx context.Context, userID uuid.UUID) ([]*entity.UserSession, error)

	// CountActiveByUserID returns the number of active, non-expired sessions.
	CountActiveByUserID(ctx context.Context, userID uuid.UUID) (int, error)

	// Deactivate atomically clears is_active on the session matching both ids.
	// Fails with ErrSessionNotFound if nothing matched.
	Deactivate(ctx context.Context, id, userID uuid.UUID) error

	// DeactivateAllByUserID clears is_active on every active session for the
	// user and returns how many were affected.
	DeactivateAllByUserID(ctx context.Context, userID uuid.UUID) (int, error)

	// TouchLastUsed atomically bumps last_used_at on a validated session.
	TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error

	// ExtendExpiry atomically moves expires_at forward and bumps last_used_at.
	ExtendExpiry(ctx context.Context, id uuid.UUID, expiresAt, lastUsedAt time.Time) error

	// DeleteExpiredByUserID hard-deletes the user's sessions that are expired
	// or already inactive, returning how many were removed.
	DeleteExpiredByUserID(ctx context.Context, userID uuid.UUID) (int, error)

	// DeleteExpired hard-deletes expired or inactive sessions across all
	// users. Safety net alongside the store's TTL expiry.
	DeleteExpired(ctx context.Context) (int, error)
}
