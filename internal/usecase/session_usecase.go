package usecase

import (
	"context"

	"arcana/internal/domain/entity"

	"github.com/google/uuid"
)

// SessionUsecase manages the full lifecycle of user sessions:
// created -> active -> (renewed)* -> terminated|expired.
type SessionUsecase interface {
	// CreateSession purges the user's dead sessions, evicts the
	// least-recently-used one if the active cap is reached, then persists a
	// new session and returns the signed envelope bundle.
	CreateSession(ctx context.Context, userID uuid.UUID, keepMeLoggedIn bool, device entity.DeviceInfo) (*entity.SessionBundle, error)

	// ValidateSession verifies the envelope and the underlying session.
	// An invalid or unknown token yields (nil, nil): callers treat that as
	// "not authenticated", not as a fault. Device-binding violations are the
	// exception: the session is deactivated and an unauthorized error is
	// returned, because a bound-device mismatch is treated as a compromise
	// signal.
	ValidateSession(ctx context.Context, sessionToken string, device *entity.DeviceInfo, enforceBinding bool) (*entity.SessionInfo, error)

	// RefreshSession extends a long-lived session and mints a new envelope.
	// The refresh token itself is not rotated.
	RefreshSession(ctx context.Context, refreshToken string, currentUserID *uuid.UUID) (*entity.SessionBundle, error)

	// TerminateSession deactivates one session scoped to its owner.
	TerminateSession(ctx context.Context, sessionID, userID uuid.UUID) error

	// TerminateAllSessions deactivates every active session for the user and
	// returns how many were affected.
	TerminateAllSessions(ctx context.Context, userID uuid.UUID) (int, error)

	// ListActiveSessions returns active, non-expired sessions, most recently
	// used first.
	ListActiveSessions(ctx context.Context, userID uuid.UUID) ([]*entity.UserSession, error)

	// CleanupExpiredSessions hard-deletes the user's expired or inactive
	// sessions and returns how many were removed.
	CleanupExpiredSessions(ctx context.Context, userID uuid.UUID) (int, error)
}
