package impl

import (
	"context"
	"log/slog"
	"time"

	"arcana/config"
	deliverycontext "arcana/internal/delivery/context"
	"arcana/internal/domain/entity"
	domainerrors "arcana/internal/domain/errors"
	"arcana/internal/domain/repository"
	"arcana/internal/domain/service"
	"arcana/internal/errors"
	"arcana/internal/usecase"

	"github.com/google/uuid"
	"go.uber.org/fx"
)

type sessionManager struct {
	sessionRepo repository.SessionRepository
	codec       service.TokenCodec
	generator   service.CredentialGenerator
	authCfg     *config.AuthConfig
	logger      *slog.Logger
}

// SessionManagerParams defines the dependencies of the session manager.
type SessionManagerParams struct {
	fx.In

	SessionRepo repository.SessionRepository
	Codec       service.TokenCodec
	Generator   service.CredentialGenerator
	Config      *config.Config
	Logger      *slog.Logger
}

// NewSessionManager creates the user session lifecycle service.
func NewSessionManager(params SessionManagerParams) usecase.SessionUsecase {
	return &sessionManager{
		sessionRepo: params.SessionRepo,
		codec:       params.Codec,
		generator:   params.Generator,
		authCfg:     params.Config.Auth,
		logger:      params.Logger,
	}
}

func (m *sessionManager) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, m.logger)
}

func (m *sessionManager) CreateSession(ctx context.Context, userID uuid.UUID, keepMeLoggedIn bool, device entity.DeviceInfo) (*entity.SessionBundle, error) {
	// Purge dead sessions first so they never count against the cap.
	if _, err := m.sessionRepo.DeleteExpiredByUserID(ctx, userID); err != nil {
		return nil, errors.Wrap(err, "failed to purge expired sessions")
	}

	if err := m.evictForCap(ctx, userID); err != nil {
		return nil, err
	}

	sessionSecret, err := m.generator.OpaqueToken()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate session secret")
	}

	var refreshToken string
	if keepMeLoggedIn {
		refreshToken, err = m.generator.OpaqueToken()
		if err != nil {
			return nil, errors.Wrap(err, "failed to generate refresh token")
		}
	}

	now := time.Now()
	ttl := m.authCfg.SessionTTL
	if keepMeLoggedIn {
		ttl = m.authCfg.LongSessionTTL
	}

	session := &entity.UserSession{
		UserID:         userID,
		SessionToken:   sessionSecret,
		RefreshToken:   refreshToken,
		KeepMeLoggedIn: keepMeLoggedIn,
		ExpiresAt:      now.Add(ttl),
		LastUsedAt:     now,
		UserAgent:      device.UserAgent,
		IPAddress:      device.IPAddress,
		IsActive:       true,
	}

	if err := m.sessionRepo.Create(ctx, session); err != nil {
		return nil, errors.Wrap(err, "failed to persist session")
	}

	bundle, err := m.bundle(session)
	if err != nil {
		return nil, err
	}

	m.log(ctx).Info("created session",
		slog.String("user_id", userID.String()),
		slog.String("session_id", session.ID.String()),
		slog.Bool("keep_me_logged_in", keepMeLoggedIn))

	return bundle, nil
}

// evictForCap drops the least-recently-used active sessions until there is
// room for one more under the configured cap.
func (m *sessionManager) evictForCap(ctx context.Context, userID uuid.UUID) error {
	count, err := m.sessionRepo.CountActiveByUserID(ctx, userID)
	if err != nil {
		return errors.Wrap(err, "failed to count active sessions")
	}
	if count < m.authCfg.MaxActiveSessions {
		return nil
	}

	sessions, err := m.sessionRepo.FindActiveByUserID(ctx, userID)
	if err != nil {
		return errors.Wrap(err, "failed to list active sessions")
	}

	// Most recently used first, so eviction works from the tail.
	excess := len(sessions) - m.authCfg.MaxActiveSessions + 1
	for i := 0; i < excess && len(sessions) > 0; i++ {
		victim := sessions[len(sessions)-1-i]
		if err := m.sessionRepo.Deactivate(ctx, victim.ID, userID); err != nil {
			return errors.Wrap(err, "failed to evict session")
		}
		m.log(ctx).Info("evicted least-recently-used session",
			slog.String("user_id", userID.String()),
			slog.String("session_id", victim.ID.String()))
	}

	return nil
}

func (m *sessionManager) bundle(session *entity.UserSession) (*entity.SessionBundle, error) {
	// The envelope lives exactly as long as the session itself.
	envelope, err := m.codec.SignSessionToken(service.SessionClaims{
		SessionID:      session.ID,
		UserID:         session.UserID,
		KeepMeLoggedIn: session.KeepMeLoggedIn,
	}, time.Until(session.ExpiresAt))
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign session envelope")
	}

	return &entity.SessionBundle{
		SessionID:    session.ID,
		UserID:       session.UserID,
		SessionToken: envelope,
		RefreshToken: session.RefreshToken,
		ExpiresIn:    int64(time.Until(session.ExpiresAt).Seconds()),
		ExpiresAt:    session.ExpiresAt,
	}, nil
}

func (m *sessionManager) ValidateSession(ctx context.Context, sessionToken string, device *entity.DeviceInfo, enforceBinding bool) (*entity.SessionInfo, error) {
	claims, err := m.codec.VerifySessionToken(sessionToken)
	if err != nil {
		m.log(ctx).Debug("rejected session envelope", slog.Any("error", err))

		return nil, nil
	}

	session, err := m.sessionRepo.FindByID(ctx, claims.SessionID, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, nil
		}

		return nil, errors.Wrap(err, "failed to load session")
	}

	now := time.Now()
	if !session.IsActive || session.Expired(now) {
		return nil, nil
	}

	if enforceBinding && m.authCfg.EnforceDeviceBinding && device != nil {
		if err := m.checkDeviceBinding(ctx, session, device); err != nil {
			return nil, err
		}
	}

	if err := m.sessionRepo.TouchLastUsed(ctx, session.ID, now); err != nil {
		// Validation succeeded; losing one LRU bump is tolerable.
		m.log(ctx).Warn("failed to bump session last-used time",
			slog.String("session_id", session.ID.String()), slog.Any("error", err))
	}

	return &entity.SessionInfo{
		SessionID:      session.ID,
		UserID:         session.UserID,
		KeepMeLoggedIn: session.KeepMeLoggedIn,
		LastUsedAt:     now,
		UserAgent:      session.UserAgent,
		IPAddress:      session.IPAddress,
		CreatedAt:      session.CreatedAt,
		ExpiresAt:      session.ExpiresAt,
	}, nil
}

// checkDeviceBinding terminates the session on a mismatch between the device
// observed now and the one bound at creation. An empty recorded value means
// no binding was captured for that dimension.
func (m *sessionManager) checkDeviceBinding(ctx context.Context, session *entity.UserSession, device *entity.DeviceInfo) error {
	terminate := func(reason string) error {
		if err := m.sessionRepo.Deactivate(ctx, session.ID, session.UserID); err != nil {
			return errors.Wrap(err, "failed to terminate session on binding violation")
		}
		m.log(ctx).Warn("terminated session on device binding violation",
			slog.String("session_id", session.ID.String()),
			slog.String("user_id", session.UserID.String()),
			slog.String("reason", reason))

		return errors.Wrap(domainerrors.ErrUnauthorized, "session terminated: "+reason)
	}

	if session.IPAddress != "" && device.IPAddress != "" && session.IPAddress != device.IPAddress {
		return terminate("IP address changed")
	}
	if session.UserAgent != "" && device.UserAgent != "" && session.UserAgent != device.UserAgent {
		return terminate("user agent changed")
	}

	return nil
}

func (m *sessionManager) RefreshSession(ctx context.Context, refreshToken string, currentUserID *uuid.UUID) (*entity.SessionBundle, error) {
	if refreshToken == "" {
		return nil, errors.Wrap(domainerrors.ErrUnauthorized, "refresh token is required")
	}

	session, err := m.sessionRepo.FindActiveByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, errors.Wrap(domainerrors.ErrUnauthorized, "refresh token is invalid or expired")
		}

		return nil, errors.Wrap(err, "failed to load session by refresh token")
	}

	if currentUserID != nil && *currentUserID != session.UserID {
		return nil, errors.Wrap(domainerrors.ErrUnauthorized, "refresh token does not belong to the current user")
	}

	now := time.Now()
	session.ExpiresAt = now.Add(m.authCfg.LongSessionTTL)
	if err := m.sessionRepo.ExtendExpiry(ctx, session.ID, session.ExpiresAt, now); err != nil {
		return nil, errors.Wrap(err, "failed to extend session expiry")
	}

	bundle, err := m.bundle(session)
	if err != nil {
		return nil, err
	}

	m.log(ctx).Info("refreshed session",
		slog.String("user_id", session.UserID.String()),
		slog.String("session_id", session.ID.String()))

	return bundle, nil
}

func (m *sessionManager) TerminateSession(ctx context.Context, sessionID, userID uuid.UUID) error {
	if err := m.sessionRepo.Deactivate(ctx, sessionID, userID); err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return errors.Wrap(domainerrors.ErrNotFound, "session not found")
		}

		return errors.Wrap(err, "failed to terminate session")
	}

	m.log(ctx).Info("terminated session",
		slog.String("user_id", userID.String()),
		slog.String("session_id", sessionID.String()))

	return nil
}

func (m *sessionManager) TerminateAllSessions(ctx context.Context, userID uuid.UUID) (int, error) {
	count, err := m.sessionRepo.DeactivateAllByUserID(ctx, userID)
	if err != nil {
		return 0, errors.Wrap(err, "failed to terminate sessions")
	}

	m.log(ctx).Info("terminated all sessions",
		slog.String("user_id", userID.String()), slog.Int("count", count))

	return count, nil
}

func (m *sessionManager) ListActiveSessions(ctx context.Context, userID uuid.UUID) ([]*entity.UserSession, error) {
	sessions, err := m.sessionRepo.FindActiveByUserID(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list active sessions")
	}

	return sessions, nil
}

func (m *sessionManager) CleanupExpiredSessions(ctx context.Context, userID uuid.UUID) (int, error) {
	count, err := m.sessionRepo.DeleteExpiredByUserID(ctx, userID)
	if err != nil {
		return 0, errors.Wrap(err, "failed to clean up expired sessions")
	}

	return count, nil
}
