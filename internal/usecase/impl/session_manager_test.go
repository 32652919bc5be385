package impl

import (
	"context"
	"fmt"
	"testing"
	"time"

	"arcana/config"
	"arcana/internal/domain/entity"
	domainerrors "arcana/internal/domain/errors"
	"arcana/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sessionManagerFixtures holds all test dependencies for session manager tests.
type sessionManagerFixtures struct {
	service     usecase.SessionUsecase
	sessionRepo *memSessionRepo
	codec       *fakeCodec
	cfg         *config.AuthConfig
}

func createTestSessionManager(t *testing.T) sessionManagerFixtures {
	t.Helper()

	sessionRepo := newMemSessionRepo()
	codec := newFakeCodec()
	cfg := &config.Config{Auth: config.DefaultAuthConfig()}

	service := NewSessionManager(SessionManagerParams{
		SessionRepo: sessionRepo,
		Codec:       codec,
		Generator:   &fakeGenerator{},
		Config:      cfg,
		Logger:      newTestLogger(),
	})

	return sessionManagerFixtures{
		service:     service,
		sessionRepo: sessionRepo,
		codec:       codec,
		cfg:         cfg.Auth,
	}
}

var testDevice = entity.DeviceInfo{
	UserAgent: "test-agent/1.0",
	IPAddress: "203.0.113.7",
}

func TestSessionManager_CreateSession_Short(t *testing.T) {
	fx := createTestSessionManager(t)
	userID := uuid.New()

	bundle, err := fx.service.CreateSession(context.Background(), userID, false, testDevice)
	require.NoError(t, err)

	assert.Equal(t, userID, bundle.UserID)
	assert.NotEmpty(t, bundle.SessionToken)
	assert.Empty(t, bundle.RefreshToken)
	assert.InDelta(t, fx.cfg.SessionTTL.Seconds(), float64(bundle.ExpiresIn), 5)

	claims, err := fx.codec.VerifySessionToken(bundle.SessionToken)
	require.NoError(t, err)
	assert.Equal(t, bundle.SessionID, claims.SessionID)
	assert.Equal(t, userID, claims.UserID)
	assert.False(t, claims.KeepMeLoggedIn)

	stored, err := fx.sessionRepo.FindByID(context.Background(), bundle.SessionID, userID)
	require.NoError(t, err)
	assert.Equal(t, testDevice.UserAgent, stored.UserAgent)
	assert.Equal(t, testDevice.IPAddress, stored.IPAddress)
	assert.True(t, stored.IsActive)
}

func TestSessionManager_CreateSession_KeepMeLoggedIn(t *testing.T) {
	fx := createTestSessionManager(t)

	bundle, err := fx.service.CreateSession(context.Background(), uuid.New(), true, testDevice)
	require.NoError(t, err)

	assert.NotEmpty(t, bundle.RefreshToken)
	assert.InDelta(t, fx.cfg.LongSessionTTL.Seconds(), float64(bundle.ExpiresIn), 5)
}

func TestSessionManager_CreateSession_EvictsLRUAtCap(t *testing.T) {
	fx := createTestSessionManager(t)
	ctx := context.Background()
	userID := uuid.New()

	base := time.Now()
	var first *entity.SessionBundle
	for i := 0; i < fx.cfg.MaxActiveSessions; i++ {
		bundle, err := fx.service.CreateSession(ctx, userID, false, testDevice)
		require.NoError(t, err)
		if i == 0 {
			first = bundle
		}
		// Distinct recency so the first session is unambiguously the LRU.
		require.NoError(t, fx.sessionRepo.TouchLastUsed(ctx, bundle.SessionID, base.Add(time.Duration(i)*time.Minute)))
	}

	bundle, err := fx.service.CreateSession(ctx, userID, false, testDevice)
	require.NoError(t, err)

	count, err := fx.sessionRepo.CountActiveByUserID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, fx.cfg.MaxActiveSessions, count)

	evicted, err := fx.sessionRepo.FindByID(ctx, first.SessionID, userID)
	require.NoError(t, err)
	assert.False(t, evicted.IsActive)

	kept, err := fx.sessionRepo.FindByID(ctx, bundle.SessionID, userID)
	require.NoError(t, err)
	assert.True(t, kept.IsActive)
}

func TestSessionManager_CreateSession_ExpiredDontCountAgainstCap(t *testing.T) {
	fx := createTestSessionManager(t)
	ctx := context.Background()
	userID := uuid.New()

	for i := 0; i < fx.cfg.MaxActiveSessions; i++ {
		_, err := fx.service.CreateSession(ctx, userID, false, testDevice)
		require.NoError(t, err)
	}

	// Expire every session; the next create purges them instead of evicting.
	fx.sessionRepo.mu.Lock()
	for _, s := range fx.sessionRepo.sessions {
		s.ExpiresAt = time.Now().Add(-time.Minute)
	}
	fx.sessionRepo.mu.Unlock()

	_, err := fx.service.CreateSession(ctx, userID, false, testDevice)
	require.NoError(t, err)

	count, err := fx.sessionRepo.CountActiveByUserID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSessionManager_ValidateSession(t *testing.T) {
	fx := createTestSessionManager(t)
	ctx := context.Background()
	userID := uuid.New()

	bundle, err := fx.service.CreateSession(ctx, userID, false, testDevice)
	require.NoError(t, err)

	info, err := fx.service.ValidateSession(ctx, bundle.SessionToken, &testDevice, true)
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, bundle.SessionID, info.SessionID)
	assert.Equal(t, userID, info.UserID)
}

func TestSessionManager_ValidateSession_InvalidYieldsNilNil(t *testing.T) {
	fx := createTestSessionManager(t)
	ctx := context.Background()
	userID := uuid.New()

	bundle, err := fx.service.CreateSession(ctx, userID, false, testDevice)
	require.NoError(t, err)

	t.Run("garbage token", func(t *testing.T) {
		info, err := fx.service.ValidateSession(ctx, "not-a-token", nil, false)
		require.NoError(t, err)
		assert.Nil(t, info)
	})

	t.Run("terminated session", func(t *testing.T) {
		require.NoError(t, fx.service.TerminateSession(ctx, bundle.SessionID, userID))
		info, err := fx.service.ValidateSession(ctx, bundle.SessionToken, nil, false)
		require.NoError(t, err)
		assert.Nil(t, info)
	})

	t.Run("expired envelope", func(t *testing.T) {
		fresh, err := fx.service.CreateSession(ctx, userID, false, testDevice)
		require.NoError(t, err)
		fx.codec.expire(fresh.SessionToken)
		info, err := fx.service.ValidateSession(ctx, fresh.SessionToken, nil, false)
		require.NoError(t, err)
		assert.Nil(t, info)
	})
}

func TestSessionManager_ValidateSession_DeviceBinding(t *testing.T) {
	fx := createTestSessionManager(t)
	ctx := context.Background()
	userID := uuid.New()

	cases := []struct {
		name    string
		device  entity.DeviceInfo
		message string
	}{
		{
			name:    "ip changed",
			device:  entity.DeviceInfo{UserAgent: testDevice.UserAgent, IPAddress: "198.51.100.9"},
			message: "IP address changed",
		},
		{
			name:    "user agent changed",
			device:  entity.DeviceInfo{UserAgent: "other-agent/2.0", IPAddress: testDevice.IPAddress},
			message: "user agent changed",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			bundle, err := fx.service.CreateSession(ctx, userID, false, testDevice)
			require.NoError(t, err)

			info, err := fx.service.ValidateSession(ctx, bundle.SessionToken, &tc.device, true)
			require.ErrorIs(t, err, domainerrors.ErrUnauthorized)
			assert.Contains(t, err.Error(), tc.message)
			assert.Nil(t, info)

			// The violation terminates the session for good.
			stored, err := fx.sessionRepo.FindByID(ctx, bundle.SessionID, userID)
			require.NoError(t, err)
			assert.False(t, stored.IsActive)
		})
	}
}

func TestSessionManager_ValidateSession_BindingNotEnforced(t *testing.T) {
	fx := createTestSessionManager(t)
	ctx := context.Background()

	bundle, err := fx.service.CreateSession(ctx, uuid.New(), false, testDevice)
	require.NoError(t, err)

	other := entity.DeviceInfo{UserAgent: "other-agent/2.0", IPAddress: "198.51.100.9"}
	info, err := fx.service.ValidateSession(ctx, bundle.SessionToken, &other, false)
	require.NoError(t, err)
	assert.NotNil(t, info)
}

func TestSessionManager_RefreshSession(t *testing.T) {
	fx := createTestSessionManager(t)
	ctx := context.Background()
	userID := uuid.New()

	bundle, err := fx.service.CreateSession(ctx, userID, true, testDevice)
	require.NoError(t, err)

	refreshed, err := fx.service.RefreshSession(ctx, bundle.RefreshToken, nil)
	require.NoError(t, err)

	assert.Equal(t, bundle.SessionID, refreshed.SessionID)
	// The refresh secret is not rotated; the envelope is fresh.
	assert.Equal(t, bundle.RefreshToken, refreshed.RefreshToken)
	assert.NotEqual(t, bundle.SessionToken, refreshed.SessionToken)
	assert.True(t, refreshed.ExpiresAt.After(time.Now().Add(fx.cfg.LongSessionTTL-time.Minute)))
}

func TestSessionManager_RefreshSession_Rejections(t *testing.T) {
	fx := createTestSessionManager(t)
	ctx := context.Background()
	userID := uuid.New()

	bundle, err := fx.service.CreateSession(ctx, userID, true, testDevice)
	require.NoError(t, err)

	t.Run("empty token", func(t *testing.T) {
		_, err := fx.service.RefreshSession(ctx, "", nil)
		assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
	})

	t.Run("unknown token", func(t *testing.T) {
		_, err := fx.service.RefreshSession(ctx, "bogus", nil)
		assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
	})

	t.Run("other user's token", func(t *testing.T) {
		otherUser := uuid.New()
		_, err := fx.service.RefreshSession(ctx, bundle.RefreshToken, &otherUser)
		require.ErrorIs(t, err, domainerrors.ErrUnauthorized)
		assert.Contains(t, err.Error(), "does not belong to the current user")
	})

	t.Run("terminated session", func(t *testing.T) {
		require.NoError(t, fx.service.TerminateSession(ctx, bundle.SessionID, userID))
		_, err := fx.service.RefreshSession(ctx, bundle.RefreshToken, nil)
		assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
	})
}

func TestSessionManager_TerminateAllAndList(t *testing.T) {
	fx := createTestSessionManager(t)
	ctx := context.Background()
	userID := uuid.New()

	base := time.Now()
	var bundles []*entity.SessionBundle
	for i := 0; i < 3; i++ {
		bundle, err := fx.service.CreateSession(ctx, userID, false, entity.DeviceInfo{
			UserAgent: fmt.Sprintf("agent-%d", i),
		})
		require.NoError(t, err)
		require.NoError(t, fx.sessionRepo.TouchLastUsed(ctx, bundle.SessionID, base.Add(time.Duration(i)*time.Minute)))
		bundles = append(bundles, bundle)
	}

	sessions, err := fx.service.ListActiveSessions(ctx, userID)
	require.NoError(t, err)
	require.Len(t, sessions, 3)
	// Most recently used first.
	assert.Equal(t, bundles[2].SessionID, sessions[0].ID)
	assert.Equal(t, bundles[0].SessionID, sessions[2].ID)

	count, err := fx.service.TerminateAllSessions(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	sessions, err = fx.service.ListActiveSessions(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestSessionManager_CleanupExpiredSessions(t *testing.T) {
	fx := createTestSessionManager(t)
	ctx := context.Background()
	userID := uuid.New()

	live, err := fx.service.CreateSession(ctx, userID, false, testDevice)
	require.NoError(t, err)
	stale, err := fx.service.CreateSession(ctx, userID, false, testDevice)
	require.NoError(t, err)

	fx.sessionRepo.mu.Lock()
	fx.sessionRepo.sessions[stale.SessionID].ExpiresAt = time.Now().Add(-time.Hour)
	fx.sessionRepo.mu.Unlock()

	removed, err := fx.service.CleanupExpiredSessions(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = fx.sessionRepo.FindByID(ctx, live.SessionID, userID)
	assert.NoError(t, err)
}
