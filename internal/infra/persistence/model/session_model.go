package model

import (
	"time"

	"github.com/google/uuid"

	"arcana/internal/domain/entity"
)

// SessionModel is the stored form of entity.UserSession. The expires_at
// field carries a TTL index so the store removes rows on its own once they
// pass expiry, independent of explicit cleanup.
type SessionModel struct {
	ID             string    `bson:"_id"`
	UserID         string    `bson:"user_id"`
	SessionToken   string    `bson:"session_token"`
	RefreshToken   string    `bson:"refresh_token,omitempty"`
	KeepMeLoggedIn bool      `bson:"keep_me_logged_in"`
	ExpiresAt      time.Time `bson:"expires_at"`
	LastUsedAt     time.Time `bson:"last_used_at"`
	UserAgent      string    `bson:"user_agent,omitempty"`
	IPAddress      string    `bson:"ip_address,omitempty"`
	IsActive       bool      `bson:"is_active"`
	CreatedAt      time.Time `bson:"created_at"`
	UpdatedAt      time.Time `bson:"updated_at"`
}

// FromSessionEntity converts a domain session into its stored form.
func FromSessionEntity(session *entity.UserSession) *SessionModel {
	return &SessionModel{
		ID:             session.ID.String(),
		UserID:         session.UserID.String(),
		SessionToken:   session.SessionToken,
		RefreshToken:   session.RefreshToken,
		KeepMeLoggedIn: session.KeepMeLoggedIn,
		ExpiresAt:      session.ExpiresAt,
		LastUsedAt:     session.LastUsedAt,
		UserAgent:      session.UserAgent,
		IPAddress:      session.IPAddress,
		IsActive:       session.IsActive,
		CreatedAt:      session.CreatedAt,
		UpdatedAt:      session.UpdatedAt,
	}
}

// ToEntity converts the stored form back into a domain session.
func (m *SessionModel) ToEntity() *entity.UserSession {
	id, _ := uuid.Parse(m.ID)
	userID, _ := uuid.Parse(m.UserID)

	return &entity.UserSession{
		ID:             id,
		UserID:         userID,
		SessionToken:   m.SessionToken,
		RefreshToken:   m.RefreshToken,
		KeepMeLoggedIn: m.KeepMeLoggedIn,
		ExpiresAt:      m.ExpiresAt,
		LastUsedAt:     m.LastUsedAt,
		UserAgent:      m.UserAgent,
		IPAddress:      m.IPAddress,
		IsActive:       m.IsActive,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}
