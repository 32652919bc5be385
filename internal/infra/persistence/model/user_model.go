package model

import (
	"time"

	"github.com/google/uuid"

	"arcana/internal/domain/entity"
)

// UserModel is the stored form of entity.User. Email is persisted
// case-folded; the unique index on it is case-sensitive by construction.
type UserModel struct {
	ID            string    `bson:"_id"`
	Email         string    `bson:"email"`
	Name          string    `bson:"name"`
	Handle        string    `bson:"handle,omitempty"`
	Bio           string    `bson:"bio,omitempty"`
	AvatarURL     string    `bson:"avatar_url,omitempty"`
	EmailVerified bool      `bson:"email_verified"`
	AllowedScopes []string  `bson:"allowed_scopes"`
	CreatedAt     time.Time `bson:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at"`
}

// FromUserEntity converts a domain user into its stored form.
func FromUserEntity(user *entity.User) *UserModel {
	return &UserModel{
		ID:            user.ID.String(),
		Email:         user.Email,
		Name:          user.Name,
		Handle:        user.Handle,
		Bio:           user.Bio,
		AvatarURL:     user.AvatarURL,
		EmailVerified: user.EmailVerified,
		AllowedScopes: user.AllowedScopes,
		CreatedAt:     user.CreatedAt,
		UpdatedAt:     user.UpdatedAt,
	}
}

// ToEntity converts the stored form back into a domain user.
func (m *UserModel) ToEntity() *entity.User {
	id, _ := uuid.Parse(m.ID)

	return &entity.User{
		ID:            id,
		Email:         m.Email,
		Name:          m.Name,
		Handle:        m.Handle,
		Bio:           m.Bio,
		AvatarURL:     m.AvatarURL,
		EmailVerified: m.EmailVerified,
		AllowedScopes: m.AllowedScopes,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

// PendingSignupModel is the stored form of entity.PendingSignup.
type PendingSignupModel struct {
	ID        string    `bson:"_id"`
	Email     string    `bson:"email"`
	Name      string    `bson:"name,omitempty"`
	Handle    string    `bson:"handle,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
}

// FromPendingSignupEntity converts a domain pending signup into its stored form.
func FromPendingSignupEntity(pending *entity.PendingSignup) *PendingSignupModel {
	return &PendingSignupModel{
		ID:        pending.ID.String(),
		Email:     pending.Email,
		Name:      pending.Name,
		Handle:    pending.Handle,
		CreatedAt: pending.CreatedAt,
	}
}

// ToEntity converts the stored form back into a domain pending signup.
func (m *PendingSignupModel) ToEntity() *entity.PendingSignup {
	id, _ := uuid.Parse(m.ID)

	return &entity.PendingSignup{
		ID:        id,
		Email:     m.Email,
		Name:      m.Name,
		Handle:    m.Handle,
		CreatedAt: m.CreatedAt,
	}
}
