package model

import (
	"time"

	"github.com/google/uuid"

	"arcana/internal/domain/entity"
)

// VerificationModel is the stored form of entity.EmailVerification. A partial
// unique index over {email, verified:false} prevents two concurrent
// unverified codes per address; expires_at carries a TTL index.
type VerificationModel struct {
	ID        string    `bson:"_id"`
	Email     string    `bson:"email"`
	CodeHash  string    `bson:"code_hash"`
	ExpiresAt time.Time `bson:"expires_at"`
	Attempts  int       `bson:"attempts"`
	Verified  bool      `bson:"verified"`
	CreatedAt time.Time `bson:"created_at"`
}

// FromVerificationEntity converts a domain verification into its stored form.
func FromVerificationEntity(verification *entity.EmailVerification) *VerificationModel {
	return &VerificationModel{
		ID:        verification.ID.String(),
		Email:     verification.Email,
		CodeHash:  verification.CodeHash,
		ExpiresAt: verification.ExpiresAt,
		Attempts:  verification.Attempts,
		Verified:  verification.Verified,
		CreatedAt: verification.CreatedAt,
	}
}

// ToEntity converts the stored form back into a domain verification.
func (m *VerificationModel) ToEntity() *entity.EmailVerification {
	id, _ := uuid.Parse(m.ID)

	return &entity.EmailVerification{
		ID:        id,
		Email:     m.Email,
		CodeHash:  m.CodeHash,
		ExpiresAt: m.ExpiresAt,
		Attempts:  m.Attempts,
		Verified:  m.Verified,
		CreatedAt: m.CreatedAt,
	}
}
