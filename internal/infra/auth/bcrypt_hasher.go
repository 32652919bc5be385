// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"golang.org/x/crypto/bcrypt"

	"arcana/config"
	"arcana/internal/domain/service"
)

// bcryptHasher is a concrete implementation of the SecretHasher interface using bcrypt.
type bcryptHasher struct {
	cost int
}

// NewBcryptHasher is the constructor for bcryptHasher.
// It returns the implementation as a service.SecretHasher interface.
func NewBcryptHasher(cfg *config.Config) service.SecretHasher {
	cost := bcrypt.DefaultCost
	if cfg != nil && cfg.Auth != nil && cfg.Auth.BcryptCost > 0 {
		cost = cfg.Auth.BcryptCost
	}

	return &bcryptHasher{cost: cost}
}

// Hash generates a salted hash from a plaintext secret using bcrypt.
// bcrypt automatically handles salt generation.
func (h *bcryptHasher) Hash(secret string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)

	return string(bytes), err
}

// Check compares a plaintext secret with a bcrypt hash.
// bcrypt's comparison is constant-time over the derived key.
func (h *bcryptHasher) Check(secret, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret))

	return err == nil
}
