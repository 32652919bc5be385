// Package service defines interfaces for core, stateless domain logic.
// These services encapsulate business rules that don't naturally fit within a single entity.
package service

// SecretHasher defines the interface for one-way hashing and verification of
// secrets: client secrets and email verification codes.
// This abstracts the underlying adaptive hash (e.g. bcrypt), keeping the domain pure.
type SecretHasher interface {
	// Hash generates a salted hash from a plaintext secret.
	Hash(secret string) (string, error)

	// Check compares a plaintext secret with a hash to see if they match.
	// Comparison is timing-safe; a mismatch is reported as false, never as
	// an error, so callers choose the error taxonomy themselves.
	Check(secret, hash string) bool
}
