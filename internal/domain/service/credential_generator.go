package service

// CredentialGenerator produces the random secrets the auth core hands out.
// Implementations must be cryptographically random.
type CredentialGenerator interface {
	// OpaqueToken returns a high-entropy URL-safe secret, used for the
	// server-side session secret and for refresh tokens.
	OpaqueToken() (string, error)

	// VerificationCode returns a uniformly random six-digit code in
	// [100000, 999999].
	VerificationCode() (string, error)

	// ClientID returns a new public client identifier.
	ClientID() (string, error)

	// ClientSecret returns a new plaintext client secret.
	ClientSecret() (string, error)
}
