package service

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Audience values keep the two token families apart: a token minted for one
// purpose fails claim validation when presented as the other.
const (
	AudienceClient  = "arcana/client"
	AudienceSession = "arcana/session"
)

// Token types carried in the "token_type" claim of client tokens.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Codec failure modes. Callers normally collapse all three into "invalid",
// returning nil to their own callers; the sentinels exist for the few sites
// that need to distinguish.
var (
	ErrTokenInvalidSignature = errors.New("token signature is invalid")
	ErrTokenExpired          = errors.New("token has expired")
	ErrTokenClaimMismatch    = errors.New("token claims do not match expectation")
)

// ClientClaims is the payload of client-credential access and refresh tokens.
type ClientClaims struct {
	ClientID  string   `json:"client_id"`
	Scopes    []string `json:"scopes"`
	TokenType string   `json:"token_type"`
}

// SessionClaims is the payload of the signed session envelope.
type SessionClaims struct {
	SessionID      uuid.UUID `json:"session_id"`
	UserID         uuid.UUID `json:"user_id"`
	KeepMeLoggedIn bool      `json:"keep_me_logged_in"`
}

// TokenCodec signs and verifies the compact bearer tokens used for both
// client-credential tokens and user session envelopes. Signing uses a shared
// HMAC secret with a fixed issuer; the audience is fixed per token family.
type TokenCodec interface {
	// SignClientToken mints a client token with the given claims and ttl.
	SignClientToken(claims ClientClaims, ttl time.Duration) (string, error)

	// VerifyClientToken parses and validates a client token.
	VerifyClientToken(token string) (*ClientClaims, error)

	// SignSessionToken mints a session envelope with the given claims and ttl.
	SignSessionToken(claims SessionClaims, ttl time.Duration) (string, error)

	// VerifySessionToken parses and validates a session envelope.
	VerifySessionToken(token string) (*SessionClaims, error)
}
