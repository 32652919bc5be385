package auth

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"math/big"
	"strconv"

	"arcana/internal/domain/service"
	"arcana/internal/errors"
)

const (
	opaqueTokenBytes  = 32
	clientIDBytes     = 8
	clientSecretBytes = 32
)

type credentialGenerator struct{}

// NewCredentialGenerator returns a CredentialGenerator backed by crypto/rand.
func NewCredentialGenerator() service.CredentialGenerator {
	return &credentialGenerator{}
}

// OpaqueToken returns a 256-bit random secret in URL-safe base64.
func (*credentialGenerator) OpaqueToken() (string, error) {
	buf := make([]byte, opaqueTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "failed to read random bytes")
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// VerificationCode returns a uniformly random six-digit code in
// [100000, 999999].
func (*credentialGenerator) VerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", errors.Wrap(err, "failed to generate verification code")
	}

	return strconv.FormatInt(n.Int64()+100000, 10), nil
}

// ClientID returns a new public client identifier of the form "client_<hex>".
func (*credentialGenerator) ClientID() (string, error) {
	buf := make([]byte, clientIDBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "failed to read random bytes")
	}

	return "client_" + hex.EncodeToString(buf), nil
}

// ClientSecret returns a new plaintext client secret. Only the bcrypt hash is
// persisted; the plaintext is shown to the operator once at creation time.
func (*credentialGenerator) ClientSecret() (string, error) {
	buf := make([]byte, clientSecretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "failed to read random bytes")
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}
