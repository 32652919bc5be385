package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"arcana/config"
	"arcana/internal/domain/service"
	"arcana/internal/errors"
)

const tokenIssuer = "arcana"

// jwtCodec is a concrete implementation of the TokenCodec interface using the
// JWT standard. A single HMAC secret signs both token families; the audience
// claim keeps them apart.
type jwtCodec struct {
	secret []byte
}

type clientTokenClaims struct {
	service.ClientClaims
	jwt.RegisteredClaims
}

type sessionTokenClaims struct {
	service.SessionClaims
	jwt.RegisteredClaims
}

// NewJWTCodec is the constructor for jwtCodec.
func NewJWTCodec(cfg *config.Config) (service.TokenCodec, error) {
	if cfg.SecretKey.Token == "" {
		return nil, errors.New("token signing secret must be provided")
	}

	return &jwtCodec{secret: []byte(cfg.SecretKey.Token)}, nil
}

// SignClientToken mints a client-family token with the given claims and ttl.
func (c *jwtCodec) SignClientToken(claims service.ClientClaims, ttl time.Duration) (string, error) {
	return c.sign(&clientTokenClaims{
		ClientClaims:     claims,
		RegisteredClaims: registeredClaims(service.AudienceClient, ttl),
	})
}

// VerifyClientToken parses and validates a client-family token.
func (c *jwtCodec) VerifyClientToken(tokenString string) (*service.ClientClaims, error) {
	claims := &clientTokenClaims{}
	if err := c.verify(tokenString, claims, service.AudienceClient); err != nil {
		return nil, err
	}

	return &claims.ClientClaims, nil
}

// SignSessionToken mints a session envelope with the given claims and ttl.
func (c *jwtCodec) SignSessionToken(claims service.SessionClaims, ttl time.Duration) (string, error) {
	return c.sign(&sessionTokenClaims{
		SessionClaims:    claims,
		RegisteredClaims: registeredClaims(service.AudienceSession, ttl),
	})
}

// VerifySessionToken parses and validates a session envelope.
func (c *jwtCodec) VerifySessionToken(tokenString string) (*service.SessionClaims, error) {
	claims := &sessionTokenClaims{}
	if err := c.verify(tokenString, claims, service.AudienceSession); err != nil {
		return nil, err
	}

	return &claims.SessionClaims, nil
}

func (c *jwtCodec) sign(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign token")
	}

	return signed, nil
}

func (c *jwtCodec) verify(tokenString string, claims jwt.Claims, audience string) error {
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}

			return c.secret, nil
		},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(audience),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return codecError(err)
	}

	return nil
}

// codecError collapses jwt/v5 validation failures into the codec's sentinels.
func codecError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return errors.Wrap(service.ErrTokenExpired, err.Error())
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrSignatureInvalid):
		return errors.Wrap(service.ErrTokenInvalidSignature, err.Error())
	default:
		// Wrong issuer/audience, malformed structure, bad token type.
		return errors.Wrap(service.ErrTokenClaimMismatch, err.Error())
	}
}

func registeredClaims(audience string, ttl time.Duration) jwt.RegisteredClaims {
	now := time.Now()

	return jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Audience:  jwt.ClaimStrings{audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}
