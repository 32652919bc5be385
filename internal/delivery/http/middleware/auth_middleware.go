package middleware

import (
	"net/http"
	"slices"
	"strings"

	"arcana/config"
	deliverycontext "arcana/internal/delivery/context"
	"arcana/internal/domain/service"
	"arcana/internal/usecase"

	"github.com/labstack/echo/v4"
)

// Context keys set by the auth middleware for handlers to read.
const (
	KeyClientID = "clientID"
	KeyScopes   = "scopes"
	KeySession  = "session"
)

// HeaderSessionToken carries the user session envelope.
const HeaderSessionToken = "X-Session-Token"

// AuthMiddleware authenticates requests: Bearer client tokens on the admin
// surface and session envelopes on the user surface.
type AuthMiddleware struct {
	codec    service.TokenCodec
	sessions usecase.SessionUsecase
	cfg      *config.Config
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(codec service.TokenCodec, sessions usecase.SessionUsecase, cfg *config.Config) *AuthMiddleware {
	return &AuthMiddleware{codec: codec, sessions: sessions, cfg: cfg}
}

// AuthenticateClient validates the Bearer client access token.
func (m *AuthMiddleware) AuthenticateClient(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Authorization header is missing"})
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid token format, must be Bearer token"})
		}

		claims, err := m.codec.VerifyClientToken(tokenString)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid or expired token"})
		}
		if claims.TokenType != service.TokenTypeAccess {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Refresh tokens cannot be used for access"})
		}

		c.Set(KeyClientID, claims.ClientID)
		c.Set(KeyScopes, claims.Scopes)

		return next(c)
	}
}

// RequireScope is a middleware factory that checks the client token carries a
// specific scope. It must be used AFTER AuthenticateClient.
func (m *AuthMiddleware) RequireScope(requiredScope string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			scopes, ok := c.Get(KeyScopes).([]string)
			if !ok {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "Permission denied: scope information missing"})
			}

			if !slices.Contains(scopes, requiredScope) {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "Permission denied: require '" + requiredScope + "' scope"})
			}

			return next(c)
		}
	}
}

// AuthenticateSession validates the X-Session-Token envelope and enforces
// device binding. The validated session is stored on the echo context.
func (m *AuthMiddleware) AuthenticateSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := c.Request().Header.Get(HeaderSessionToken)
		if token == "" {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Session token is missing"})
		}

		device := deliverycontext.ExtractDeviceInfo(c)
		info, err := m.sessions.ValidateSession(c.Request().Context(), token, &device, m.cfg.Auth.EnforceDeviceBinding)
		if err != nil {
			return err
		}
		if info == nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid or expired session"})
		}

		c.Set(KeySession, info)

		return next(c)
	}
}
