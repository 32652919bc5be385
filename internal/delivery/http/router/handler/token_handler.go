// Package handler contains the HTTP handlers for the application.
package handler

import (
	"log/slog"
	"net/http"

	"arcana/internal/domain/entity"
	domainerrors "arcana/internal/domain/errors"
	"arcana/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// Grant types accepted by the token endpoint.
const (
	GrantClientCredentials = "client_credentials"
	GrantRefreshToken      = "refresh_token"
)

// oauthError is the RFC 6749 error body emitted by the token endpoint.
type oauthError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// TokenHandler serves the OAuth-shaped token endpoint.
type TokenHandler struct {
	uc     usecase.ClientUsecase
	logger *slog.Logger
}

// NewTokenHandler is the constructor for TokenHandler, injected by Fx.
func NewTokenHandler(uc usecase.ClientUsecase, logger *slog.Logger) *TokenHandler {
	return &TokenHandler{uc: uc, logger: logger}
}

// Token handles POST /oauth/token, dispatching on grant_type. Errors are
// rendered in the RFC 6749 shape rather than the application envelope.
func (h *TokenHandler) Token(c echo.Context) error {
	grantType := c.FormValue("grant_type")

	switch grantType {
	case GrantClientCredentials:
		resp, err := h.uc.IssueToken(c.Request().Context(), &usecase.IssueTokenInput{
			ClientID:     c.FormValue("client_id"),
			ClientSecret: c.FormValue("client_secret"),
			Scopes:       entity.ParseScopes(c.FormValue("scope")),
		})
		if err != nil {
			return h.renderError(c, err)
		}

		return c.JSON(http.StatusOK, resp)

	case GrantRefreshToken:
		refreshToken := c.FormValue("refresh_token")
		if refreshToken == "" {
			return c.JSON(http.StatusBadRequest, oauthError{
				Error:            domainerrors.ErrInvalidRequest.ErrorCode(),
				ErrorDescription: "refresh_token parameter is required",
			})
		}

		resp, err := h.uc.RefreshToken(c.Request().Context(), &usecase.RefreshClientTokenInput{
			RefreshToken: refreshToken,
			ClientID:     c.FormValue("client_id"),
			ClientSecret: c.FormValue("client_secret"),
		})
		if err != nil {
			return h.renderError(c, err)
		}

		return c.JSON(http.StatusOK, resp)

	case "":
		return c.JSON(http.StatusBadRequest, oauthError{
			Error:            domainerrors.ErrInvalidRequest.ErrorCode(),
			ErrorDescription: "grant_type parameter is required",
		})

	default:
		return c.JSON(http.StatusBadRequest, oauthError{
			Error:            domainerrors.ErrUnsupportedGrantType.ErrorCode(),
			ErrorDescription: "unsupported grant type: " + grantType,
		})
	}
}

func (h *TokenHandler) renderError(c echo.Context, err error) error {
	var appErr domainerrors.AppError
	if errors.As(err, &appErr) {
		if appErr.HTTPCode() == http.StatusUnauthorized {
			c.Response().Header().Set("WWW-Authenticate", `Basic realm="token"`)
		}

		return c.JSON(appErr.HTTPCode(), oauthError{
			Error:            appErr.ErrorCode(),
			ErrorDescription: err.Error(),
		})
	}

	h.logger.Error("token endpoint failure", slog.Any("error", err))

	return c.JSON(http.StatusInternalServerError, oauthError{Error: "server_error"})
}
