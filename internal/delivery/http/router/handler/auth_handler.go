package handler

import (
	"log/slog"
	"net/http"
	"time"

	deliverycontext "arcana/internal/delivery/context"
	"arcana/internal/delivery/http/response"
	"arcana/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// AuthHandler serves the email-code signup and login flows.
type AuthHandler struct {
	uc     usecase.AccountUsecase
	logger *slog.Logger
}

// NewAuthHandler is the constructor for AuthHandler, injected by Fx.
func NewAuthHandler(uc usecase.AccountUsecase, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{uc: uc, logger: logger}
}

// sessionResponse is the transport view of a created session.
type sessionResponse struct {
	SessionID    string `json:"session_id"`
	UserID       string `json:"user_id"`
	SessionToken string `json:"session_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    string `json:"expires_at"`
}

// InitiateSignup handles POST /auth/signup.
func (h *AuthHandler) InitiateSignup(c echo.Context) error {
	var input *usecase.InitiateSignupInput
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid signup input")
	}
	if err := c.Validate(input); err != nil {
		return err
	}

	output, err := h.uc.InitiateSignup(c.Request().Context(), input)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusAccepted, output, "Verification code sent")
}

// CompleteSignup handles POST /auth/signup/verify.
func (h *AuthHandler) CompleteSignup(c echo.Context) error {
	var input *usecase.CompleteSignupInput
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid signup verification input")
	}
	if err := c.Validate(input); err != nil {
		return err
	}

	user, err := h.uc.CompleteSignup(c.Request().Context(), input)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, map[string]string{
		"user_id": user.ID.String(),
		"email":   user.Email,
		"handle":  user.Handle,
	}, "Account created")
}

// InitiateLogin handles POST /auth/login.
func (h *AuthHandler) InitiateLogin(c echo.Context) error {
	var input *usecase.InitiateLoginInput
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid login input")
	}
	if err := c.Validate(input); err != nil {
		return err
	}

	output, err := h.uc.InitiateLogin(c.Request().Context(), input)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusAccepted, output, "Verification code sent")
}

// CompleteLogin handles POST /auth/login/verify. The device context is
// captured here and bound to the created session.
func (h *AuthHandler) CompleteLogin(c echo.Context) error {
	var input *usecase.CompleteLoginInput
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid login verification input")
	}
	if err := c.Validate(input); err != nil {
		return err
	}
	input.Device = deliverycontext.ExtractDeviceInfo(c)

	output, err := h.uc.CompleteLogin(c.Request().Context(), input)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, sessionResponse{
		SessionID:    output.Session.SessionID.String(),
		UserID:       output.UserID.String(),
		SessionToken: output.Session.SessionToken,
		RefreshToken: output.Session.RefreshToken,
		ExpiresIn:    output.Session.ExpiresIn,
		ExpiresAt:    output.Session.ExpiresAt.Format(time.RFC3339),
	}, "Login successful")
}
