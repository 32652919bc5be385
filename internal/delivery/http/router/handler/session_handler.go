package handler

import (
	"log/slog"
	"net/http"
	"time"

	"arcana/internal/delivery/http/middleware"
	"arcana/internal/delivery/http/response"
	"arcana/internal/domain/entity"
	"arcana/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// SessionHandler serves the user session endpoints. All routes except refresh
// run behind the session middleware.
type SessionHandler struct {
	uc     usecase.SessionUsecase
	logger *slog.Logger
}

// NewSessionHandler is the constructor for SessionHandler, injected by Fx.
func NewSessionHandler(uc usecase.SessionUsecase, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{uc: uc, logger: logger}
}

func currentSession(c echo.Context) (*entity.SessionInfo, bool) {
	info, ok := c.Get(middleware.KeySession).(*entity.SessionInfo)

	return info, ok
}

// sessionView is the transport shape of a listed session.
type sessionView struct {
	SessionID      string `json:"session_id"`
	KeepMeLoggedIn bool   `json:"keep_me_logged_in"`
	UserAgent      string `json:"user_agent,omitempty"`
	IPAddress      string `json:"ip_address,omitempty"`
	LastUsedAt     string `json:"last_used_at"`
	CreatedAt      string `json:"created_at"`
	ExpiresAt      string `json:"expires_at"`
	Current        bool   `json:"current"`
}

// ListSessions handles GET /sessions.
func (h *SessionHandler) ListSessions(c echo.Context) error {
	info, ok := currentSession(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_SESSION", "Session information missing")
	}

	sessions, err := h.uc.ListActiveSessions(c.Request().Context(), info.UserID)
	if err != nil {
		return errors.WithStack(err)
	}

	views := make([]sessionView, 0, len(sessions))
	for _, s := range sessions {
		views = append(views, sessionView{
			SessionID:      s.ID.String(),
			KeepMeLoggedIn: s.KeepMeLoggedIn,
			UserAgent:      s.UserAgent,
			IPAddress:      s.IPAddress,
			LastUsedAt:     s.LastUsedAt.Format(time.RFC3339),
			CreatedAt:      s.CreatedAt.Format(time.RFC3339),
			ExpiresAt:      s.ExpiresAt.Format(time.RFC3339),
			Current:        s.ID == info.SessionID,
		})
	}

	return response.Success(c, http.StatusOK, views, "Active sessions retrieved")
}

// Current handles GET /sessions/current, echoing the validated session.
func (h *SessionHandler) Current(c echo.Context) error {
	info, ok := currentSession(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_SESSION", "Session information missing")
	}

	return response.Success(c, http.StatusOK, sessionView{
		SessionID:      info.SessionID.String(),
		KeepMeLoggedIn: info.KeepMeLoggedIn,
		UserAgent:      info.UserAgent,
		IPAddress:      info.IPAddress,
		LastUsedAt:     info.LastUsedAt.Format(time.RFC3339),
		CreatedAt:      info.CreatedAt.Format(time.RFC3339),
		ExpiresAt:      info.ExpiresAt.Format(time.RFC3339),
		Current:        true,
	}, "Session is valid")
}

// Refresh handles POST /sessions/refresh. It accepts an optional session
// envelope; when present the refreshed session must belong to the same user.
func (h *SessionHandler) Refresh(c echo.Context) error {
	var input struct {
		RefreshToken string `json:"refresh_token" validate:"required"`
	}
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid refresh input")
	}
	if err := c.Validate(&input); err != nil {
		return err
	}

	var currentUserID *uuid.UUID
	if info, ok := currentSession(c); ok {
		currentUserID = &info.UserID
	}

	bundle, err := h.uc.RefreshSession(c.Request().Context(), input.RefreshToken, currentUserID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, sessionResponse{
		SessionID:    bundle.SessionID.String(),
		UserID:       bundle.UserID.String(),
		SessionToken: bundle.SessionToken,
		RefreshToken: bundle.RefreshToken,
		ExpiresIn:    bundle.ExpiresIn,
		ExpiresAt:    bundle.ExpiresAt.Format(time.RFC3339),
	}, "Session refreshed")
}

// Logout handles POST /sessions/logout, terminating the current session.
func (h *SessionHandler) Logout(c echo.Context) error {
	info, ok := currentSession(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_SESSION", "Session information missing")
	}

	if err := h.uc.TerminateSession(c.Request().Context(), info.SessionID, info.UserID); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]string{"message": "Successfully logged out"}, "Logout successful")
}

// Terminate handles DELETE /sessions/:id.
func (h *SessionHandler) Terminate(c echo.Context) error {
	info, ok := currentSession(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_SESSION", "Session information missing")
	}

	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid session id")
	}

	if err := h.uc.TerminateSession(c.Request().Context(), sessionID, info.UserID); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]string{"message": "Session terminated"}, "Session terminated")
}

// TerminateAll handles DELETE /sessions, signing the user out everywhere.
func (h *SessionHandler) TerminateAll(c echo.Context) error {
	info, ok := currentSession(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_SESSION", "Session information missing")
	}

	count, err := h.uc.TerminateAllSessions(c.Request().Context(), info.UserID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]int{"terminated": count}, "All sessions terminated")
}
