package handler

import (
	"log/slog"
	"net/http"
	"time"

	"arcana/internal/delivery/http/response"
	"arcana/internal/domain/entity"
	"arcana/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// ClientAdminHandler serves client registration and management. All routes
// require a client token carrying the admin scope.
type ClientAdminHandler struct {
	uc     usecase.ClientUsecase
	logger *slog.Logger
}

// NewClientAdminHandler is the constructor for ClientAdminHandler, injected by Fx.
func NewClientAdminHandler(uc usecase.ClientUsecase, logger *slog.Logger) *ClientAdminHandler {
	return &ClientAdminHandler{uc: uc, logger: logger}
}

// clientView is the transport shape of a client record. The secret hash never
// leaves the server.
type clientView struct {
	ClientID              string   `json:"client_id"`
	Name                  string   `json:"name"`
	Description           string   `json:"description,omitempty"`
	IsActive              bool     `json:"is_active"`
	AllowedScopes         []string `json:"allowed_scopes"`
	TokenExpiresIn        int      `json:"token_expires_in"`
	RefreshTokenExpiresIn int      `json:"refresh_token_expires_in"`
	SupportsRefreshToken  bool     `json:"supports_refresh_token"`
	LastUsedAt            string   `json:"last_used_at,omitempty"`
	CreatedAt             string   `json:"created_at"`
}

func toClientView(client *entity.Client) clientView {
	view := clientView{
		ClientID:              client.ClientID,
		Name:                  client.Name,
		Description:           client.Description,
		IsActive:              client.IsActive,
		AllowedScopes:         client.AllowedScopes,
		TokenExpiresIn:        client.TokenExpiresIn,
		RefreshTokenExpiresIn: client.RefreshTokenExpiresIn,
		SupportsRefreshToken:  client.SupportsRefreshToken,
		CreatedAt:             client.CreatedAt.Format(time.RFC3339),
	}
	if client.LastUsedAt != nil {
		view.LastUsedAt = client.LastUsedAt.Format(time.RFC3339)
	}

	return view
}

// credentialsView pairs the client view with its one-time plaintext secret.
type credentialsView struct {
	Client       clientView `json:"client"`
	ClientSecret string     `json:"client_secret"`
}

// Create handles POST /admin/clients.
func (h *ClientAdminHandler) Create(c echo.Context) error {
	var input *usecase.CreateClientInput
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid client input")
	}
	if err := c.Validate(input); err != nil {
		return err
	}

	creds, err := h.uc.CreateClient(c.Request().Context(), input)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, credentialsView{
		Client:       toClientView(creds.Client),
		ClientSecret: creds.ClientSecret,
	}, "Client registered; store the secret now, it is not shown again")
}

// List handles GET /admin/clients.
func (h *ClientAdminHandler) List(c echo.Context) error {
	clients, err := h.uc.ListClients(c.Request().Context())
	if err != nil {
		return errors.WithStack(err)
	}

	views := make([]clientView, 0, len(clients))
	for _, client := range clients {
		views = append(views, toClientView(client))
	}

	return response.Success(c, http.StatusOK, views, "Clients retrieved")
}

// RotateSecret handles POST /admin/clients/:id/rotate.
func (h *ClientAdminHandler) RotateSecret(c echo.Context) error {
	creds, err := h.uc.RotateSecret(c.Request().Context(), c.Param("id"))
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, credentialsView{
		Client:       toClientView(creds.Client),
		ClientSecret: creds.ClientSecret,
	}, "Secret rotated; store the new secret now")
}

// Deactivate handles POST /admin/clients/:id/deactivate.
func (h *ClientAdminHandler) Deactivate(c echo.Context) error {
	if err := h.uc.DeactivateClient(c.Request().Context(), c.Param("id")); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]string{"message": "Client deactivated"}, "Client deactivated")
}

// Delete handles DELETE /admin/clients/:id.
func (h *ClientAdminHandler) Delete(c echo.Context) error {
	if err := h.uc.DeleteClient(c.Request().Context(), c.Param("id")); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]string{"message": "Client deleted"}, "Client deleted")
}

// HealthCheck is a simple handler to check if the service is up.
func HealthCheck(c echo.Context) error {
	return response.Success(c, http.StatusOK, map[string]string{"status": "ok"}, "Service is healthy")
}
