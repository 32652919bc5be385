// Package usecase defines the application's business interfaces and their
// input/output DTOs. Implementations live in usecase/impl.
package usecase

import (
	"context"

	"arcana/internal/domain/entity"
)

// IssueTokenInput carries the client-credentials grant parameters.
type IssueTokenInput struct {
	ClientID     string
	ClientSecret string
	// Scopes is the requested subset; empty means the client's full grant.
	Scopes []string
}

// RefreshClientTokenInput carries the refresh_token grant parameters.
// The client must re-present its credentials alongside the refresh token.
type RefreshClientTokenInput struct {
	RefreshToken string
	ClientID     string
	ClientSecret string
}

// TokenResponse is the OAuth-shaped token endpoint response body.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// CreateClientInput carries the admin parameters for registering a client.
type CreateClientInput struct {
	Name                  string   `json:"name" validate:"required"`
	Description           string   `json:"description"`
	AllowedScopes         []string `json:"allowed_scopes"`
	SupportsRefreshToken  bool     `json:"supports_refresh_token"`
	TokenExpiresIn        int      `json:"token_expires_in"`
	RefreshTokenExpiresIn int      `json:"refresh_token_expires_in"`
}

// ClientCredentials pairs a client record with its plaintext secret. The
// secret exists only in this response; afterwards only the hash survives.
type ClientCredentials struct {
	Client       *entity.Client
	ClientSecret string
}

// ClientUsecase covers the machine-to-machine token flow and client
// administration.
type ClientUsecase interface {
	// IssueToken validates the credentials, resolves scopes and mints tokens.
	IssueToken(ctx context.Context, input *IssueTokenInput) (*TokenResponse, error)

	// RefreshToken exchanges a refresh token for a fresh access token.
	RefreshToken(ctx context.Context, input *RefreshClientTokenInput) (*TokenResponse, error)

	// CreateClient registers a new client and returns its one-time secret.
	CreateClient(ctx context.Context, input *CreateClientInput) (*ClientCredentials, error)

	// RotateSecret regenerates a client's secret, replacing the hash in place.
	RotateSecret(ctx context.Context, clientID string) (*ClientCredentials, error)

	// DeactivateClient soft-disables a client.
	DeactivateClient(ctx context.Context, clientID string) error

	// DeleteClient hard-removes a client.
	DeleteClient(ctx context.Context, clientID string) error

	// ListClients returns all registered clients.
	ListClients(ctx context.Context) ([]*entity.Client, error)
}
