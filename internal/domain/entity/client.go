// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// Default token lifetimes for newly registered API clients.
const (
	DefaultAccessTokenTTL  = 3600           // seconds
	DefaultRefreshTokenTTL = 7 * 24 * 3600  // seconds
)

// Client represents a machine credential for the client-credentials flow.
// The secret is never stored in plaintext; only its bcrypt hash is persisted.
type Client struct {
	ID                    uuid.UUID // The unique ID for this client record itself.
	ClientID              string    // The public identifier presented during token requests. Globally unique.
	SecretHash            string    // bcrypt hash of the client secret.
	Name                  string    // Human-readable display name.
	Description           string    // Optional description of what the client is for.
	IsActive              bool      // Soft-disable switch; inactive clients cannot obtain tokens.
	AllowedScopes         []string  // Scopes this client may request. Defaults to {read, write}.
	TokenExpiresIn        int       // Access token lifetime in seconds.
	RefreshTokenExpiresIn int       // Refresh token lifetime in seconds.
	SupportsRefreshToken  bool      // Whether token responses include a refresh token.
	LastUsedAt            *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// NewClient builds a client with the system defaults applied.
func NewClient(clientID, name, description string) *Client {
	return &Client{
		ClientID:              clientID,
		Name:                  name,
		Description:           description,
		IsActive:              true,
		AllowedScopes:         []string{ScopeRead, ScopeWrite},
		TokenExpiresIn:        DefaultAccessTokenTTL,
		RefreshTokenExpiresIn: DefaultRefreshTokenTTL,
	}
}
