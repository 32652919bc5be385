// Package model contains the document representations persisted to MongoDB
// and their conversions to and from domain entities.
package model

import (
	"time"

	"github.com/google/uuid"

	"arcana/internal/domain/entity"
)

// ClientModel is the stored form of entity.Client.
type ClientModel struct {
	ID                    string     `bson:"_id"`
	ClientID              string     `bson:"client_id"`
	SecretHash            string     `bson:"secret_hash"`
	Name                  string     `bson:"name"`
	Description           string     `bson:"description,omitempty"`
	IsActive              bool       `bson:"is_active"`
	AllowedScopes         []string   `bson:"allowed_scopes"`
	TokenExpiresIn        int        `bson:"token_expires_in"`
	RefreshTokenExpiresIn int        `bson:"refresh_token_expires_in"`
	SupportsRefreshToken  bool       `bson:"supports_refresh_token"`
	LastUsedAt            *time.Time `bson:"last_used_at,omitempty"`
	CreatedAt             time.Time  `bson:"created_at"`
	UpdatedAt             time.Time  `bson:"updated_at"`
}

// FromClientEntity converts a domain client into its stored form.
func FromClientEntity(client *entity.Client) *ClientModel {
	return &ClientModel{
		ID:                    client.ID.String(),
		ClientID:              client.ClientID,
		SecretHash:            client.SecretHash,
		Name:                  client.Name,
		Description:           client.Description,
		IsActive:              client.IsActive,
		AllowedScopes:         client.AllowedScopes,
		TokenExpiresIn:        client.TokenExpiresIn,
		RefreshTokenExpiresIn: client.RefreshTokenExpiresIn,
		SupportsRefreshToken:  client.SupportsRefreshToken,
		LastUsedAt:            client.LastUsedAt,
		CreatedAt:             client.CreatedAt,
		UpdatedAt:             client.UpdatedAt,
	}
}

// ToEntity converts the stored form back into a domain client.
func (m *ClientModel) ToEntity() *entity.Client {
	id, _ := uuid.Parse(m.ID)

	return &entity.Client{
		ID:                    id,
		ClientID:              m.ClientID,
		SecretHash:            m.SecretHash,
		Name:                  m.Name,
		Description:           m.Description,
		IsActive:              m.IsActive,
		AllowedScopes:         m.AllowedScopes,
		TokenExpiresIn:        m.TokenExpiresIn,
		RefreshTokenExpiresIn: m.RefreshTokenExpiresIn,
		SupportsRefreshToken:  m.SupportsRefreshToken,
		LastUsedAt:            m.LastUsedAt,
		CreatedAt:             m.CreatedAt,
		UpdatedAt:             m.UpdatedAt,
	}
}
