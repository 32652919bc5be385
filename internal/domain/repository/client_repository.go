// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"errors"
	"time"

	"arcana/internal/domain/entity"
)

// Domain-specific errors for client persistence.
var (
	// ErrClientNotFound is returned when no client matches the lookup.
	ErrClientNotFound = errors.New("client not found")
	// ErrClientExists is returned when a client id is already taken.
	ErrClientExists = errors.New("client already exists")
)

// ClientRepository defines the standard operations for API client persistence.
type ClientRepository interface {
	// Create persists a new client. Fails with ErrClientExists on a
	// duplicate client id.
	Create(ctx context.Context, client *entity.Client) error

	// FindByClientID retrieves a client by its public client id.
	FindByClientID(ctx context.Context, clientID string) (*entity.Client, error)

	// List returns all registered clients.
	List(ctx context.Context) ([]*entity.Client, error)

	// UpdateSecretHash replaces the stored secret hash in place (rotation).
	UpdateSecretHash(ctx context.Context, clientID, secretHash string) error

	// SetActive flips the soft-disable flag.
	SetActive(ctx context.Context, clientID string, active bool) error

	// TouchLastUsed records a successful token issuance.
	TouchLastUsed(ctx context.Context, clientID string, at time.Time) error

	// Delete hard-removes a client.
	Delete(ctx context.Context, clientID string) error
}
