package repositories

import (
	"context"

	"github.com/SscSPs/rental_backoffice_app/internal/core/domain"
)

// EntityReader defines read operations for clients and operators.
type EntityReader interface {
	// ListEntities returns the project's entities of one kind ordered by name.
	// Inactive entities are included only when includeInactive is set.
	ListEntities(ctx context.Context, projectID int64, kind domain.EntityKind, includeInactive bool) ([]domain.Entity, error)

	// FindEntityByID returns nil without error when the entity does not exist.
	FindEntityByID(ctx context.Context, entityID int64) (*domain.Entity, error)
}

// EntityWriter defines write operations for clients and operators.
type EntityWriter interface {
	CreateEntity(ctx context.Context, in domain.EntityInput) (*domain.Entity, error)
	UpdateEntity(ctx context.Context, entityID int64, in domain.EntityInput) (*domain.Entity, error)

	// DeactivateEntity clears the active flag; the row stays for historical references.
	DeactivateEntity(ctx context.Context, entityID int64) error
}

// EntityRepositoryFacade combines entity reads and writes.
type EntityRepositoryFacade interface {
	EntityReader
	EntityWriter
}
