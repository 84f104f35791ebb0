package repositories

import (
	"context"

	"github.com/SscSPs/rental_backoffice_app/internal/core/domain"
)

// EquipmentReader defines read operations for equipment.
type EquipmentReader interface {
	// ListEquipment returns the project's equipment ordered by name. A nil active lists both states.
	ListEquipment(ctx context.Context, projectID int64, active *bool) ([]domain.Equipment, error)

	// FindEquipmentByID returns nil without error when the equipment does not exist.
	FindEquipmentByID(ctx context.Context, equipmentID int64) (*domain.Equipment, error)
}

// EquipmentWriter defines write operations for equipment.
type EquipmentWriter interface {
	CreateEquipment(ctx context.Context, in domain.EquipmentInput) (*domain.Equipment, error)
	UpdateEquipment(ctx context.Context, equipmentID int64, in domain.EquipmentInput) (*domain.Equipment, error)

	// DeactivateEquipment clears the active flag; the row stays for historical references.
	DeactivateEquipment(ctx context.Context, equipmentID int64) error
}

// EquipmentRepositoryFacade combines equipment reads and writes.
type EquipmentRepositoryFacade interface {
	EquipmentReader
	EquipmentWriter
}
