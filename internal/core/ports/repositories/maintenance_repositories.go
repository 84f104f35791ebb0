package repositories

import (
	"context"

	"github.com/SscSPs/rental_backoffice_app/internal/core/domain"
)

// MaintenanceReader defines read operations for maintenance records.
type MaintenanceReader interface {
	// ListMaintenanceByEquipment returns the equipment's history, newest first.
	ListMaintenanceByEquipment(ctx context.Context, equipmentID int64) ([]domain.Maintenance, error)

	// FindMaintenanceByID returns nil without error when the record does not exist.
	FindMaintenanceByID(ctx context.Context, maintenanceID int64) (*domain.Maintenance, error)

	// FleetStatus evaluates every active equipment of the project as of the given date.
	FleetStatus(ctx context.Context, projectID int64, asOf string) ([]domain.EquipmentStatus, error)
}

// MaintenanceWriter defines write operations for maintenance records.
type MaintenanceWriter interface {
	CreateMaintenance(ctx context.Context, in domain.MaintenanceInput) (*domain.Maintenance, error)
	UpdateMaintenance(ctx context.Context, maintenanceID int64, in domain.MaintenanceInput) (*domain.Maintenance, error)
	DeleteMaintenance(ctx context.Context, maintenanceID int64) error
}

// MaintenanceRepositoryFacade combines maintenance reads and writes.
type MaintenanceRepositoryFacade interface {
	MaintenanceReader
	MaintenanceWriter
}
