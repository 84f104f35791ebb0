package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/SscSPs/rental_backoffice_app/internal/core/domain"
	"github.com/SscSPs/rental_backoffice_app/internal/models"
	"github.com/SscSPs/rental_backoffice_app/internal/utils"
	"github.com/SscSPs/rental_backoffice_app/internal/utils/mapping"
)

func (r *Repository) ListMaintenanceByEquipment(ctx context.Context, equipmentID int64) ([]domain.Maintenance, error) {
	ms, err := selectAll[models.Maintenance](ctx, r, r.db(), "list maintenance",
		"SELECT "+models.MaintenanceColumns+" FROM maintenance WHERE equipment_id = ? ORDER BY date DESC, id DESC", equipmentID)
	if err != nil {
		return nil, err
	}
	return mapping.ToDomainMaintenanceSlice(ms), nil
}

func (r *Repository) FindMaintenanceByID(ctx context.Context, maintenanceID int64) (*domain.Maintenance, error) {
	m, err := selectOne[models.Maintenance](ctx, r, r.db(), "find maintenance",
		"SELECT "+models.MaintenanceColumns+" FROM maintenance WHERE id = ?", maintenanceID)
	if err != nil || m == nil {
		return nil, err
	}
	d := mapping.ToDomainMaintenance(*m)
	return &d, nil
}

func (r *Repository) CreateMaintenance(ctx context.Context, in domain.MaintenanceInput) (*domain.Maintenance, error) {
	if err := utils.ValidateInput(in); err != nil {
		return nil, err
	}
	id, err := r.insert(ctx, "create maintenance",
		`INSERT INTO maintenance (equipment_id, date, description, kind, value, odometer_hours, odometer_km, next_kind, next_value, next_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.EquipmentID, in.Date, in.Description, in.Kind, in.Value, in.OdometerHours, in.OdometerKM,
		string(in.NextKind), in.NextValue, in.NextDate)
	if err != nil {
		return nil, err
	}
	m := in.Maintenance(id)
	return &m, nil
}

func (r *Repository) UpdateMaintenance(ctx context.Context, maintenanceID int64, in domain.MaintenanceInput) (*domain.Maintenance, error) {
	if err := utils.ValidateInput(in); err != nil {
		return nil, err
	}
	err := r.execOne(ctx, r.db(), "update maintenance", fmt.Sprintf("maintenance %d", maintenanceID),
		`UPDATE maintenance SET equipment_id = ?, date = ?, description = ?, kind = ?, value = ?, odometer_hours = ?,
		odometer_km = ?, next_kind = ?, next_value = ?, next_date = ? WHERE id = ?`,
		in.EquipmentID, in.Date, in.Description, in.Kind, in.Value, in.OdometerHours,
		in.OdometerKM, string(in.NextKind), in.NextValue, in.NextDate, maintenanceID)
	if err != nil {
		return nil, err
	}
	m := in.Maintenance(maintenanceID)
	return &m, nil
}

func (r *Repository) DeleteMaintenance(ctx context.Context, maintenanceID int64) error {
	return r.execOne(ctx, r.db(), "delete maintenance", fmt.Sprintf("maintenance %d", maintenanceID),
		"DELETE FROM maintenance WHERE id = ?", maintenanceID)
}

// FleetStatus evaluates every active equipment. An empty asOf means today.
func (r *Repository) FleetStatus(ctx context.Context, projectID int64, asOf string) ([]domain.EquipmentStatus, error) {
	if asOf == "" {
		asOf = time.Now().Format(domain.DateLayout)
	}
	active := true
	equipment, err := r.ListEquipment(ctx, projectID, &active)
	if err != nil {
		return nil, err
	}
	metas, err := selectAll[models.RentalMeta](ctx, r, r.db(), "list rental meta",
		"SELECT "+models.RentalMetaColumns+" FROM rental_meta WHERE project_id = ?", projectID)
	if err != nil {
		return nil, err
	}
	rentals := mapping.ToDomainRentalMetaSlice(metas)

	out := make([]domain.EquipmentStatus, 0, len(equipment))
	for _, eq := range equipment {
		history, err := r.ListMaintenanceByEquipment(ctx, eq.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.ComputeFleetStatus(eq, history, rentals, asOf))
	}
	return out, nil
}
