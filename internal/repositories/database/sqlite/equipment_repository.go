package sqlite

import (
	"context"
	"log/slog"

	"github.com/SscSPs/rental_backoffice_app/internal/core/domain"
	"github.com/SscSPs/rental_backoffice_app/internal/models"
	"github.com/SscSPs/rental_backoffice_app/internal/utils"
	"github.com/SscSPs/rental_backoffice_app/internal/utils/mapping"
)

func (r *Repository) ListEquipment(ctx context.Context, projectID int64, active *bool) ([]domain.Equipment, error) {
	query := "SELECT " + models.EquipmentColumns + " FROM equipment WHERE project_id = ?"
	args := []any{projectID}
	if active != nil {
		query += " AND active = ?"
		args = append(args, *active)
	}
	ms, err := selectAll[models.Equipment](ctx, r, r.db(), "list equipment", query+" ORDER BY name, id", args...)
	if err != nil {
		return nil, err
	}
	return mapping.ToDomainEquipmentSlice(ms), nil
}

func (r *Repository) FindEquipmentByID(ctx context.Context, equipmentID int64) (*domain.Equipment, error) {
	m, err := selectOne[models.Equipment](ctx, r, r.db(), "find equipment",
		"SELECT "+models.EquipmentColumns+" FROM equipment WHERE id = ?", equipmentID)
	if err != nil || m == nil {
		return nil, err
	}
	e := mapping.ToDomainEquipment(*m)
	return &e, nil
}

func (r *Repository) CreateEquipment(ctx context.Context, in domain.EquipmentInput) (*domain.Equipment, error) {
	if err := utils.ValidateInput(in); err != nil {
		return nil, err
	}
	id, err := r.insert(ctx, "create equipment",
		`INSERT INTO equipment (project_id, name, brand, model, category, subtype, active, maintenance_trigger_kind, maintenance_trigger_value)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.ProjectID, in.Name, in.Brand, in.Model, in.Category, in.Subtype, in.IsActive(),
		string(in.MaintenanceTriggerKind), in.MaintenanceTriggerValue)
	if err != nil {
		return nil, err
	}
	r.logger.Info("Equipment created", slog.Int64("equipment_id", id))
	return r.FindEquipmentByID(ctx, id)
}

func (r *Repository) UpdateEquipment(ctx context.Context, equipmentID int64, in domain.EquipmentInput) (*domain.Equipment, error) {
	if err := utils.ValidateInput(in); err != nil {
		return nil, err
	}
	err := r.execOne(ctx, r.db(), "update equipment", "equipment",
		`UPDATE equipment SET project_id = ?, name = ?, brand = ?, model = ?, category = ?, subtype = ?, active = ?,
		maintenance_trigger_kind = ?, maintenance_trigger_value = ? WHERE id = ?`,
		in.ProjectID, in.Name, in.Brand, in.Model, in.Category, in.Subtype, in.IsActive(),
		string(in.MaintenanceTriggerKind), in.MaintenanceTriggerValue, equipmentID)
	if err != nil {
		return nil, err
	}
	return r.FindEquipmentByID(ctx, equipmentID)
}

func (r *Repository) DeactivateEquipment(ctx context.Context, equipmentID int64) error {
	return r.execOne(ctx, r.db(), "deactivate equipment", "equipment",
		"UPDATE equipment SET active = 0 WHERE id = ?", equipmentID)
}
