package remote

import (
	"context"
	"log/slog"

	"github.com/SscSPs/rental_backoffice_app/internal/core/domain"
	"github.com/SscSPs/rental_backoffice_app/internal/utils"
	"github.com/SscSPs/rental_backoffice_app/pkg/database"
)

func inputEquipment(id int64, in domain.EquipmentInput) domain.Equipment {
	return domain.Equipment{
		ID:                      id,
		ProjectID:               in.ProjectID,
		Name:                    in.Name,
		Brand:                   in.Brand,
		Model:                   in.Model,
		Category:                in.Category,
		Subtype:                 in.Subtype,
		Active:                  in.IsActive(),
		MaintenanceTriggerKind:  in.MaintenanceTriggerKind,
		MaintenanceTriggerValue: in.MaintenanceTriggerValue,
	}
}

func (r *Repository) ListEquipment(ctx context.Context, projectID int64, active *bool) ([]domain.Equipment, error) {
	recs, err := r.list(ctx, database.TableEquipment)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Equipment, 0, len(recs))
	for _, rec := range recs {
		e := toEquipment(rec)
		if e.ProjectID != projectID || (active != nil && e.Active != *active) {
			continue
		}
		out = append(out, e)
	}
	byNameThenID(out, func(e domain.Equipment) string { return e.Name }, func(e domain.Equipment) int64 { return e.ID })
	return out, nil
}

func (r *Repository) FindEquipmentByID(ctx context.Context, equipmentID int64) (*domain.Equipment, error) {
	rec, err := r.get(ctx, database.TableEquipment, docID(equipmentID))
	if err != nil || rec == nil {
		return nil, err
	}
	e := toEquipment(rec)
	return &e, nil
}

func (r *Repository) CreateEquipment(ctx context.Context, in domain.EquipmentInput) (*domain.Equipment, error) {
	if err := utils.ValidateInput(in); err != nil {
		return nil, err
	}
	e := inputEquipment(0, in)
	id, err := r.create(ctx, database.TableEquipment, equipmentRecord(e))
	if err != nil {
		return nil, err
	}
	e.ID = id
	r.logger.Info("Equipment created", slog.Int64("equipment_id", id))
	return &e, nil
}

func (r *Repository) UpdateEquipment(ctx context.Context, equipmentID int64, in domain.EquipmentInput) (*domain.Equipment, error) {
	if err := utils.ValidateInput(in); err != nil {
		return nil, err
	}
	e := inputEquipment(equipmentID, in)
	if err := r.replace(ctx, database.TableEquipment, equipmentID, "equipment", equipmentRecord(e)); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *Repository) DeactivateEquipment(ctx context.Context, equipmentID int64) error {
	return r.replace(ctx, database.TableEquipment, equipmentID, "equipment", map[string]any{"active": false})
}
