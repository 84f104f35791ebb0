package sqlite

import (
	"context"

	"github.com/SscSPs/rental_backoffice_app/internal/core/domain"
	"github.com/SscSPs/rental_backoffice_app/internal/models"
	"github.com/SscSPs/rental_backoffice_app/internal/utils"
	"github.com/SscSPs/rental_backoffice_app/internal/utils/mapping"
)

func (r *Repository) ListEntities(ctx context.Context, projectID int64, kind domain.EntityKind, includeInactive bool) ([]domain.Entity, error) {
	query := "SELECT " + models.EntityColumns + " FROM entities WHERE project_id = ? AND kind = ?"
	if !includeInactive {
		query += " AND active = 1"
	}
	ms, err := selectAll[models.Entity](ctx, r, r.db(), "list entities", query+" ORDER BY name, id", projectID, string(kind))
	if err != nil {
		return nil, err
	}
	return mapping.ToDomainEntitySlice(ms), nil
}

func (r *Repository) FindEntityByID(ctx context.Context, entityID int64) (*domain.Entity, error) {
	m, err := selectOne[models.Entity](ctx, r, r.db(), "find entity",
		"SELECT "+models.EntityColumns+" FROM entities WHERE id = ?", entityID)
	if err != nil || m == nil {
		return nil, err
	}
	e := mapping.ToDomainEntity(*m)
	return &e, nil
}

func (r *Repository) CreateEntity(ctx context.Context, in domain.EntityInput) (*domain.Entity, error) {
	if err := utils.ValidateInput(in); err != nil {
		return nil, err
	}
	id, err := r.insert(ctx, "create entity",
		"INSERT INTO entities (project_id, kind, name, phone, national_id, active) VALUES (?, ?, ?, ?, ?, ?)",
		in.ProjectID, string(in.Kind), in.Name, in.Phone, in.NationalID, in.IsActive())
	if err != nil {
		return nil, err
	}
	return r.FindEntityByID(ctx, id)
}

func (r *Repository) UpdateEntity(ctx context.Context, entityID int64, in domain.EntityInput) (*domain.Entity, error) {
	if err := utils.ValidateInput(in); err != nil {
		return nil, err
	}
	err := r.execOne(ctx, r.db(), "update entity", "entity",
		"UPDATE entities SET project_id = ?, kind = ?, name = ?, phone = ?, national_id = ?, active = ? WHERE id = ?",
		in.ProjectID, string(in.Kind), in.Name, in.Phone, in.NationalID, in.IsActive(), entityID)
	if err != nil {
		return nil, err
	}
	return r.FindEntityByID(ctx, entityID)
}

func (r *Repository) DeactivateEntity(ctx context.Context, entityID int64) error {
	return r.execOne(ctx, r.db(), "deactivate entity", "entity",
		"UPDATE entities SET active = 0 WHERE id = ?", entityID)
}
