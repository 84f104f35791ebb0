package remote

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SscSPs/rental_backoffice_app/internal/core/domain"
	"github.com/SscSPs/rental_backoffice_app/internal/utils"
	"github.com/SscSPs/rental_backoffice_app/pkg/database"
)

func inputEntity(id int64, in domain.EntityInput) domain.Entity {
	return domain.Entity{
		ID:         id,
		ProjectID:  in.ProjectID,
		Kind:       in.Kind,
		Name:       in.Name,
		Phone:      in.Phone,
		NationalID: in.NationalID,
		Active:     in.IsActive(),
	}
}

func (r *Repository) ListEntities(ctx context.Context, projectID int64, kind domain.EntityKind, includeInactive bool) ([]domain.Entity, error) {
	recs, err := r.list(ctx, database.TableEntities)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Entity, 0, len(recs))
	for _, rec := range recs {
		e := toEntity(rec)
		if e.ProjectID != projectID || e.Kind != kind || (!includeInactive && !e.Active) {
			continue
		}
		out = append(out, e)
	}
	byNameThenID(out, func(e domain.Entity) string { return e.Name }, func(e domain.Entity) int64 { return e.ID })
	return out, nil
}

func (r *Repository) FindEntityByID(ctx context.Context, entityID int64) (*domain.Entity, error) {
	rec, err := r.get(ctx, database.TableEntities, docID(entityID))
	if err != nil || rec == nil {
		return nil, err
	}
	e := toEntity(rec)
	return &e, nil
}

// entityTwin matches another entity with the same (name, kind, project).
func entityTwin(in domain.EntityInput, self int64) func(record) bool {
	return func(rec record) bool {
		return rec.intID() != self &&
			domain.EntityKind(rec.str("kind")) == in.Kind &&
			rec.int("project_id") == in.ProjectID
	}
}

func (r *Repository) CreateEntity(ctx context.Context, in domain.EntityInput) (*domain.Entity, error) {
	if err := utils.ValidateInput(in); err != nil {
		return nil, err
	}
	what := fmt.Sprintf("%s %q", in.Kind, in.Name)
	if err := r.ensureUnique(ctx, database.TableEntities, "name", in.Name, entityTwin(in, 0), what); err != nil {
		return nil, err
	}
	e := inputEntity(0, in)
	id, err := r.create(ctx, database.TableEntities, entityRecord(e))
	if err != nil {
		return nil, err
	}
	e.ID = id
	r.logger.Info("Entity created", slog.Int64("entity_id", id), slog.String("kind", string(in.Kind)))
	return &e, nil
}

func (r *Repository) UpdateEntity(ctx context.Context, entityID int64, in domain.EntityInput) (*domain.Entity, error) {
	if err := utils.ValidateInput(in); err != nil {
		return nil, err
	}
	what := fmt.Sprintf("%s %q", in.Kind, in.Name)
	if err := r.ensureUnique(ctx, database.TableEntities, "name", in.Name, entityTwin(in, entityID), what); err != nil {
		return nil, err
	}
	e := inputEntity(entityID, in)
	if err := r.replace(ctx, database.TableEntities, entityID, "entity", entityRecord(e)); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *Repository) DeactivateEntity(ctx context.Context, entityID int64) error {
	return r.replace(ctx, database.TableEntities, entityID, "entity", map[string]any{"active": false})
}
