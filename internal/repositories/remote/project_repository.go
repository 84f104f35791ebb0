package remote

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SscSPs/rental_backoffice_app/internal/apperrors"
	"github.com/SscSPs/rental_backoffice_app/internal/core/domain"
	"github.com/SscSPs/rental_backoffice_app/internal/utils"
	"github.com/SscSPs/rental_backoffice_app/pkg/database"
)

func (r *Repository) ListProjects(ctx context.Context) ([]domain.Project, error) {
	recs, err := r.list(ctx, database.TableProjects)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Project, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toProject(rec))
	}
	byNameThenID(out, func(p domain.Project) string { return p.Name }, func(p domain.Project) int64 { return p.ID })
	return out, nil
}

func (r *Repository) FindProjectByID(ctx context.Context, projectID int64) (*domain.Project, error) {
	rec, err := r.get(ctx, database.TableProjects, docID(projectID))
	if err != nil || rec == nil {
		return nil, err
	}
	p := toProject(rec)
	return &p, nil
}

func (r *Repository) CreateProject(ctx context.Context, in domain.ProjectInput) (*domain.Project, error) {
	if err := utils.ValidateInput(in); err != nil {
		return nil, err
	}
	if in.Currency == "" {
		in.Currency = domain.DefaultCurrency
	}
	if err := r.ensureUnique(ctx, database.TableProjects, "name", in.Name, nil, fmt.Sprintf("project %q", in.Name)); err != nil {
		return nil, err
	}
	p := domain.Project{Name: in.Name, Description: in.Description, Currency: in.Currency, PrincipalAccount: in.PrincipalAccount}
	id, err := r.create(ctx, database.TableProjects, projectRecord(p))
	if err != nil {
		return nil, err
	}
	p.ID = id
	r.logger.Info("Project created", slog.Int64("project_id", id), slog.String("name", in.Name))
	return &p, nil
}

// ensureUnique fails with ErrDuplicate when a document already has field == value
// and, when given, also satisfies same.
func (r *Repository) ensureUnique(ctx context.Context, collection, field string, value any, same func(record) bool, what string) error {
	recs, err := r.where(ctx, collection, field, value)
	if err != nil {
		return err
	}
	for _, rec := range recs {
		if same == nil || same(rec) {
			return fmt.Errorf("%s: %w", what, apperrors.ErrDuplicate)
		}
	}
	return nil
}

// Seed creates the default project when there is none and adds any missing default
// accounts and categories.
func (r *Repository) Seed(ctx context.Context) error {
	seed := domain.DefaultSeed()
	projects, err := r.fetchAll(ctx, database.TableProjects)
	if err != nil {
		return err
	}
	if len(projects) == 0 {
		if _, err := r.CreateProject(ctx, seed.Project); err != nil {
			return err
		}
	}
	for _, a := range seed.Accounts {
		if _, err := r.CreateAccount(ctx, a); err != nil && !isDuplicate(err) {
			return err
		}
	}
	for _, c := range seed.Categories {
		if _, err := r.CreateCategory(ctx, domain.CategoryInput{Name: c}); err != nil && !isDuplicate(err) {
			return err
		}
	}
	r.logger.Info("Seed complete", slog.Bool("created_project", len(projects) == 0))
	return nil
}
