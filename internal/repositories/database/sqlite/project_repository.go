package sqlite

import (
	"context"
	"log/slog"

	"github.com/SscSPs/rental_backoffice_app/internal/core/domain"
	"github.com/SscSPs/rental_backoffice_app/internal/models"
	"github.com/SscSPs/rental_backoffice_app/internal/utils"
	"github.com/SscSPs/rental_backoffice_app/internal/utils/mapping"
	"github.com/SscSPs/rental_backoffice_app/pkg/database"
)

func (r *Repository) ListProjects(ctx context.Context) ([]domain.Project, error) {
	ms, err := selectAll[models.Project](ctx, r, r.db(), "list projects",
		"SELECT "+models.ProjectColumns+" FROM projects ORDER BY name")
	if err != nil {
		return nil, err
	}
	return mapping.ToDomainProjectSlice(ms), nil
}

func (r *Repository) FindProjectByID(ctx context.Context, projectID int64) (*domain.Project, error) {
	m, err := selectOne[models.Project](ctx, r, r.db(), "find project",
		"SELECT "+models.ProjectColumns+" FROM projects WHERE id = ?", projectID)
	if err != nil || m == nil {
		return nil, err
	}
	p := mapping.ToDomainProject(*m)
	return &p, nil
}

func (r *Repository) CreateProject(ctx context.Context, in domain.ProjectInput) (*domain.Project, error) {
	if err := utils.ValidateInput(in); err != nil {
		return nil, err
	}
	if in.Currency == "" {
		in.Currency = domain.DefaultCurrency
	}
	res, err := r.exec(ctx, r.db(), "create project",
		"INSERT INTO projects (name, description, currency, principal_account) VALUES (?, ?, ?, ?)",
		in.Name, in.Description, in.Currency, in.PrincipalAccount)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, r.fail("create project", "last insert id", err)
	}
	r.logger.Info("Project created", slog.Int64("project_id", id), slog.String("name", in.Name))
	return &domain.Project{ID: id, Name: in.Name, Description: in.Description, Currency: in.Currency, PrincipalAccount: in.PrincipalAccount}, nil
}

// Seed fills an empty store with the default project, accounts and categories.
// Accounts and categories are inserted with OR IGNORE so reruns are harmless.
func (r *Repository) Seed(ctx context.Context) error {
	seed := domain.DefaultSeed()
	n, err := r.store.CountRows(ctx, database.TableProjects)
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := r.CreateProject(ctx, seed.Project); err != nil {
			return err
		}
	}
	for _, a := range seed.Accounts {
		if _, err := r.exec(ctx, r.db(), "seed account", "INSERT OR IGNORE INTO accounts (name, type) VALUES (?, ?)", a.Name, a.Type); err != nil {
			return err
		}
	}
	for _, c := range seed.Categories {
		if _, err := r.exec(ctx, r.db(), "seed category", "INSERT OR IGNORE INTO categories (name) VALUES (?)", c); err != nil {
			return err
		}
	}
	r.logger.Info("Seed complete", slog.Bool("created_project", n == 0))
	return nil
}
