package sqlite

import (
	"context"

	"github.com/SscSPs/rental_backoffice_app/internal/core/domain"
	"github.com/SscSPs/rental_backoffice_app/internal/models"
	"github.com/SscSPs/rental_backoffice_app/internal/utils"
	"github.com/SscSPs/rental_backoffice_app/internal/utils/mapping"
)

func (r *Repository) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	ms, err := selectAll[models.Account](ctx, r, r.db(), "list accounts",
		"SELECT "+models.AccountColumns+" FROM accounts ORDER BY name, type")
	if err != nil {
		return nil, err
	}
	return mapping.ToDomainAccountSlice(ms), nil
}

func (r *Repository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	ms, err := selectAll[models.Category](ctx, r, r.db(), "list categories",
		"SELECT "+models.CategoryColumns+" FROM categories ORDER BY name")
	if err != nil {
		return nil, err
	}
	return mapping.ToDomainCategorySlice(ms), nil
}

func (r *Repository) ListSubcategories(ctx context.Context, categoryID int64) ([]domain.Subcategory, error) {
	query := "SELECT " + models.SubcategoryColumns + " FROM subcategories"
	var args []any
	if categoryID != 0 {
		query += " WHERE category_id = ?"
		args = append(args, categoryID)
	}
	ms, err := selectAll[models.Subcategory](ctx, r, r.db(), "list subcategories", query+" ORDER BY name", args...)
	if err != nil {
		return nil, err
	}
	return mapping.ToDomainSubcategorySlice(ms), nil
}

func (r *Repository) CreateAccount(ctx context.Context, in domain.AccountInput) (*domain.Account, error) {
	if err := utils.ValidateInput(in); err != nil {
		return nil, err
	}
	id, err := r.insert(ctx, "create account", "INSERT INTO accounts (name, type) VALUES (?, ?)", in.Name, in.Type)
	if err != nil {
		return nil, err
	}
	return &domain.Account{ID: id, Name: in.Name, Type: in.Type}, nil
}

func (r *Repository) CreateCategory(ctx context.Context, in domain.CategoryInput) (*domain.Category, error) {
	if err := utils.ValidateInput(in); err != nil {
		return nil, err
	}
	id, err := r.insert(ctx, "create category", "INSERT INTO categories (name) VALUES (?)", in.Name)
	if err != nil {
		return nil, err
	}
	return &domain.Category{ID: id, Name: in.Name}, nil
}

func (r *Repository) CreateSubcategory(ctx context.Context, in domain.SubcategoryInput) (*domain.Subcategory, error) {
	if err := utils.ValidateInput(in); err != nil {
		return nil, err
	}
	id, err := r.insert(ctx, "create subcategory", "INSERT INTO subcategories (name, category_id) VALUES (?, ?)", in.Name, in.CategoryID)
	if err != nil {
		return nil, err
	}
	return &domain.Subcategory{ID: id, Name: in.Name, CategoryID: in.CategoryID}, nil
}

// insert runs an INSERT and returns the new rowid.
func (r *Repository) insert(ctx context.Context, op, query string, args ...any) (int64, error) {
	res, err := r.exec(ctx, r.db(), op, query, args...)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, r.fail(op, query, err)
	}
	return id, nil
}
