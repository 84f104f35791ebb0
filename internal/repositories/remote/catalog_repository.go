package remote

import (
	"context"
	"errors"
	"fmt"

	"github.com/SscSPs/rental_backoffice_app/internal/apperrors"
	"github.com/SscSPs/rental_backoffice_app/internal/core/domain"
	"github.com/SscSPs/rental_backoffice_app/internal/utils"
	"github.com/SscSPs/rental_backoffice_app/pkg/database"
)

func isDuplicate(err error) bool { return errors.Is(err, apperrors.ErrDuplicate) }

func (r *Repository) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	recs, err := r.list(ctx, database.TableAccounts)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Account, 0, len(recs))
	for _, rec := range recs {
		out = append(out, domain.Account{ID: rec.intID(), Name: rec.str("name"), Type: rec.str("type")})
	}
	byNameThenID(out, func(a domain.Account) string { return a.Name + "\x00" + a.Type }, func(a domain.Account) int64 { return a.ID })
	return out, nil
}

func (r *Repository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	recs, err := r.list(ctx, database.TableCategories)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Category, 0, len(recs))
	for _, rec := range recs {
		out = append(out, domain.Category{ID: rec.intID(), Name: rec.str("name")})
	}
	byNameThenID(out, func(c domain.Category) string { return c.Name }, func(c domain.Category) int64 { return c.ID })
	return out, nil
}

func (r *Repository) ListSubcategories(ctx context.Context, categoryID int64) ([]domain.Subcategory, error) {
	recs, err := r.list(ctx, database.TableSubcategories)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Subcategory, 0, len(recs))
	for _, rec := range recs {
		s := domain.Subcategory{ID: rec.intID(), Name: rec.str("name"), CategoryID: rec.int("category_id")}
		if categoryID == 0 || s.CategoryID == categoryID {
			out = append(out, s)
		}
	}
	byNameThenID(out, func(s domain.Subcategory) string { return s.Name }, func(s domain.Subcategory) int64 { return s.ID })
	return out, nil
}

func (r *Repository) CreateAccount(ctx context.Context, in domain.AccountInput) (*domain.Account, error) {
	if err := utils.ValidateInput(in); err != nil {
		return nil, err
	}
	sameType := func(rec record) bool { return rec.str("type") == in.Type }
	if err := r.ensureUnique(ctx, database.TableAccounts, "name", in.Name, sameType, fmt.Sprintf("account %q", in.Name)); err != nil {
		return nil, err
	}
	id, err := r.create(ctx, database.TableAccounts, map[string]any{"name": in.Name, "type": in.Type})
	if err != nil {
		return nil, err
	}
	return &domain.Account{ID: id, Name: in.Name, Type: in.Type}, nil
}

func (r *Repository) CreateCategory(ctx context.Context, in domain.CategoryInput) (*domain.Category, error) {
	if err := utils.ValidateInput(in); err != nil {
		return nil, err
	}
	if err := r.ensureUnique(ctx, database.TableCategories, "name", in.Name, nil, fmt.Sprintf("category %q", in.Name)); err != nil {
		return nil, err
	}
	id, err := r.create(ctx, database.TableCategories, map[string]any{"name": in.Name})
	if err != nil {
		return nil, err
	}
	return &domain.Category{ID: id, Name: in.Name}, nil
}

func (r *Repository) CreateSubcategory(ctx context.Context, in domain.SubcategoryInput) (*domain.Subcategory, error) {
	if err := utils.ValidateInput(in); err != nil {
		return nil, err
	}
	id, err := r.create(ctx, database.TableSubcategories, map[string]any{"name": in.Name, "category_id": in.CategoryID})
	if err != nil {
		return nil, err
	}
	return &domain.Subcategory{ID: id, Name: in.Name, CategoryID: in.CategoryID}, nil
}
