package repositories

import (
	"context"

	"github.com/SscSPs/rental_backoffice_app/internal/core/domain"
)

// CatalogReader lists the lookup tables transactions reference.
type CatalogReader interface {
	ListAccounts(ctx context.Context) ([]domain.Account, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	// ListSubcategories returns all subcategories when categoryID is 0.
	ListSubcategories(ctx context.Context, categoryID int64) ([]domain.Subcategory, error)
}

// CatalogWriter creates lookup rows.
type CatalogWriter interface {
	CreateAccount(ctx context.Context, in domain.AccountInput) (*domain.Account, error)
	CreateCategory(ctx context.Context, in domain.CategoryInput) (*domain.Category, error)
	CreateSubcategory(ctx context.Context, in domain.SubcategoryInput) (*domain.Subcategory, error)
}

// CatalogRepositoryFacade combines catalog reads and writes.
type CatalogRepositoryFacade interface {
	CatalogReader
	CatalogWriter
}
