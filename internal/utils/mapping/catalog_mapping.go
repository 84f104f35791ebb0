package mapping

import (
	"github.com/SscSPs/rental_backoffice_app/internal/core/domain"
	"github.com/SscSPs/rental_backoffice_app/internal/models"
)

// ToDomainProject converts a model Project to a domain Project
func ToDomainProject(m models.Project) domain.Project {
	return domain.Project{
		ID:               m.ID,
		Name:             m.Name,
		Description:      m.Description,
		Currency:         m.Currency,
		PrincipalAccount: m.PrincipalAccount,
	}
}

// ToDomainProjectSlice converts a slice of model Projects to a slice of domain Projects
func ToDomainProjectSlice(ms []models.Project) []domain.Project {
	ds := make([]domain.Project, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainProject(m)
	}
	return ds
}

// ToDomainAccountSlice converts model Accounts to domain Accounts
func ToDomainAccountSlice(ms []models.Account) []domain.Account {
	ds := make([]domain.Account, len(ms))
	for i, m := range ms {
		ds[i] = domain.Account{ID: m.ID, Name: m.Name, Type: m.Type}
	}
	return ds
}

// ToDomainCategorySlice converts model Categories to domain Categories
func ToDomainCategorySlice(ms []models.Category) []domain.Category {
	ds := make([]domain.Category, len(ms))
	for i, m := range ms {
		ds[i] = domain.Category{ID: m.ID, Name: m.Name}
	}
	return ds
}

// ToDomainSubcategorySlice converts model Subcategories to domain Subcategories
func ToDomainSubcategorySlice(ms []models.Subcategory) []domain.Subcategory {
	ds := make([]domain.Subcategory, len(ms))
	for i, m := range ms {
		ds[i] = domain.Subcategory{ID: m.ID, Name: m.Name, CategoryID: m.CategoryID}
	}
	return ds
}
