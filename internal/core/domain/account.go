package domain

// Account is a cash or bank account money moves through.
type Account struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"` // (name, type) is unique
}

// AccountInput carries the fields accepted when creating an account.
type AccountInput struct {
	Name string `json:"name" binding:"required" validate:"required"`
	Type string `json:"type" binding:"required" validate:"required"`
}

// Category groups transactions, e.g. "Alquiler" or "Combustible".
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CategoryInput carries the fields accepted when creating a category.
type CategoryInput struct {
	Name string `json:"name" binding:"required" validate:"required"`
}

// Subcategory refines a Category.
type Subcategory struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	CategoryID int64  `json:"categoryId"`
}

// SubcategoryInput carries the fields accepted when creating a subcategory.
type SubcategoryInput struct {
	Name       string `json:"name" binding:"required" validate:"required"`
	CategoryID int64  `json:"categoryId" binding:"required" validate:"required,gt=0"`
}
