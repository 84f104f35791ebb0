package domain

// Project is a business unit that owns equipment, entities and transactions.
type Project struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"` // Unique
	Description      string `json:"description"`
	Currency         string `json:"currency"`
	PrincipalAccount string `json:"principalAccount"` // Label of the account most payments go to
}

// ProjectInput carries the fields accepted when creating a project.
type ProjectInput struct {
	Name             string `json:"name" binding:"required" validate:"required,max=120"`
	Description      string `json:"description"`
	Currency         string `json:"currency" validate:"omitempty,max=8"`
	PrincipalAccount string `json:"principalAccount"`
}

// DefaultCurrency is applied when a project is created without one.
const DefaultCurrency = "RD$"
