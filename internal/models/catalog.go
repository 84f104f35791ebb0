package models

// Project is a row of the projects table.
type Project struct {
	ID               int64  `db:"id"`
	Name             string `db:"name"`
	Description      string `db:"description"`
	Currency         string `db:"currency"`
	PrincipalAccount string `db:"principal_account"`
}

const ProjectColumns = "id, name, description, currency, principal_account"

func (m *Project) Dest() []any {
	return []any{&m.ID, &m.Name, &m.Description, &m.Currency, &m.PrincipalAccount}
}

// Account is a row of the accounts table.
type Account struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
	Type string `db:"type"`
}

const AccountColumns = "id, name, type"

func (m *Account) Dest() []any { return []any{&m.ID, &m.Name, &m.Type} }

// Category is a row of the categories table.
type Category struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

const CategoryColumns = "id, name"

func (m *Category) Dest() []any { return []any{&m.ID, &m.Name} }

// Subcategory is a row of the subcategories table.
type Subcategory struct {
	ID         int64  `db:"id"`
	Name       string `db:"name"`
	CategoryID int64  `db:"category_id"`
}

const SubcategoryColumns = "id, name, category_id"

func (m *Subcategory) Dest() []any { return []any{&m.ID, &m.Name, &m.CategoryID} }
