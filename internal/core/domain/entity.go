package domain

// EntityKind distinguishes the two people-like records a project keeps.
type EntityKind string

const (
	EntityClient   EntityKind = "Client"
	EntityOperator EntityKind = "Operator"
)

// Entity is a client or an operator. (name, kind, project) is unique.
type Entity struct {
	ID         int64      `json:"id"`
	ProjectID  int64      `json:"projectId"`
	Kind       EntityKind `json:"kind"`
	Name       string     `json:"name"`
	Phone      string     `json:"phone"`
	NationalID string     `json:"nationalId"`
	Active     bool       `json:"active"`
}

// EntityInput carries the fields accepted on create and update.
type EntityInput struct {
	ProjectID  int64      `json:"projectId" validate:"required,gt=0"`
	Kind       EntityKind `json:"kind" binding:"required" validate:"required,oneof=Client Operator"`
	Name       string     `json:"name" binding:"required" validate:"required"`
	Phone      string     `json:"phone" validate:"omitempty,max=32"`
	NationalID string     `json:"nationalId" validate:"omitempty,max=32"`
	Active     *bool      `json:"active"`
}

// IsActive resolves the optional active flag.
func (in EntityInput) IsActive() bool {
	return in.Active == nil || *in.Active
}
