package domain

import "github.com/shopspring/decimal"

// TriggerKind selects how a maintenance interval is measured.
type TriggerKind string

const (
	TriggerHours TriggerKind = "HOURS"
	TriggerKM    TriggerKind = "KM"
	TriggerDays  TriggerKind = "DAYS"
)

// Valid reports whether k is a known trigger kind. The empty kind means "no trigger".
func (k TriggerKind) Valid() bool {
	switch k {
	case "", TriggerHours, TriggerKM, TriggerDays:
		return true
	}
	return false
}

// Equipment is a rentable machine.
type Equipment struct {
	ID                      int64           `json:"id"`
	ProjectID               int64           `json:"projectId"`
	Name                    string          `json:"name"`
	Brand                   string          `json:"brand"`
	Model                   string          `json:"model"`
	Category                string          `json:"category"`
	Subtype                 string          `json:"subtype"`
	Active                  bool            `json:"active"`
	MaintenanceTriggerKind  TriggerKind     `json:"maintenanceTriggerKind"`
	MaintenanceTriggerValue decimal.Decimal `json:"maintenanceTriggerValue"`
}

// EquipmentInput carries the fields accepted on create and update.
type EquipmentInput struct {
	ProjectID               int64           `json:"projectId" validate:"required,gt=0"`
	Name                    string          `json:"name" binding:"required" validate:"required"`
	Brand                   string          `json:"brand"`
	Model                   string          `json:"model"`
	Category                string          `json:"category"`
	Subtype                 string          `json:"subtype"`
	Active                  *bool           `json:"active"`
	MaintenanceTriggerKind  TriggerKind     `json:"maintenanceTriggerKind"`
	MaintenanceTriggerValue decimal.Decimal `json:"maintenanceTriggerValue"`
}

// Validate checks the fields struct tags cannot express.
func (in EquipmentInput) Validate() error {
	if !in.MaintenanceTriggerKind.Valid() {
		return invalid("unknown maintenance trigger kind %q", in.MaintenanceTriggerKind)
	}
	if in.MaintenanceTriggerValue.IsNegative() {
		return invalid("maintenance trigger value must not be negative")
	}
	return nil
}

// IsActive resolves the optional active flag; new equipment is active unless stated.
func (in EquipmentInput) IsActive() bool {
	return in.Active == nil || *in.Active
}

// EquipmentStatus is one row of the fleet status board.
type EquipmentStatus struct {
	Equipment       Equipment       `json:"equipment"`
	LastMaintenance *Maintenance    `json:"lastMaintenance,omitempty"`
	UsageSinceLast  decimal.Decimal `json:"usageSinceLast"` // Hours for HOURS triggers, days for DAYS triggers
	NextDueDate     string          `json:"nextDueDate,omitempty"`
	Due             bool            `json:"due"`
}
