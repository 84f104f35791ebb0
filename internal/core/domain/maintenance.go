package domain

import "github.com/shopspring/decimal"

// Maintenance is a service performed on a piece of equipment.
type Maintenance struct {
	ID            int64           `json:"id"`
	EquipmentID   int64           `json:"equipmentId"`
	Date          string          `json:"date"`
	Description   string          `json:"description"`
	Kind          string          `json:"kind"` // e.g. "Preventivo", "Correctivo"
	Value         decimal.Decimal `json:"value"`
	OdometerHours decimal.Decimal `json:"odometerHours"`
	OdometerKM    decimal.Decimal `json:"odometerKm"`
	NextKind      TriggerKind     `json:"nextKind,omitempty"`
	NextValue     decimal.Decimal `json:"nextValue"`
	NextDate      string          `json:"nextDate,omitempty"`
}

// MaintenanceInput carries the fields accepted on create and update.
type MaintenanceInput struct {
	EquipmentID   int64           `json:"equipmentId" validate:"required,gt=0"`
	Date          string          `json:"date" binding:"required" validate:"required,datetime=2006-01-02"`
	Description   string          `json:"description"`
	Kind          string          `json:"kind"`
	Value         decimal.Decimal `json:"value"`
	OdometerHours decimal.Decimal `json:"odometerHours"`
	OdometerKM    decimal.Decimal `json:"odometerKm"`
	NextKind      TriggerKind     `json:"nextKind"`
	NextValue     decimal.Decimal `json:"nextValue"`
	NextDate      string          `json:"nextDate" validate:"omitempty,datetime=2006-01-02"`
}

// Validate checks the fields struct tags cannot express.
func (in MaintenanceInput) Validate() error {
	if !in.NextKind.Valid() {
		return invalid("unknown next trigger kind %q", in.NextKind)
	}
	if in.Value.IsNegative() {
		return invalid("maintenance value must not be negative")
	}
	return nil
}

// Maintenance builds the record for in with the given id.
func (in MaintenanceInput) Maintenance(id int64) Maintenance {
	return Maintenance{
		ID:            id,
		EquipmentID:   in.EquipmentID,
		Date:          in.Date,
		Description:   in.Description,
		Kind:          in.Kind,
		Value:         in.Value,
		OdometerHours: in.OdometerHours,
		OdometerKM:    in.OdometerKM,
		NextKind:      in.NextKind,
		NextValue:     in.NextValue,
		NextDate:      in.NextDate,
	}
}
