package models

import "github.com/shopspring/decimal"

// Equipment is a row of the equipment table.
type Equipment struct {
	ID                      int64           `db:"id"`
	ProjectID               int64           `db:"project_id"`
	Name                    string          `db:"name"`
	Brand                   string          `db:"brand"`
	Model                   string          `db:"model"`
	Category                string          `db:"category"`
	Subtype                 string          `db:"subtype"`
	Active                  bool            `db:"active"`
	MaintenanceTriggerKind  string          `db:"maintenance_trigger_kind"`
	MaintenanceTriggerValue decimal.Decimal `db:"maintenance_trigger_value"`
}

const EquipmentColumns = "id, project_id, name, brand, model, category, subtype, active, maintenance_trigger_kind, maintenance_trigger_value"

func (m *Equipment) Dest() []any {
	return []any{&m.ID, &m.ProjectID, &m.Name, &m.Brand, &m.Model, &m.Category, &m.Subtype, &m.Active, &m.MaintenanceTriggerKind, &m.MaintenanceTriggerValue}
}

// Entity is a row of the entities table (clients and operators).
type Entity struct {
	ID         int64  `db:"id"`
	ProjectID  int64  `db:"project_id"`
	Kind       string `db:"kind"`
	Name       string `db:"name"`
	Phone      string `db:"phone"`
	NationalID string `db:"national_id"`
	Active     bool   `db:"active"`
}

const EntityColumns = "id, project_id, kind, name, phone, national_id, active"

func (m *Entity) Dest() []any {
	return []any{&m.ID, &m.ProjectID, &m.Kind, &m.Name, &m.Phone, &m.NationalID, &m.Active}
}

// Maintenance is a row of the maintenance table.
type Maintenance struct {
	ID            int64           `db:"id"`
	EquipmentID   int64           `db:"equipment_id"`
	Date          string          `db:"date"`
	Description   string          `db:"description"`
	Kind          string          `db:"kind"`
	Value         decimal.Decimal `db:"value"`
	OdometerHours decimal.Decimal `db:"odometer_hours"`
	OdometerKM    decimal.Decimal `db:"odometer_km"`
	NextKind      string          `db:"next_kind"`
	NextValue     decimal.Decimal `db:"next_value"`
	NextDate      string          `db:"next_date"`
}

const MaintenanceColumns = "id, equipment_id, date, description, kind, value, odometer_hours, odometer_km, next_kind, next_value, next_date"

func (m *Maintenance) Dest() []any {
	return []any{&m.ID, &m.EquipmentID, &m.Date, &m.Description, &m.Kind, &m.Value, &m.OdometerHours, &m.OdometerKM, &m.NextKind, &m.NextValue, &m.NextDate}
}
