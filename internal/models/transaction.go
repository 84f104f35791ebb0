package models

import (
	"database/sql"

	"github.com/shopspring/decimal"
)

// Transaction is a row of the transactions table.
type Transaction struct {
	ID             string              `db:"id"`
	ProjectID      int64               `db:"project_id"`
	AccountID      int64               `db:"account_id"`
	CategoryID     int64               `db:"category_id"`
	SubcategoryID  sql.NullInt64       `db:"subcategory_id"`
	EquipmentID    sql.NullInt64       `db:"equipment_id"`
	ClientID       sql.NullInt64       `db:"client_id"`
	OperatorID     sql.NullInt64       `db:"operator_id"`
	Kind           string              `db:"kind"`
	Amount         decimal.Decimal     `db:"amount"`
	Date           string              `db:"date"`
	Description    string              `db:"description"`
	Comment        string              `db:"comment"`
	Paid           bool                `db:"paid"`
	Hours          decimal.NullDecimal `db:"hours"`
	PricePerHour   decimal.NullDecimal `db:"price_per_hour"`
	DeliveryNote   string              `db:"delivery_note"`
	Location       string              `db:"location"`
	AttachmentPath string              `db:"attachment_path"`
}

const TransactionColumns = "id, project_id, account_id, category_id, subcategory_id, equipment_id, client_id, operator_id, " +
	"kind, amount, date, description, comment, paid, hours, price_per_hour, delivery_note, location, attachment_path"

func (m *Transaction) Dest() []any {
	return []any{
		&m.ID, &m.ProjectID, &m.AccountID, &m.CategoryID, &m.SubcategoryID, &m.EquipmentID, &m.ClientID, &m.OperatorID,
		&m.Kind, &m.Amount, &m.Date, &m.Description, &m.Comment, &m.Paid, &m.Hours, &m.PricePerHour,
		&m.DeliveryNote, &m.Location, &m.AttachmentPath,
	}
}

// Args returns the column values in TransactionColumns order.
func (m *Transaction) Args() []any {
	return []any{
		m.ID, m.ProjectID, m.AccountID, m.CategoryID, m.SubcategoryID, m.EquipmentID, m.ClientID, m.OperatorID,
		m.Kind, m.Amount, m.Date, m.Description, m.Comment, m.Paid, m.Hours, m.PricePerHour,
		m.DeliveryNote, m.Location, m.AttachmentPath,
	}
}

// RentalMeta is a row of the rental_meta table.
type RentalMeta struct {
	TransactionID  string          `db:"transaction_id"`
	ProjectID      int64           `db:"project_id"`
	EquipmentID    int64           `db:"equipment_id"`
	ClientID       int64           `db:"client_id"`
	OperatorID     int64           `db:"operator_id"`
	Date           string          `db:"date"`
	Hours          decimal.Decimal `db:"hours"`
	PricePerHour   decimal.Decimal `db:"price_per_hour"`
	Amount         decimal.Decimal `db:"amount"`
	DeliveryNote   string          `db:"delivery_note"`
	Location       string          `db:"location"`
	AttachmentPath string          `db:"attachment_path"`
}

const RentalMetaColumns = "transaction_id, project_id, equipment_id, client_id, operator_id, date, hours, price_per_hour, " +
	"amount, delivery_note, location, attachment_path"

func (m *RentalMeta) Dest() []any {
	return []any{
		&m.TransactionID, &m.ProjectID, &m.EquipmentID, &m.ClientID, &m.OperatorID, &m.Date, &m.Hours, &m.PricePerHour,
		&m.Amount, &m.DeliveryNote, &m.Location, &m.AttachmentPath,
	}
}

// Args returns the column values in RentalMetaColumns order.
func (m *RentalMeta) Args() []any {
	return []any{
		m.TransactionID, m.ProjectID, m.EquipmentID, m.ClientID, m.OperatorID, m.Date, m.Hours, m.PricePerHour,
		m.Amount, m.DeliveryNote, m.Location, m.AttachmentPath,
	}
}

// Payment is a row of the payments table.
type Payment struct {
	ID            int64           `db:"id"`
	TransactionID string          `db:"transaction_id"`
	AccountID     int64           `db:"account_id"`
	Date          string          `db:"date"`
	Amount        decimal.Decimal `db:"amount"`
	Comment       string          `db:"comment"`
}

const PaymentColumns = "id, transaction_id, account_id, date, amount, comment"

func (m *Payment) Dest() []any {
	return []any{&m.ID, &m.TransactionID, &m.AccountID, &m.Date, &m.Amount, &m.Comment}
}
