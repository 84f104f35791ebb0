package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// TransactionKind indicates the direction money moves.
type TransactionKind string

const (
	Income  TransactionKind = "Income"
	Expense TransactionKind = "Expense"
)

// Transaction is an income or expense line. Rental rows additionally carry
// hours, price per hour, delivery note, location and attachment path.
type Transaction struct {
	ID             string              `json:"id"` // 32 hex chars
	ProjectID      int64               `json:"projectId"`
	AccountID      int64               `json:"accountId"`
	CategoryID     int64               `json:"categoryId"`
	SubcategoryID  *int64              `json:"subcategoryId,omitempty"`
	EquipmentID    *int64              `json:"equipmentId,omitempty"`
	ClientID       *int64              `json:"clientId,omitempty"`
	OperatorID     *int64              `json:"operatorId,omitempty"`
	Kind           TransactionKind     `json:"kind"`
	Amount         decimal.Decimal     `json:"amount"`
	Date           string              `json:"date"`
	Description    string              `json:"description"`
	Comment        string              `json:"comment"`
	Paid           bool                `json:"paid"`
	Hours          decimal.NullDecimal `json:"hours"`
	PricePerHour   decimal.NullDecimal `json:"pricePerHour"`
	DeliveryNote   string              `json:"deliveryNote,omitempty"` // conduce number
	Location       string              `json:"location,omitempty"`
	AttachmentPath string              `json:"attachmentPath,omitempty"`
}

// TransactionInput carries the fields accepted when creating a plain transaction.
type TransactionInput struct {
	ProjectID     int64           `json:"projectId" validate:"required,gt=0"`
	AccountID     int64           `json:"accountId" binding:"required" validate:"required,gt=0"`
	CategoryID    int64           `json:"categoryId" binding:"required" validate:"required,gt=0"`
	SubcategoryID *int64          `json:"subcategoryId"`
	EquipmentID   *int64          `json:"equipmentId"`
	ClientID      *int64          `json:"clientId"`
	OperatorID    *int64          `json:"operatorId"`
	Kind          TransactionKind `json:"kind" binding:"required" validate:"required,oneof=Income Expense"`
	Amount        decimal.Decimal `json:"amount"`
	Date          string          `json:"date" binding:"required" validate:"required,datetime=2006-01-02"`
	Description   string          `json:"description"`
	Comment       string          `json:"comment"`
	Paid          bool            `json:"paid"`
}

// Validate checks the fields struct tags cannot express.
func (in TransactionInput) Validate() error {
	if !in.Amount.IsPositive() {
		return invalid("amount must be greater than zero")
	}
	return nil
}

// TransactionFilter narrows a transaction listing.
type TransactionFilter struct {
	Kind TransactionKind `form:"kind" validate:"omitempty,oneof=Income Expense"`
	DateRange
}

// Match reports whether t passes the filter.
func (f TransactionFilter) Match(t Transaction) bool {
	if f.Kind != "" && t.Kind != f.Kind {
		return false
	}
	return f.DateRange.Contains(t.Date)
}

// RoundMoney rounds to cents.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// containsFold is a case-insensitive substring test used by text filters.
func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
