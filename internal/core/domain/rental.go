package domain

import "github.com/shopspring/decimal"

// RentalMeta is the 1:1 shadow of a rental transaction carrying the rental columns.
// Its scalar fields always equal the owning transaction's.
type RentalMeta struct {
	TransactionID  string          `json:"transactionId"`
	ProjectID      int64           `json:"projectId"`
	EquipmentID    int64           `json:"equipmentId"`
	ClientID       int64           `json:"clientId"`
	OperatorID     int64           `json:"operatorId"`
	Date           string          `json:"date"`
	Hours          decimal.Decimal `json:"hours"`
	PricePerHour   decimal.Decimal `json:"pricePerHour"`
	Amount         decimal.Decimal `json:"amount"`
	DeliveryNote   string          `json:"deliveryNote"`
	Location       string          `json:"location"`
	AttachmentPath string          `json:"attachmentPath"`
}

// RentalDetail is a rental transaction together with its meta row.
type RentalDetail struct {
	Transaction Transaction `json:"transaction"`
	Meta        *RentalMeta `json:"meta"`
}

// RentalInput carries the fields accepted when creating or editing a rental.
type RentalInput struct {
	ProjectID      int64           `json:"projectId" validate:"required,gt=0"`
	AccountID      int64           `json:"accountId" binding:"required" validate:"required,gt=0"`
	CategoryID     int64           `json:"categoryId" binding:"required" validate:"required,gt=0"`
	SubcategoryID  *int64          `json:"subcategoryId"`
	EquipmentID    int64           `json:"equipmentId" binding:"required" validate:"required,gt=0"`
	ClientID       int64           `json:"clientId" binding:"required" validate:"required,gt=0"`
	OperatorID     int64           `json:"operatorId" binding:"required" validate:"required,gt=0"`
	Date           string          `json:"date" binding:"required" validate:"required,datetime=2006-01-02"`
	Hours          decimal.Decimal `json:"hours"`
	PricePerHour   decimal.Decimal `json:"pricePerHour"`
	DeliveryNote   string          `json:"deliveryNote"`
	Location       string          `json:"location"`
	AttachmentPath string          `json:"attachmentPath"`
	Description    string          `json:"description"`
	Comment        string          `json:"comment"`
}

// Validate checks the fields struct tags cannot express.
func (in RentalInput) Validate() error {
	if !in.Hours.IsPositive() {
		return invalid("hours must be greater than zero")
	}
	if in.PricePerHour.IsNegative() {
		return invalid("price per hour must not be negative")
	}
	return nil
}

// Amount is hours times price, rounded to cents.
func (in RentalInput) Amount() decimal.Decimal {
	return RoundMoney(in.Hours.Mul(in.PricePerHour))
}

// Transaction builds the income transaction a rental writes. paid is carried over on edits.
func (in RentalInput) Transaction(id string, paid bool) Transaction {
	return Transaction{
		ID:             id,
		ProjectID:      in.ProjectID,
		AccountID:      in.AccountID,
		CategoryID:     in.CategoryID,
		SubcategoryID:  in.SubcategoryID,
		EquipmentID:    Int64Ptr(in.EquipmentID),
		ClientID:       Int64Ptr(in.ClientID),
		OperatorID:     Int64Ptr(in.OperatorID),
		Kind:           Income,
		Amount:         in.Amount(),
		Date:           in.Date,
		Description:    in.Description,
		Comment:        in.Comment,
		Paid:           paid,
		Hours:          decimal.NewNullDecimal(in.Hours),
		PricePerHour:   decimal.NewNullDecimal(in.PricePerHour),
		DeliveryNote:   in.DeliveryNote,
		Location:       in.Location,
		AttachmentPath: in.AttachmentPath,
	}
}

// Meta builds the shadow row for a rental transaction.
func (in RentalInput) Meta(transactionID string) RentalMeta {
	return RentalMeta{
		TransactionID:  transactionID,
		ProjectID:      in.ProjectID,
		EquipmentID:    in.EquipmentID,
		ClientID:       in.ClientID,
		OperatorID:     in.OperatorID,
		Date:           in.Date,
		Hours:          in.Hours,
		PricePerHour:   in.PricePerHour,
		Amount:         in.Amount(),
		DeliveryNote:   in.DeliveryNote,
		Location:       in.Location,
		AttachmentPath: in.AttachmentPath,
	}
}

// RentalFilter narrows a rental listing.
type RentalFilter struct {
	DateRange
	ClientID    int64  `form:"client_id"`
	OperatorID  int64  `form:"operator_id"`
	EquipmentID int64  `form:"equipment_id"`
	Text        string `form:"q"` // Matched against description, comment, delivery note and location
}

// Match reports whether a rental transaction passes the filter.
func (f RentalFilter) Match(t Transaction) bool {
	if !f.DateRange.Contains(t.Date) {
		return false
	}
	if f.ClientID != 0 && (t.ClientID == nil || *t.ClientID != f.ClientID) {
		return false
	}
	if f.OperatorID != 0 && (t.OperatorID == nil || *t.OperatorID != f.OperatorID) {
		return false
	}
	if f.EquipmentID != 0 && (t.EquipmentID == nil || *t.EquipmentID != f.EquipmentID) {
		return false
	}
	if f.Text != "" {
		return containsFold(t.Description, f.Text) ||
			containsFold(t.Comment, f.Text) ||
			containsFold(t.DeliveryNote, f.Text) ||
			containsFold(t.Location, f.Text)
	}
	return true
}
