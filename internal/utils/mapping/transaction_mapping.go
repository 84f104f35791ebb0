package mapping

import (
	"database/sql"

	"github.com/SscSPs/rental_backoffice_app/internal/core/domain"
	"github.com/SscSPs/rental_backoffice_app/internal/models"
)

func nullInt(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

func intPtr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

// ToModelTransaction converts a domain Transaction to a model Transaction
func ToModelTransaction(d domain.Transaction) models.Transaction {
	return models.Transaction{
		ID:             d.ID,
		ProjectID:      d.ProjectID,
		AccountID:      d.AccountID,
		CategoryID:     d.CategoryID,
		SubcategoryID:  nullInt(d.SubcategoryID),
		EquipmentID:    nullInt(d.EquipmentID),
		ClientID:       nullInt(d.ClientID),
		OperatorID:     nullInt(d.OperatorID),
		Kind:           string(d.Kind),
		Amount:         d.Amount,
		Date:           d.Date,
		Description:    d.Description,
		Comment:        d.Comment,
		Paid:           d.Paid,
		Hours:          d.Hours,
		PricePerHour:   d.PricePerHour,
		DeliveryNote:   d.DeliveryNote,
		Location:       d.Location,
		AttachmentPath: d.AttachmentPath,
	}
}

// ToDomainTransaction converts a model Transaction to a domain Transaction
func ToDomainTransaction(m models.Transaction) domain.Transaction {
	return domain.Transaction{
		ID:             m.ID,
		ProjectID:      m.ProjectID,
		AccountID:      m.AccountID,
		CategoryID:     m.CategoryID,
		SubcategoryID:  intPtr(m.SubcategoryID),
		EquipmentID:    intPtr(m.EquipmentID),
		ClientID:       intPtr(m.ClientID),
		OperatorID:     intPtr(m.OperatorID),
		Kind:           domain.TransactionKind(m.Kind),
		Amount:         m.Amount,
		Date:           m.Date,
		Description:    m.Description,
		Comment:        m.Comment,
		Paid:           m.Paid,
		Hours:          m.Hours,
		PricePerHour:   m.PricePerHour,
		DeliveryNote:   m.DeliveryNote,
		Location:       m.Location,
		AttachmentPath: m.AttachmentPath,
	}
}

// ToDomainTransactionSlice converts a slice of model Transactions to domain Transactions
func ToDomainTransactionSlice(ms []models.Transaction) []domain.Transaction {
	ds := make([]domain.Transaction, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainTransaction(m)
	}
	return ds
}

// ToModelRentalMeta converts a domain RentalMeta to a model RentalMeta
func ToModelRentalMeta(d domain.RentalMeta) models.RentalMeta {
	return models.RentalMeta(d)
}

// ToDomainRentalMeta converts a model RentalMeta to a domain RentalMeta
func ToDomainRentalMeta(m models.RentalMeta) domain.RentalMeta {
	return domain.RentalMeta(m)
}

// ToDomainRentalMetaSlice converts a slice of model RentalMeta to domain RentalMeta
func ToDomainRentalMetaSlice(ms []models.RentalMeta) []domain.RentalMeta {
	ds := make([]domain.RentalMeta, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainRentalMeta(m)
	}
	return ds
}

// ToDomainPayment converts a model Payment to a domain Payment
func ToDomainPayment(m models.Payment) domain.Payment {
	return domain.Payment(m)
}

// ToDomainPaymentSlice converts a slice of model Payments to domain Payments
func ToDomainPaymentSlice(ms []models.Payment) []domain.Payment {
	ds := make([]domain.Payment, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainPayment(m)
	}
	return ds
}
