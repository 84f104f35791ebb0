package sqlite

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"

	"github.com/SscSPs/rental_backoffice_app/internal/apperrors"
	"github.com/SscSPs/rental_backoffice_app/internal/core/domain"
	"github.com/SscSPs/rental_backoffice_app/internal/models"
	"github.com/SscSPs/rental_backoffice_app/internal/utils"
	"github.com/SscSPs/rental_backoffice_app/internal/utils/mapping"
)

const (
	insertTransactionSQL = "INSERT INTO transactions (" + models.TransactionColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
	upsertRentalMetaSQL  = "INSERT OR REPLACE INTO rental_meta (" + models.RentalMetaColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
	isRentalSQL          = "EXISTS (SELECT 1 FROM rental_meta m WHERE m.transaction_id = transactions.id)"
)

// dateRangeSQL appends the range predicates. Dates are compared on their first ten characters
// so timestamp-shaped values behave like plain dates.
func dateRangeSQL(r domain.DateRange, column string, where []string, args []any) ([]string, []any) {
	if r.From != "" {
		where = append(where, "substr("+column+", 1, 10) >= ?")
		args = append(args, r.From)
	}
	if r.To != "" {
		where = append(where, "substr("+column+", 1, 10) <= ?")
		args = append(args, r.To)
	}
	return where, args
}

func (r *Repository) ListTransactions(ctx context.Context, projectID int64, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	where := []string{"project_id = ?"}
	args := []any{projectID}
	if filter.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(filter.Kind))
	}
	where, args = dateRangeSQL(filter.DateRange, "date", where, args)

	ms, err := selectAll[models.Transaction](ctx, r, r.db(), "list transactions",
		"SELECT "+models.TransactionColumns+" FROM transactions WHERE "+strings.Join(where, " AND ")+" ORDER BY date, id", args...)
	if err != nil {
		return nil, err
	}
	return mapping.ToDomainTransactionSlice(ms), nil
}

func (r *Repository) DateBounds(ctx context.Context) (domain.DateBounds, error) {
	minDate, maxDate, err := r.store.DateBounds(ctx)
	if err != nil {
		return domain.DateBounds{}, err
	}
	return domain.DateBounds{MinDate: minDate, MaxDate: maxDate}, nil
}

func (r *Repository) CreateTransaction(ctx context.Context, in domain.TransactionInput) (*domain.Transaction, error) {
	if err := utils.ValidateInput(in); err != nil {
		return nil, err
	}
	t := domain.Transaction{
		ID:            utils.NewTransactionID(),
		ProjectID:     in.ProjectID,
		AccountID:     in.AccountID,
		CategoryID:    in.CategoryID,
		SubcategoryID: in.SubcategoryID,
		EquipmentID:   in.EquipmentID,
		ClientID:      in.ClientID,
		OperatorID:    in.OperatorID,
		Kind:          in.Kind,
		Amount:        domain.RoundMoney(in.Amount),
		Date:          in.Date,
		Description:   in.Description,
		Comment:       in.Comment,
		Paid:          in.Paid,
	}
	m := mapping.ToModelTransaction(t)
	if _, err := r.exec(ctx, r.db(), "create transaction", insertTransactionSQL, m.Args()...); err != nil {
		return nil, err
	}
	r.logger.Info("Transaction created", slog.String("transaction_id", t.ID), slog.String("kind", string(t.Kind)))
	return &t, nil
}

func (r *Repository) ListRentals(ctx context.Context, projectID int64, filter domain.RentalFilter) ([]domain.Transaction, error) {
	where := []string{"project_id = ?", isRentalSQL}
	args := []any{projectID}
	where, args = dateRangeSQL(filter.DateRange, "date", where, args)
	if filter.ClientID != 0 {
		where = append(where, "client_id = ?")
		args = append(args, filter.ClientID)
	}
	if filter.OperatorID != 0 {
		where = append(where, "operator_id = ?")
		args = append(args, filter.OperatorID)
	}
	if filter.EquipmentID != 0 {
		where = append(where, "equipment_id = ?")
		args = append(args, filter.EquipmentID)
	}
	if filter.Text != "" {
		like := "%" + strings.ToLower(filter.Text) + "%"
		where = append(where, "(lower(description) LIKE ? OR lower(comment) LIKE ? OR lower(delivery_note) LIKE ? OR lower(location) LIKE ?)")
		args = append(args, like, like, like, like)
	}

	ms, err := selectAll[models.Transaction](ctx, r, r.db(), "list rentals",
		"SELECT "+models.TransactionColumns+" FROM transactions WHERE "+strings.Join(where, " AND ")+" ORDER BY date, id", args...)
	if err != nil {
		return nil, err
	}
	// SQL LIKE folds ASCII only; the pure predicate has the final word.
	out := make([]domain.Transaction, 0, len(ms))
	for _, t := range mapping.ToDomainTransactionSlice(ms) {
		if filter.Match(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *Repository) FindRentalDetail(ctx context.Context, transactionID string) (*domain.RentalDetail, error) {
	return r.findRentalDetail(ctx, r.db(), transactionID)
}

func (r *Repository) findRentalDetail(ctx context.Context, q querier, transactionID string) (*domain.RentalDetail, error) {
	t, err := selectOne[models.Transaction](ctx, r, q, "find transaction",
		"SELECT "+models.TransactionColumns+" FROM transactions WHERE id = ?", transactionID)
	if err != nil || t == nil {
		return nil, err
	}
	detail := &domain.RentalDetail{Transaction: mapping.ToDomainTransaction(*t)}
	meta, err := selectOne[models.RentalMeta](ctx, r, q, "find rental meta",
		"SELECT "+models.RentalMetaColumns+" FROM rental_meta WHERE transaction_id = ?", transactionID)
	if err != nil {
		return nil, err
	}
	if meta != nil {
		m := mapping.ToDomainRentalMeta(*meta)
		detail.Meta = &m
	}
	return detail, nil
}

// CreateRental writes the transaction and its meta row in one transaction.
func (r *Repository) CreateRental(ctx context.Context, in domain.RentalInput) (*domain.RentalDetail, error) {
	if err := utils.ValidateInput(in); err != nil {
		return nil, err
	}
	id := utils.NewTransactionID()
	t := mapping.ToModelTransaction(in.Transaction(id, false))
	meta := mapping.ToModelRentalMeta(in.Meta(id))

	var detail *domain.RentalDetail
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := r.exec(ctx, tx, "create rental", insertTransactionSQL, t.Args()...); err != nil {
			return err
		}
		if _, err := r.exec(ctx, tx, "create rental meta", upsertRentalMetaSQL, meta.Args()...); err != nil {
			return err
		}
		var err error
		detail, err = r.findRentalDetail(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	r.logger.Info("Rental created", slog.String("transaction_id", id), slog.String("amount", t.Amount.String()))
	return detail, nil
}

// UpdateRental rewrites both rows and recomputes the paid flag, since the amount may have changed.
func (r *Repository) UpdateRental(ctx context.Context, transactionID string, in domain.RentalInput) (*domain.RentalDetail, error) {
	if err := utils.ValidateInput(in); err != nil {
		return nil, err
	}
	t := mapping.ToModelTransaction(in.Transaction(transactionID, false))
	meta := mapping.ToModelRentalMeta(in.Meta(transactionID))

	var detail *domain.RentalDetail
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		err := r.execOne(ctx, tx, "update rental", "rental "+transactionID,
			`UPDATE transactions SET project_id = ?, account_id = ?, category_id = ?, subcategory_id = ?, equipment_id = ?,
			client_id = ?, operator_id = ?, kind = ?, amount = ?, date = ?, description = ?, comment = ?, hours = ?,
			price_per_hour = ?, delivery_note = ?, location = ?, attachment_path = ? WHERE id = ?`,
			t.ProjectID, t.AccountID, t.CategoryID, t.SubcategoryID, t.EquipmentID,
			t.ClientID, t.OperatorID, t.Kind, t.Amount, t.Date, t.Description, t.Comment, t.Hours,
			t.PricePerHour, t.DeliveryNote, t.Location, t.AttachmentPath, transactionID)
		if err != nil {
			return err
		}
		if _, err := r.exec(ctx, tx, "update rental meta", upsertRentalMetaSQL, meta.Args()...); err != nil {
			return err
		}
		if err := r.recomputePaid(ctx, tx, transactionID); err != nil {
			return err
		}
		detail, err = r.findRentalDetail(ctx, tx, transactionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	r.logger.Info("Rental updated", slog.String("transaction_id", transactionID), slog.String("amount", t.Amount.String()))
	return detail, nil
}

// DeleteRental hard-deletes the transaction together with its meta row and payments.
func (r *Repository) DeleteRental(ctx context.Context, transactionID string) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := r.exec(ctx, tx, "delete rental payments", "DELETE FROM payments WHERE transaction_id = ?", transactionID); err != nil {
			return err
		}
		if _, err := r.exec(ctx, tx, "delete rental meta", "DELETE FROM rental_meta WHERE transaction_id = ?", transactionID); err != nil {
			return err
		}
		err := r.execOne(ctx, tx, "delete rental", "rental "+transactionID, "DELETE FROM transactions WHERE id = ?", transactionID)
		if err == nil {
			r.logger.Info("Rental deleted", slog.String("transaction_id", transactionID))
		}
		return err
	})
}

// transactionAmount returns the amount of a transaction, or ErrNotFound.
func (r *Repository) transactionAmount(ctx context.Context, q querier, transactionID string) (models.Transaction, error) {
	t, err := selectOne[models.Transaction](ctx, r, q, "find transaction",
		"SELECT "+models.TransactionColumns+" FROM transactions WHERE id = ?", transactionID)
	if err != nil {
		return models.Transaction{}, err
	}
	if t == nil {
		return models.Transaction{}, apperrors.NewNotFoundError("transaction " + transactionID + " not found")
	}
	return *t, nil
}
