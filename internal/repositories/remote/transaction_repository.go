package remote

import (
	"context"
	"log/slog"
	"sort"

	"github.com/SscSPs/rental_backoffice_app/internal/core/domain"
	client "github.com/SscSPs/rental_backoffice_app/internal/remote"
	"github.com/SscSPs/rental_backoffice_app/internal/utils"
	"github.com/SscSPs/rental_backoffice_app/pkg/database"
)

func sortTransactions(ts []domain.Transaction) {
	sort.SliceStable(ts, func(i, j int) bool {
		if ts[i].Date != ts[j].Date {
			return ts[i].Date < ts[j].Date
		}
		return ts[i].ID < ts[j].ID
	})
}

func (r *Repository) ListTransactions(ctx context.Context, projectID int64, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	recs, err := r.list(ctx, database.TableTransactions)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Transaction, 0, len(recs))
	for _, rec := range recs {
		t := toTransaction(rec)
		if t.ProjectID == projectID && filter.Match(t) {
			out = append(out, t)
		}
	}
	sortTransactions(out)
	return out, nil
}

func (r *Repository) DateBounds(ctx context.Context) (domain.DateBounds, error) {
	recs, err := r.fetchAll(ctx, database.TableTransactions)
	if err != nil {
		return domain.DateBounds{}, err
	}
	var b domain.DateBounds
	for _, rec := range recs {
		d := rec.str("date")
		if d == "" {
			continue
		}
		if b.MinDate == "" || d < b.MinDate {
			b.MinDate = d
		}
		if d > b.MaxDate {
			b.MaxDate = d
		}
	}
	return b, nil
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
	if _, err := r.client.SetDocument(ctx, database.TableTransactions, t.ID, transactionRecord(t)); err != nil {
		return nil, err
	}
	r.logger.Info("Transaction created", slog.String("transaction_id", t.ID), slog.String("kind", string(t.Kind)))
	return &t, nil
}

// rentalIDs returns the ids of every transaction that has a meta document.
func (r *Repository) rentalIDs(ctx context.Context) (map[string]struct{}, error) {
	metas, err := r.list(ctx, database.TableRentalMeta)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		ids[toRentalMeta(m).TransactionID] = struct{}{}
	}
	return ids, nil
}

func (r *Repository) ListRentals(ctx context.Context, projectID int64, filter domain.RentalFilter) ([]domain.Transaction, error) {
	rentals, err := r.rentalIDs(ctx)
	if err != nil {
		return nil, err
	}
	recs, err := r.list(ctx, database.TableTransactions)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Transaction, 0, len(rentals))
	for _, rec := range recs {
		t := toTransaction(rec)
		if _, ok := rentals[t.ID]; !ok || t.ProjectID != projectID || !filter.Match(t) {
			continue
		}
		out = append(out, t)
	}
	sortTransactions(out)
	return out, nil
}

func (r *Repository) FindRentalDetail(ctx context.Context, transactionID string) (*domain.RentalDetail, error) {
	rec, err := r.get(ctx, database.TableTransactions, transactionID)
	if err != nil || rec == nil {
		return nil, err
	}
	detail := &domain.RentalDetail{Transaction: toTransaction(rec)}
	meta, err := r.get(ctx, database.TableRentalMeta, transactionID)
	if err != nil {
		return nil, err
	}
	if meta != nil {
		m := toRentalMeta(meta)
		detail.Meta = &m
	}
	return detail, nil
}

// CreateRental writes the transaction and its meta document in one commit.
func (r *Repository) CreateRental(ctx context.Context, in domain.RentalInput) (*domain.RentalDetail, error) {
	if err := utils.ValidateInput(in); err != nil {
		return nil, err
	}
	id := utils.NewTransactionID()
	t := in.Transaction(id, false)
	meta := in.Meta(id)
	err := r.client.Commit(ctx,
		client.Upsert(database.TableTransactions, id, transactionRecord(t)),
		client.Upsert(database.TableRentalMeta, id, rentalMetaRecord(meta)),
	)
	if err != nil {
		return nil, err
	}
	r.logger.Info("Rental created", slog.String("transaction_id", id), slog.String("amount", t.Amount.String()))
	return &domain.RentalDetail{Transaction: t, Meta: &meta}, nil
}

// UpdateRental rewrites both documents and recomputes the paid flag in one commit.
func (r *Repository) UpdateRental(ctx context.Context, transactionID string, in domain.RentalInput) (*domain.RentalDetail, error) {
	if err := utils.ValidateInput(in); err != nil {
		return nil, err
	}
	current, err := r.mustGet(ctx, database.TableTransactions, transactionID, "rental "+transactionID)
	if err != nil {
		return nil, err
	}
	currentMeta, err := r.get(ctx, database.TableRentalMeta, transactionID)
	if err != nil {
		return nil, err
	}
	payments, err := r.paymentsOf(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	t := in.Transaction(transactionID, false)
	t.Paid = domain.IsPaid(t.Amount, sumPayments(payments, 0))
	meta := in.Meta(transactionID)
	err = r.client.Commit(ctx,
		client.Upsert(database.TableTransactions, transactionID, withFields(current, transactionRecord(t))),
		client.Upsert(database.TableRentalMeta, transactionID, withFields(currentMeta, rentalMetaRecord(meta))),
	)
	if err != nil {
		return nil, err
	}
	r.logger.Info("Rental updated", slog.String("transaction_id", transactionID), slog.String("amount", t.Amount.String()))
	return &domain.RentalDetail{Transaction: t, Meta: &meta}, nil
}

// DeleteRental removes the transaction, its meta document and its payments in one commit.
func (r *Repository) DeleteRental(ctx context.Context, transactionID string) error {
	if _, err := r.mustGet(ctx, database.TableTransactions, transactionID, "rental "+transactionID); err != nil {
		return err
	}
	payments, err := r.paymentsOf(ctx, transactionID)
	if err != nil {
		return err
	}
	writes := []client.Write{
		client.Remove(database.TableTransactions, transactionID),
		client.Remove(database.TableRentalMeta, transactionID),
	}
	for _, p := range payments {
		writes = append(writes, client.Remove(database.TablePayments, docID(p.ID)))
	}
	if err := r.client.Commit(ctx, writes...); err != nil {
		return err
	}
	r.logger.Info("Rental deleted", slog.String("transaction_id", transactionID), slog.Int("payments", len(payments)))
	return nil
}
