package remote

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/SscSPs/rental_backoffice_app/internal/core/domain"
	client "github.com/SscSPs/rental_backoffice_app/internal/remote"
	"github.com/SscSPs/rental_backoffice_app/internal/utils"
	"github.com/SscSPs/rental_backoffice_app/pkg/database"
	"github.com/shopspring/decimal"
)

func sortPayments(ps []domain.Payment) {
	sort.SliceStable(ps, func(i, j int) bool {
		if ps[i].Date != ps[j].Date {
			return ps[i].Date < ps[j].Date
		}
		return ps[i].ID < ps[j].ID
	})
}

func sumPayments(ps []domain.Payment, except int64) decimal.Decimal {
	total := decimal.Zero
	for _, p := range ps {
		if p.ID != except {
			total = total.Add(p.Amount)
		}
	}
	return total
}

func (r *Repository) ListPayments(ctx context.Context, projectID int64, filter domain.PaymentFilter) ([]domain.Payment, error) {
	txs, err := r.list(ctx, database.TableTransactions)
	if err != nil {
		return nil, err
	}
	owned := make(map[string]struct{})
	for _, rec := range txs {
		t := toTransaction(rec)
		if t.ProjectID != projectID {
			continue
		}
		if filter.ClientID != 0 && (t.ClientID == nil || *t.ClientID != filter.ClientID) {
			continue
		}
		owned[t.ID] = struct{}{}
	}
	recs, err := r.list(ctx, database.TablePayments)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Payment, 0, len(recs))
	for _, rec := range recs {
		p := toPayment(rec)
		if _, ok := owned[p.TransactionID]; ok && filter.DateRange.Contains(p.Date) {
			out = append(out, p)
		}
	}
	sortPayments(out)
	return out, nil
}

func (r *Repository) ListPaymentsByTransaction(ctx context.Context, transactionID string) ([]domain.Payment, error) {
	return r.paymentsOf(ctx, transactionID)
}

func (r *Repository) FindPaymentByID(ctx context.Context, paymentID int64) (*domain.Payment, error) {
	rec, err := r.get(ctx, database.TablePayments, docID(paymentID))
	if err != nil || rec == nil {
		return nil, err
	}
	p := toPayment(rec)
	return &p, nil
}

func (r *Repository) ClientOutstanding(ctx context.Context, projectID, clientID int64) (decimal.Decimal, error) {
	items, _, err := r.openItems(ctx, projectID, clientID)
	if err != nil {
		return decimal.Zero, err
	}
	return domain.Outstanding(items), nil
}

func (r *Repository) paymentsOf(ctx context.Context, transactionID string) ([]domain.Payment, error) {
	recs, err := r.where(ctx, database.TablePayments, "transaction_id", transactionID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Payment, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toPayment(rec))
	}
	sortPayments(out)
	return out, nil
}

// openItems loads the client's unpaid rentals with what has been paid on each so far.
// The transaction documents are returned too so the caller can rewrite their paid flag.
func (r *Repository) openItems(ctx context.Context, projectID, clientID int64) ([]domain.OpenItem, map[string]record, error) {
	metas, err := r.where(ctx, database.TableRentalMeta, "client_id", clientID)
	if err != nil {
		return nil, nil, err
	}
	docs := make(map[string]record, len(metas))
	items := make([]domain.OpenItem, 0, len(metas))
	for _, m := range metas {
		meta := toRentalMeta(m)
		rec, err := r.get(ctx, database.TableTransactions, meta.TransactionID)
		if err != nil {
			return nil, nil, err
		}
		if rec == nil {
			continue
		}
		t := toTransaction(rec)
		if t.ProjectID != projectID || t.Paid {
			continue
		}
		ps, err := r.paymentsOf(ctx, t.ID)
		if err != nil {
			return nil, nil, err
		}
		docs[t.ID] = rec
		items = append(items, domain.OpenItem{TransactionID: t.ID, Date: t.Date, Amount: t.Amount, PaidSoFar: sumPayments(ps, 0)})
	}
	return items, docs, nil
}

// paidWrite rewrites the transaction document with paid recomputed from payments.
// It returns false when the flag is already right.
func paidWrite(rec record, payments decimal.Decimal) (client.Write, bool) {
	t := toTransaction(rec)
	paid := domain.IsPaid(t.Amount, payments)
	if paid == t.Paid {
		return client.Write{}, false
	}
	return client.Upsert(database.TableTransactions, t.ID, withFields(rec, map[string]any{"paid": paid})), true
}

// AllocateGeneralPayment plans on a snapshot and applies every payment and paid flag in one commit.
func (r *Repository) AllocateGeneralPayment(ctx context.Context, in domain.GeneralPaymentInput) (*domain.AllocationResult, error) {
	if err := utils.ValidateInput(in); err != nil {
		return nil, err
	}
	items, docs, err := r.openItems(ctx, in.ProjectID, in.ClientID)
	if err != nil {
		return nil, err
	}
	plan, unapplied, err := domain.PlanAllocation(items, in.Amount)
	if err != nil {
		return nil, fmt.Errorf("client %d: %w", in.ClientID, err)
	}
	nextID, err := r.nextID(ctx, database.TablePayments)
	if err != nil {
		return nil, err
	}

	paidSoFar := make(map[string]decimal.Decimal, len(items))
	for _, it := range items {
		paidSoFar[it.TransactionID] = it.PaidSoFar
	}
	result := &domain.AllocationResult{Applied: decimal.Zero, Unapplied: unapplied}
	writes := make([]client.Write, 0, 2*len(plan))
	for i, a := range plan {
		p := domain.Payment{
			ID: nextID + int64(i), TransactionID: a.TransactionID, AccountID: in.AccountID,
			Date: in.Date, Amount: a.Applied, Comment: in.Comment,
		}
		writes = append(writes, client.Upsert(database.TablePayments, docID(p.ID), paymentRecord(p)))
		if w, ok := paidWrite(docs[a.TransactionID], paidSoFar[a.TransactionID].Add(a.Applied)); ok {
			writes = append(writes, w)
		}
		result.Payments = append(result.Payments, p)
		result.Applied = result.Applied.Add(a.Applied)
	}
	if err := r.client.Commit(ctx, writes...); err != nil {
		return nil, err
	}

	if result.Unapplied.IsPositive() {
		r.logger.Warn("Payment exceeded outstanding balance, remainder discarded",
			slog.Int64("client_id", in.ClientID), slog.String("unapplied", result.Unapplied.String()))
	}
	r.logger.Info("General payment allocated",
		slog.Int64("client_id", in.ClientID), slog.Int("payments", len(result.Payments)), slog.String("applied", result.Applied.String()))
	return result, nil
}

func (r *Repository) UpdatePayment(ctx context.Context, paymentID int64, in domain.PaymentUpdate) (*domain.Payment, error) {
	if err := utils.ValidateInput(in); err != nil {
		return nil, err
	}
	current, err := r.mustGet(ctx, database.TablePayments, docID(paymentID), fmt.Sprintf("payment %d", paymentID))
	if err != nil {
		return nil, err
	}
	txID := toPayment(current).TransactionID
	txRec, err := r.mustGet(ctx, database.TableTransactions, txID, "transaction "+txID)
	if err != nil {
		return nil, err
	}
	ps, err := r.paymentsOf(ctx, txID)
	if err != nil {
		return nil, err
	}
	others := sumPayments(ps, paymentID)
	if err := domain.CheckPaymentFits(toTransaction(txRec).Amount, others, in.Amount); err != nil {
		return nil, err
	}

	updated := domain.Payment{ID: paymentID, TransactionID: txID, AccountID: in.AccountID, Date: in.Date, Amount: in.Amount, Comment: in.Comment}
	writes := []client.Write{client.Upsert(database.TablePayments, docID(paymentID), withFields(current, paymentRecord(updated)))}
	if w, ok := paidWrite(txRec, others.Add(in.Amount)); ok {
		writes = append(writes, w)
	}
	if err := r.client.Commit(ctx, writes...); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeletePayments removes the payments and recomputes every affected transaction in one commit.
// Unknown ids are ignored.
func (r *Repository) DeletePayments(ctx context.Context, paymentIDs []int64) error {
	if len(paymentIDs) == 0 {
		return nil
	}
	removed := make(map[int64]struct{}, len(paymentIDs))
	var order []string
	touched := make(map[string]struct{})
	var writes []client.Write
	for _, id := range paymentIDs {
		if _, dup := removed[id]; dup {
			continue
		}
		rec, err := r.get(ctx, database.TablePayments, docID(id))
		if err != nil {
			return err
		}
		if rec == nil {
			continue
		}
		removed[id] = struct{}{}
		writes = append(writes, client.Remove(database.TablePayments, docID(id)))
		txID := toPayment(rec).TransactionID
		if _, seen := touched[txID]; !seen {
			touched[txID] = struct{}{}
			order = append(order, txID)
		}
	}
	for _, txID := range order {
		txRec, err := r.get(ctx, database.TableTransactions, txID)
		if err != nil {
			return err
		}
		if txRec == nil {
			continue
		}
		ps, err := r.paymentsOf(ctx, txID)
		if err != nil {
			return err
		}
		remaining := decimal.Zero
		for _, p := range ps {
			if _, gone := removed[p.ID]; !gone {
				remaining = remaining.Add(p.Amount)
			}
		}
		if w, ok := paidWrite(txRec, remaining); ok {
			writes = append(writes, w)
		}
	}
	if err := r.client.Commit(ctx, writes...); err != nil {
		return err
	}
	r.logger.Info("Payments deleted", slog.Int("requested", len(paymentIDs)), slog.Int("transactions_touched", len(order)))
	return nil
}
