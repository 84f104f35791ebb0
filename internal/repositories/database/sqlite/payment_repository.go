package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SscSPs/rental_backoffice_app/internal/apperrors"
	"github.com/SscSPs/rental_backoffice_app/internal/core/domain"
	"github.com/SscSPs/rental_backoffice_app/internal/models"
	"github.com/SscSPs/rental_backoffice_app/internal/utils"
	"github.com/SscSPs/rental_backoffice_app/internal/utils/mapping"
	"github.com/shopspring/decimal"
)

func (r *Repository) ListPayments(ctx context.Context, projectID int64, filter domain.PaymentFilter) ([]domain.Payment, error) {
	where := []string{"t.project_id = ?"}
	args := []any{projectID}
	if filter.ClientID != 0 {
		where = append(where, "t.client_id = ?")
		args = append(args, filter.ClientID)
	}
	where, args = dateRangeSQL(filter.DateRange, "p.date", where, args)

	ms, err := selectAll[models.Payment](ctx, r, r.db(), "list payments",
		`SELECT p.id, p.transaction_id, p.account_id, p.date, p.amount, p.comment
		FROM payments p JOIN transactions t ON t.id = p.transaction_id
		WHERE `+strings.Join(where, " AND ")+` ORDER BY p.date, p.id`, args...)
	if err != nil {
		return nil, err
	}
	return mapping.ToDomainPaymentSlice(ms), nil
}

func (r *Repository) ListPaymentsByTransaction(ctx context.Context, transactionID string) ([]domain.Payment, error) {
	ms, err := r.paymentsOf(ctx, r.db(), transactionID)
	if err != nil {
		return nil, err
	}
	return mapping.ToDomainPaymentSlice(ms), nil
}

func (r *Repository) FindPaymentByID(ctx context.Context, paymentID int64) (*domain.Payment, error) {
	m, err := selectOne[models.Payment](ctx, r, r.db(), "find payment",
		"SELECT "+models.PaymentColumns+" FROM payments WHERE id = ?", paymentID)
	if err != nil || m == nil {
		return nil, err
	}
	p := mapping.ToDomainPayment(*m)
	return &p, nil
}

func (r *Repository) ClientOutstanding(ctx context.Context, projectID, clientID int64) (decimal.Decimal, error) {
	items, err := r.openItems(ctx, r.db(), projectID, clientID)
	if err != nil {
		return decimal.Zero, err
	}
	return domain.Outstanding(items), nil
}

func (r *Repository) paymentsOf(ctx context.Context, q querier, transactionID string) ([]models.Payment, error) {
	return selectAll[models.Payment](ctx, r, q, "list transaction payments",
		"SELECT "+models.PaymentColumns+" FROM payments WHERE transaction_id = ? ORDER BY date, id", transactionID)
}

func sumPayments(ps []models.Payment, except int64) decimal.Decimal {
	total := decimal.Zero
	for _, p := range ps {
		if p.ID != except {
			total = total.Add(p.Amount)
		}
	}
	return total
}

// openItems loads the client's unpaid rentals with what has been paid on each so far.
func (r *Repository) openItems(ctx context.Context, q querier, projectID, clientID int64) ([]domain.OpenItem, error) {
	ts, err := selectAll[models.Transaction](ctx, r, q, "list unpaid rentals",
		"SELECT "+models.TransactionColumns+" FROM transactions WHERE project_id = ? AND client_id = ? AND paid = 0 AND "+isRentalSQL+" ORDER BY date, id",
		projectID, clientID)
	if err != nil {
		return nil, err
	}
	items := make([]domain.OpenItem, 0, len(ts))
	for _, t := range ts {
		ps, err := r.paymentsOf(ctx, q, t.ID)
		if err != nil {
			return nil, err
		}
		items = append(items, domain.OpenItem{TransactionID: t.ID, Date: t.Date, Amount: t.Amount, PaidSoFar: sumPayments(ps, 0)})
	}
	return items, nil
}

// recomputePaid sets paid from the transaction amount and the sum of its payments.
// A transaction that no longer exists is left alone.
func (r *Repository) recomputePaid(ctx context.Context, q querier, transactionID string) error {
	t, err := selectOne[models.Transaction](ctx, r, q, "recompute paid",
		"SELECT "+models.TransactionColumns+" FROM transactions WHERE id = ?", transactionID)
	if err != nil || t == nil {
		return err
	}
	ps, err := r.paymentsOf(ctx, q, transactionID)
	if err != nil {
		return err
	}
	paid := domain.IsPaid(t.Amount, sumPayments(ps, 0))
	if paid == t.Paid {
		return nil
	}
	_, err = r.exec(ctx, q, "recompute paid", "UPDATE transactions SET paid = ? WHERE id = ?", paid, transactionID)
	return err
}

// AllocateGeneralPayment runs the whole allocation in one SQL transaction.
func (r *Repository) AllocateGeneralPayment(ctx context.Context, in domain.GeneralPaymentInput) (*domain.AllocationResult, error) {
	if err := utils.ValidateInput(in); err != nil {
		return nil, err
	}
	result := &domain.AllocationResult{Applied: decimal.Zero}
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		items, err := r.openItems(ctx, tx, in.ProjectID, in.ClientID)
		if err != nil {
			return err
		}
		plan, unapplied, err := domain.PlanAllocation(items, in.Amount)
		if err != nil {
			return fmt.Errorf("client %d: %w", in.ClientID, err)
		}
		for _, a := range plan {
			res, err := r.exec(ctx, tx, "create payment",
				"INSERT INTO payments (transaction_id, account_id, date, amount, comment) VALUES (?, ?, ?, ?, ?)",
				a.TransactionID, in.AccountID, in.Date, a.Applied, in.Comment)
			if err != nil {
				return err
			}
			id, err := res.LastInsertId()
			if err != nil {
				return r.fail("create payment", "last insert id", err)
			}
			if err := r.recomputePaid(ctx, tx, a.TransactionID); err != nil {
				return err
			}
			result.Payments = append(result.Payments, domain.Payment{
				ID: id, TransactionID: a.TransactionID, AccountID: in.AccountID, Date: in.Date, Amount: a.Applied, Comment: in.Comment,
			})
			result.Applied = result.Applied.Add(a.Applied)
		}
		result.Unapplied = unapplied
		return nil
	})
	if err != nil {
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
	var updated *domain.Payment
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		current, err := selectOne[models.Payment](ctx, r, tx, "find payment",
			"SELECT "+models.PaymentColumns+" FROM payments WHERE id = ?", paymentID)
		if err != nil {
			return err
		}
		if current == nil {
			return apperrors.NewNotFoundError(fmt.Sprintf("payment %d not found", paymentID))
		}
		t, err := r.transactionAmount(ctx, tx, current.TransactionID)
		if err != nil {
			return err
		}
		ps, err := r.paymentsOf(ctx, tx, current.TransactionID)
		if err != nil {
			return err
		}
		if err := domain.CheckPaymentFits(t.Amount, sumPayments(ps, paymentID), in.Amount); err != nil {
			return err
		}
		if _, err := r.exec(ctx, tx, "update payment",
			"UPDATE payments SET account_id = ?, date = ?, amount = ?, comment = ? WHERE id = ?",
			in.AccountID, in.Date, in.Amount, in.Comment, paymentID); err != nil {
			return err
		}
		if err := r.recomputePaid(ctx, tx, current.TransactionID); err != nil {
			return err
		}
		updated = &domain.Payment{ID: paymentID, TransactionID: current.TransactionID, AccountID: in.AccountID, Date: in.Date, Amount: in.Amount, Comment: in.Comment}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeletePayments removes the payments and recomputes every affected transaction. Unknown ids are ignored.
func (r *Repository) DeletePayments(ctx context.Context, paymentIDs []int64) error {
	if len(paymentIDs) == 0 {
		return nil
	}
	return r.inTx(ctx, func(tx *sql.Tx) error {
		touched := make(map[string]struct{})
		var order []string
		for _, id := range paymentIDs {
			p, err := selectOne[models.Payment](ctx, r, tx, "find payment",
				"SELECT "+models.PaymentColumns+" FROM payments WHERE id = ?", id)
			if err != nil {
				return err
			}
			if p == nil {
				continue
			}
			if _, err := r.exec(ctx, tx, "delete payment", "DELETE FROM payments WHERE id = ?", id); err != nil {
				return err
			}
			if _, seen := touched[p.TransactionID]; !seen {
				touched[p.TransactionID] = struct{}{}
				order = append(order, p.TransactionID)
			}
		}
		for _, txID := range order {
			if err := r.recomputePaid(ctx, tx, txID); err != nil {
				return err
			}
		}
		r.logger.Info("Payments deleted", slog.Int("requested", len(paymentIDs)), slog.Int("transactions_touched", len(order)))
		return nil
	})
}
