package sqlite

import (
	"context"
	"time"

	"github.com/SscSPs/rental_backoffice_app/internal/core/domain"
	"github.com/SscSPs/rental_backoffice_app/internal/models"
	"github.com/shopspring/decimal"
)

func (r *Repository) MonthlyKPIs(ctx context.Context, projectID int64, year int, month time.Month) (*domain.DashboardKPIs, error) {
	window := domain.MonthRange(year, month)
	txs, err := r.ListTransactions(ctx, projectID, domain.TransactionFilter{DateRange: window})
	if err != nil {
		return nil, err
	}

	payments, err := selectAll[models.Payment](ctx, r, r.db(), "list month payments",
		`SELECT p.id, p.transaction_id, p.account_id, p.date, p.amount, p.comment
		FROM payments p JOIN transactions t ON t.id = p.transaction_id
		WHERE t.project_id = ? AND substr(t.date, 1, 10) BETWEEN ? AND ?`,
		projectID, window.From, window.To)
	if err != nil {
		return nil, err
	}
	paidSums := make(map[string]decimal.Decimal, len(payments))
	for _, p := range payments {
		paidSums[p.TransactionID] = paidSums[p.TransactionID].Add(p.Amount)
	}

	equipment, err := r.ListEquipment(ctx, projectID, nil)
	if err != nil {
		return nil, err
	}
	operators, err := r.ListEntities(ctx, projectID, domain.EntityOperator, true)
	if err != nil {
		return nil, err
	}

	kpis := domain.ComputeKPIs(year, month, domain.KPIInput{
		Transactions: txs,
		PaidSums:     paidSums,
		Equipment:    equipment,
		Operators:    operators,
	})
	return &kpis, nil
}
