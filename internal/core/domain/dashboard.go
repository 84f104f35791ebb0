package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// RankedItem is the leader of a dashboard ranking.
type RankedItem struct {
	ID     int64           `json:"id"`
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// DashboardKPIs summarizes one calendar month of a project.
type DashboardKPIs struct {
	Year         int             `json:"year"`
	Month        int             `json:"month"`
	Income       decimal.Decimal `json:"income"`
	Expense      decimal.Decimal `json:"expense"`
	Balance      decimal.Decimal `json:"balance"`
	Outstanding  decimal.Decimal `json:"outstanding"` // Unpaid remainder of the month's client rentals
	TopEquipment *RankedItem     `json:"topEquipment,omitempty"`
	TopOperator  *RankedItem     `json:"topOperator,omitempty"`
}

// KPIInput is everything the dashboard needs, already loaded from a backend.
type KPIInput struct {
	Transactions []Transaction
	PaidSums     map[string]decimal.Decimal // transaction id -> sum of payments
	Equipment    []Equipment
	Operators    []Entity
}

// ComputeKPIs aggregates the month's transactions.
func ComputeKPIs(year int, month time.Month, in KPIInput) DashboardKPIs {
	kpis := DashboardKPIs{
		Year:        year,
		Month:       int(month),
		Income:      decimal.Zero,
		Expense:     decimal.Zero,
		Outstanding: decimal.Zero,
	}
	window := MonthRange(year, month)
	byEquipment := map[int64]decimal.Decimal{}
	byOperator := map[int64]decimal.Decimal{}

	for _, t := range in.Transactions {
		if !window.Contains(t.Date) {
			continue
		}
		switch t.Kind {
		case Income:
			kpis.Income = kpis.Income.Add(t.Amount)
			if t.EquipmentID != nil {
				byEquipment[*t.EquipmentID] = byEquipment[*t.EquipmentID].Add(t.Amount)
			}
			if t.OperatorID != nil {
				byOperator[*t.OperatorID] = byOperator[*t.OperatorID].Add(t.Amount)
			}
			if t.ClientID != nil && !t.Paid {
				item := OpenItem{TransactionID: t.ID, Amount: t.Amount, PaidSoFar: in.PaidSums[t.ID]}
				kpis.Outstanding = kpis.Outstanding.Add(item.Remaining())
			}
		case Expense:
			kpis.Expense = kpis.Expense.Add(t.Amount)
		}
	}
	kpis.Balance = kpis.Income.Sub(kpis.Expense)

	equipmentNames := make(map[int64]string, len(in.Equipment))
	for _, e := range in.Equipment {
		equipmentNames[e.ID] = e.Name
	}
	operatorNames := make(map[int64]string, len(in.Operators))
	for _, o := range in.Operators {
		operatorNames[o.ID] = o.Name
	}
	kpis.TopEquipment = topOf(byEquipment, equipmentNames)
	kpis.TopOperator = topOf(byOperator, operatorNames)
	return kpis
}

func topOf(totals map[int64]decimal.Decimal, names map[int64]string) *RankedItem {
	if len(totals) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(totals))
	for id := range totals {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if c := totals[ids[i]].Cmp(totals[ids[j]]); c != 0 {
			return c > 0
		}
		return ids[i] < ids[j]
	})
	best := ids[0]
	return &RankedItem{ID: best, Name: names[best], Amount: totals[best]}
}
