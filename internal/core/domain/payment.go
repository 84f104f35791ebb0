package domain

import (
	"sort"

	"github.com/SscSPs/rental_backoffice_app/internal/apperrors"
	"github.com/shopspring/decimal"
)

// Payment applies part of a collected amount to one transaction.
type Payment struct {
	ID            int64           `json:"id"`
	TransactionID string          `json:"transactionId"`
	AccountID     int64           `json:"accountId"`
	Date          string          `json:"date"`
	Amount        decimal.Decimal `json:"amount"`
	Comment       string          `json:"comment"`
}

// GeneralPaymentInput is a lump sum received from a client, to be spread over their unpaid rentals.
type GeneralPaymentInput struct {
	ProjectID int64           `json:"projectId" validate:"required,gt=0"`
	ClientID  int64           `json:"clientId" binding:"required" validate:"required,gt=0"`
	AccountID int64           `json:"accountId" binding:"required" validate:"required,gt=0"`
	Date      string          `json:"date" binding:"required" validate:"required,datetime=2006-01-02"`
	Amount    decimal.Decimal `json:"amount"`
	Comment   string          `json:"comment"`
}

// Validate checks the fields struct tags cannot express.
func (in GeneralPaymentInput) Validate() error {
	if !in.Amount.IsPositive() {
		return invalid("amount must be greater than zero")
	}
	return nil
}

// PaymentUpdate carries the editable fields of a payment.
type PaymentUpdate struct {
	AccountID int64           `json:"accountId" binding:"required" validate:"required,gt=0"`
	Date      string          `json:"date" binding:"required" validate:"required,datetime=2006-01-02"`
	Amount    decimal.Decimal `json:"amount"`
	Comment   string          `json:"comment"`
}

// Validate checks the fields struct tags cannot express.
func (in PaymentUpdate) Validate() error {
	if !in.Amount.IsPositive() {
		return invalid("amount must be greater than zero")
	}
	return nil
}

// PaymentFilter narrows a payment listing.
type PaymentFilter struct {
	ClientID int64 `form:"client_id"`
	DateRange
}

// AllocationResult reports what a general payment did. Unapplied is discarded, not held as credit.
type AllocationResult struct {
	Payments  []Payment       `json:"payments"`
	Applied   decimal.Decimal `json:"applied"`
	Unapplied decimal.Decimal `json:"unapplied"`
}

// OpenItem is an unpaid rental as seen by the allocator.
type OpenItem struct {
	TransactionID string
	Date          string
	Amount        decimal.Decimal
	PaidSoFar     decimal.Decimal
}

// Remaining is the part of the rental still owed, never negative.
func (o OpenItem) Remaining() decimal.Decimal {
	r := o.Amount.Sub(o.PaidSoFar)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}

// Allocation is one planned payment row.
type Allocation struct {
	TransactionID string
	Applied       decimal.Decimal
}

// PlanAllocation spreads amount over items oldest first (date, then id).
// It fails with ErrNoOutstanding when nothing is owed and returns the unapplied remainder.
func PlanAllocation(items []OpenItem, amount decimal.Decimal) ([]Allocation, decimal.Decimal, error) {
	open := make([]OpenItem, 0, len(items))
	for _, it := range items {
		if it.Remaining().IsPositive() {
			open = append(open, it)
		}
	}
	if len(open) == 0 {
		return nil, amount, apperrors.ErrNoOutstanding
	}
	sort.SliceStable(open, func(i, j int) bool {
		if open[i].Date != open[j].Date {
			return open[i].Date < open[j].Date
		}
		return open[i].TransactionID < open[j].TransactionID
	})

	left := amount
	plan := make([]Allocation, 0, len(open))
	for _, it := range open {
		if !left.IsPositive() {
			break
		}
		applied := decimal.Min(left, it.Remaining())
		plan = append(plan, Allocation{TransactionID: it.TransactionID, Applied: applied})
		left = left.Sub(applied)
	}
	return plan, left, nil
}

// IsPaid is the paid-flag rule: payments cover the full amount.
func IsPaid(amount, paymentsSum decimal.Decimal) bool {
	return paymentsSum.GreaterThanOrEqual(amount)
}

// CheckPaymentFits rejects a payment that would push the total paid past the transaction amount.
func CheckPaymentFits(transactionAmount, otherPayments, amount decimal.Decimal) error {
	if otherPayments.Add(amount).GreaterThan(transactionAmount) {
		return invalid("payment of %s exceeds the %s still owed", amount.StringFixed(2), transactionAmount.Sub(otherPayments).StringFixed(2))
	}
	return nil
}

// Outstanding sums what is still owed across items.
func Outstanding(items []OpenItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Remaining())
	}
	return total
}
