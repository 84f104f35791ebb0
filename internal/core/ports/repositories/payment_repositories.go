package repositories

import (
	"context"

	"github.com/SscSPs/rental_backoffice_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// PaymentReader defines read operations for payments.
type PaymentReader interface {
	// ListPayments returns the project's payments ordered by date then id.
	ListPayments(ctx context.Context, projectID int64, filter domain.PaymentFilter) ([]domain.Payment, error)

	// ListPaymentsByTransaction returns the payments applied to one transaction.
	ListPaymentsByTransaction(ctx context.Context, transactionID string) ([]domain.Payment, error)

	// FindPaymentByID returns nil without error when the payment does not exist.
	FindPaymentByID(ctx context.Context, paymentID int64) (*domain.Payment, error)

	// ClientOutstanding sums what the client still owes across unpaid rentals.
	ClientOutstanding(ctx context.Context, projectID, clientID int64) (decimal.Decimal, error)
}

// PaymentWriter defines write operations for payments. Every write recomputes
// the paid flag of the transactions it touches.
type PaymentWriter interface {
	// AllocateGeneralPayment spreads a client's payment over their unpaid rentals
	// oldest first. It is atomic and fails with apperrors.ErrNoOutstanding when nothing is owed.
	AllocateGeneralPayment(ctx context.Context, in domain.GeneralPaymentInput) (*domain.AllocationResult, error)

	UpdatePayment(ctx context.Context, paymentID int64, in domain.PaymentUpdate) (*domain.Payment, error)
	DeletePayments(ctx context.Context, paymentIDs []int64) error
}

// PaymentRepositoryFacade combines payment reads and writes.
type PaymentRepositoryFacade interface {
	PaymentReader
	PaymentWriter
}
