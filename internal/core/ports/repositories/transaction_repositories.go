package repositories

import (
	"context"

	"github.com/SscSPs/rental_backoffice_app/internal/core/domain"
)

// TransactionReader defines read operations for transactions.
type TransactionReader interface {
	// ListTransactions returns the project's transactions ordered by date then id.
	ListTransactions(ctx context.Context, projectID int64, filter domain.TransactionFilter) ([]domain.Transaction, error)

	// DateBounds returns the earliest and latest transaction dates; both are empty for an empty store.
	DateBounds(ctx context.Context) (domain.DateBounds, error)
}

// TransactionWriter defines write operations for plain (non-rental) transactions.
type TransactionWriter interface {
	CreateTransaction(ctx context.Context, in domain.TransactionInput) (*domain.Transaction, error)
}

// RentalReader defines read operations for rentals.
type RentalReader interface {
	// ListRentals returns the project's rental transactions matching filter, ordered by date then id.
	ListRentals(ctx context.Context, projectID int64, filter domain.RentalFilter) ([]domain.Transaction, error)

	// FindRentalDetail returns the transaction with its meta row, or nil when it does not exist.
	FindRentalDetail(ctx context.Context, transactionID string) (*domain.RentalDetail, error)
}

// RentalWriter defines write operations for rentals. Each write updates the
// transaction and its meta row as one unit.
type RentalWriter interface {
	CreateRental(ctx context.Context, in domain.RentalInput) (*domain.RentalDetail, error)
	UpdateRental(ctx context.Context, transactionID string, in domain.RentalInput) (*domain.RentalDetail, error)

	// DeleteRental removes the transaction, its meta row and its payments.
	DeleteRental(ctx context.Context, transactionID string) error
}

// TransactionRepositoryFacade combines transaction and rental operations.
type TransactionRepositoryFacade interface {
	TransactionReader
	TransactionWriter
	RentalReader
	RentalWriter
}
