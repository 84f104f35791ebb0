package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/rental_backoffice_app/internal/core/domain"
)

// Backend names a physical store.
type Backend string

const (
	BackendLocal  Backend = "local"
	BackendRemote Backend = "remote"
)

// DashboardReader computes the monthly figures.
type DashboardReader interface {
	MonthlyKPIs(ctx context.Context, projectID int64, year int, month time.Month) (*domain.DashboardKPIs, error)
}

// AdminRepository covers store lifecycle.
type AdminRepository interface {
	Backend() Backend

	// EnsureTables creates whatever the backend needs before first use. It is idempotent.
	EnsureTables(ctx context.Context) error

	// Seed creates the default project, accounts and categories when the store is empty.
	Seed(ctx context.Context) error

	// VerifyConnection reports whether the backend is usable.
	VerifyConnection(ctx context.Context) bool

	Close() error
}

// Repository is the complete contract both backends implement. Callers
// program only against it and never learn which backend serves them.
type Repository interface {
	ProjectRepositoryFacade
	CatalogRepositoryFacade
	EquipmentRepositoryFacade
	EntityRepositoryFacade
	TransactionRepositoryFacade
	PaymentRepositoryFacade
	MaintenanceRepositoryFacade
	DashboardReader
	AdminRepository
}

// DocumentSource is anything that can hand over a table's rows as flat records,
// a local store or a remote collection alike.
type DocumentSource interface {
	ListDocuments(ctx context.Context, collection string) ([]map[string]any, error)
}
