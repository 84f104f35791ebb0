// Package sqlite implements the repository contract over the embedded store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SscSPs/rental_backoffice_app/internal/apperrors"
	portsrepo "github.com/SscSPs/rental_backoffice_app/internal/core/ports/repositories"
	"github.com/SscSPs/rental_backoffice_app/pkg/database"
	"github.com/ncruces/go-sqlite3"
)

// querier is satisfied by both *sql.DB and *sql.Tx so helpers run inside or outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// scannable is a model that exposes its scan destinations.
type scannable[T any] interface {
	*T
	Dest() []any
}

// Repository is the local backend.
type Repository struct {
	store  *database.Store
	logger *slog.Logger
}

// Ensure Repository implements the full contract.
var _ portsrepo.Repository = (*Repository)(nil)

// New wraps an open store. The schema is not touched until EnsureTables.
func New(store *database.Store, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{store: store, logger: logger.With(slog.String("backend", "local"))}
}

// Store exposes the underlying store for migration and backup.
func (r *Repository) Store() *database.Store { return r.store }

func (r *Repository) Backend() portsrepo.Backend { return portsrepo.BackendLocal }

func (r *Repository) EnsureTables(ctx context.Context) error {
	return r.store.EnsureSchema(ctx)
}

func (r *Repository) VerifyConnection(ctx context.Context) bool {
	if err := r.store.DB().PingContext(ctx); err != nil {
		r.logger.Warn("Local store ping failed", slog.String("error", err.Error()))
		return false
	}
	return true
}

func (r *Repository) Close() error {
	return r.store.Close()
}

// fail classifies a database error: unique violations become ErrDuplicate, the rest ErrLocalIO.
func (r *Repository) fail(op, query string, err error) error {
	if isUniqueViolation(err) {
		r.logger.Warn("Unique constraint violated", slog.String("op", op), slog.String("error", err.Error()))
		return fmt.Errorf("%s: %w", op, apperrors.ErrDuplicate)
	}
	return r.store.Fail(op, query, err)
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, sqlite3.CONSTRAINT_UNIQUE) || errors.Is(err, sqlite3.CONSTRAINT_PRIMARYKEY) {
		return true
	}
	return errors.Is(err, sqlite3.CONSTRAINT) && strings.Contains(err.Error(), "UNIQUE")
}

func (r *Repository) exec(ctx context.Context, q querier, op, query string, args ...any) (sql.Result, error) {
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, r.fail(op, query, err)
	}
	return res, nil
}

// execOne runs a statement that must touch exactly one row; zero rows is ErrNotFound.
func (r *Repository) execOne(ctx context.Context, q querier, op, what string, query string, args ...any) error {
	res, err := r.exec(ctx, q, op, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return r.fail(op, query, err)
	}
	if n == 0 {
		return apperrors.NewNotFoundError(what + " not found")
	}
	return nil
}

func selectAll[T any, P scannable[T]](ctx context.Context, r *Repository, q querier, op, query string, args ...any) ([]T, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, r.fail(op, query, err)
	}
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		var m T
		if err := rows.Scan(P(&m).Dest()...); err != nil {
			return nil, r.fail(op, query, err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, r.fail(op, query, err)
	}
	return out, nil
}

// selectOne returns nil without error when no row matches.
func selectOne[T any, P scannable[T]](ctx context.Context, r *Repository, q querier, op, query string, args ...any) (*T, error) {
	all, err := selectAll[T, P](ctx, r, q, op, query, args...)
	if err != nil || len(all) == 0 {
		return nil, err
	}
	return &all[0], nil
}

func (r *Repository) db() querier { return r.store.DB() }

func (r *Repository) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return r.store.InTx(ctx, fn)
}
