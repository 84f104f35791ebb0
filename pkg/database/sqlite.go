// Package database is the embedded SQLite store both the local repository
// and the mirror cache are built on.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/SscSPs/rental_backoffice_app/internal/apperrors"
	"github.com/google/uuid"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	_ "github.com/ncruces/go-sqlite3/vfs/memdb"
)

// MemoryPath is what Path reports for an in-memory store.
const MemoryPath = ":memory:"

// Row is a name-addressable result row.
type Row map[string]any

// Store wraps a database/sql handle over the ncruces SQLite driver.
type Store struct {
	db     *sql.DB
	path   string
	memory bool
	logger *slog.Logger
}

// Column describes one column as reported by PRAGMA table_info.
type Column struct {
	Name       string
	Type       string
	NotNull    bool
	PrimaryKey bool
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// QuoteIdent validates a table or column name and returns it double-quoted.
func QuoteIdent(name string) (string, error) {
	if !identPattern.MatchString(name) {
		return "", apperrors.NewValidationError("invalid identifier %q", name)
	}
	return `"` + name + `"`, nil
}

// Open opens (creating if needed) the database file at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if path == "" {
		return nil, apperrors.NewValidationError("database path cannot be empty")
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	dsn := "file:" + filepath.ToSlash(path) + "?_txlock=immediate&_pragma=busy_timeout(5000)&_pragma=journal_mode(wal)"
	return open(dsn, path, false, logger)
}

// OpenMemory opens a private in-memory store. It lives until Close.
func OpenMemory(logger *slog.Logger) (*Store, error) {
	dsn := "file:/" + uuid.NewString() + ".db?vfs=memdb&_txlock=immediate&_pragma=busy_timeout(5000)"
	return open(dsn, MemoryPath, true, logger)
}

func open(dsn, path string, memory bool, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	if memory {
		// memdb databases vanish with their last connection.
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
		db.SetConnMaxIdleTime(0)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database %s: %w", path, err)
	}
	logger.Debug("Opened SQLite store", slog.String("path", path), slog.Bool("memory", memory))
	return &Store{db: db, path: path, memory: memory, logger: logger}, nil
}

// DB returns the underlying handle for typed queries.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the file path, or MemoryPath.
func (s *Store) Path() string { return s.path }

// Logger returns the store's logger.
func (s *Store) Logger() *slog.Logger { return s.logger }

// IsMemory reports whether the store is in-memory.
func (s *Store) IsMemory() bool { return s.memory }

// Close checkpoints the WAL and closes the handle.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	if !s.memory {
		if _, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
			s.logger.Warn("Failed to checkpoint WAL", slog.String("error", err.Error()))
		}
	}
	err := s.db.Close()
	s.db = nil
	if err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// Fail logs a failed statement and wraps err as apperrors.ErrLocalIO.
func (s *Store) Fail(op, query string, err error) error {
	s.logger.Error("SQLite operation failed",
		slog.String("op", op),
		slog.String("query", compact(query)),
		slog.String("error", err.Error()),
	)
	return apperrors.LocalIO(op, err)
}

// Execute runs a statement that returns no rows.
func (s *Store) Execute(ctx context.Context, query string, args ...any) (sql.Result, error) {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, s.Fail("execute", query, err)
	}
	return res, nil
}

// FetchOne returns the first row, or nil when there is none.
func (s *Store) FetchOne(ctx context.Context, query string, args ...any) (Row, error) {
	rows, err := s.FetchAll(ctx, query, args...)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

// FetchAll returns every row keyed by column name.
func (s *Store) FetchAll(ctx context.Context, query string, args ...any) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, s.Fail("fetch", query, err)
	}
	defer rows.Close()
	out, err := ScanRows(rows)
	if err != nil {
		return nil, s.Fail("scan", query, err)
	}
	return out, nil
}

// ScanRows drains rows into name-addressable records.
func ScanRows(rows *sql.Rows) ([]Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(Row, len(cols))
		for i, c := range cols {
			if b, ok := values[i].([]byte); ok {
				values[i] = append([]byte(nil), b...)
			}
			row[c] = values[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// InTx runs fn inside a transaction, committing on nil and rolling back otherwise.
func (s *Store) InTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.Fail("begin", "BEGIN", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			s.logger.Warn("Rollback failed", slog.String("error", rbErr.Error()))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return s.Fail("commit", "COMMIT", err)
	}
	return nil
}

// ColumnInfo introspects a table. An unknown table yields no columns.
func (s *Store) ColumnInfo(ctx context.Context, table string) ([]Column, error) {
	quoted, err := QuoteIdent(table)
	if err != nil {
		return nil, err
	}
	rows, err := s.FetchAll(ctx, "PRAGMA table_info("+quoted+")")
	if err != nil {
		return nil, err
	}
	cols := make([]Column, 0, len(rows))
	for _, r := range rows {
		name, _ := r["name"].(string)
		typ, _ := r["type"].(string)
		notNull, _ := r["notnull"].(int64)
		pk, _ := r["pk"].(int64)
		cols = append(cols, Column{Name: name, Type: typ, NotNull: notNull == 1, PrimaryKey: pk > 0})
	}
	return cols, nil
}

// ColumnsOf returns a table's column names in declaration order.
func (s *Store) ColumnsOf(ctx context.Context, table string) ([]string, error) {
	info, err := s.ColumnInfo(ctx, table)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(info))
	for i, c := range info {
		names[i] = c.Name
	}
	return names, nil
}

// PrimaryKeyOf returns the first primary-key column, falling back to "id".
func (s *Store) PrimaryKeyOf(ctx context.Context, table string) (string, error) {
	info, err := s.ColumnInfo(ctx, table)
	if err != nil {
		return "", err
	}
	for _, c := range info {
		if c.PrimaryKey {
			return c.Name, nil
		}
	}
	return "id", nil
}

// Tables lists user tables sorted by name.
func (s *Store) Tables(ctx context.Context) ([]string, error) {
	rows, err := s.FetchAll(ctx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'")
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(rows))
	for _, r := range rows {
		if n, ok := r["name"].(string); ok {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names, nil
}

// HasTable reports whether table exists.
func (s *Store) HasTable(ctx context.Context, table string) (bool, error) {
	row, err := s.FetchOne(ctx, "SELECT 1 AS present FROM sqlite_master WHERE type = 'table' AND name = ?", table)
	if err != nil {
		return false, err
	}
	return row != nil, nil
}

// TableDDL returns the CREATE statement of table, empty when it does not exist.
func (s *Store) TableDDL(ctx context.Context, table string) (string, error) {
	row, err := s.FetchOne(ctx, "SELECT sql FROM sqlite_master WHERE type = 'table' AND name = ?", table)
	if err != nil || row == nil {
		return "", err
	}
	ddl, _ := row["sql"].(string)
	return ddl, nil
}

// CountRows returns the number of rows in table.
func (s *Store) CountRows(ctx context.Context, table string) (int, error) {
	quoted, err := QuoteIdent(table)
	if err != nil {
		return 0, err
	}
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+quoted).Scan(&n); err != nil {
		return 0, s.Fail("count", table, err)
	}
	return n, nil
}

// FetchBatch reads up to limit rows of table starting at offset, in rowid order.
func (s *Store) FetchBatch(ctx context.Context, table string, limit, offset int) ([]Row, error) {
	quoted, err := QuoteIdent(table)
	if err != nil {
		return nil, err
	}
	return s.FetchAll(ctx, "SELECT * FROM "+quoted+" ORDER BY rowid LIMIT ? OFFSET ?", limit, offset)
}

// InsertOrReplace writes row into table, keyed by its primary key.
// Every key of row must be a column of table.
func (s *Store) InsertOrReplace(ctx context.Context, table string, row Row) error {
	if len(row) == 0 {
		return nil
	}
	quotedTable, err := QuoteIdent(table)
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	cols := make([]string, len(keys))
	marks := make([]string, len(keys))
	args := make([]any, len(keys))
	for i, k := range keys {
		q, err := QuoteIdent(k)
		if err != nil {
			return err
		}
		cols[i] = q
		marks[i] = "?"
		args[i] = row[k]
	}
	query := fmt.Sprintf("INSERT OR REPLACE INTO %s (%s) VALUES (%s)", quotedTable, strings.Join(cols, ", "), strings.Join(marks, ", "))
	_, err = s.Execute(ctx, query, args...)
	return err
}

// ListDocuments returns every row of table as a plain map. It lets a store act as
// a copy source the same way a remote collection does.
func (s *Store) ListDocuments(ctx context.Context, table string) ([]map[string]any, error) {
	quoted, err := QuoteIdent(table)
	if err != nil {
		return nil, err
	}
	rows, err := s.FetchAll(ctx, "SELECT * FROM "+quoted+" ORDER BY rowid")
	if err != nil {
		return nil, err
	}
	docs := make([]map[string]any, len(rows))
	for i, r := range rows {
		docs[i] = r
	}
	return docs, nil
}

// DateBounds returns the min and max transaction dates, empty when there are none.
func (s *Store) DateBounds(ctx context.Context) (string, string, error) {
	row, err := s.FetchOne(ctx, "SELECT MIN(date) AS min_date, MAX(date) AS max_date FROM transactions")
	if err != nil || row == nil {
		return "", "", err
	}
	minDate, _ := row["min_date"].(string)
	maxDate, _ := row["max_date"].(string)
	return minDate, maxDate, nil
}

func compact(query string) string {
	return strings.Join(strings.Fields(query), " ")
}
