package database

import (
	"context"
	"fmt"
	"log/slog"
)

// Core table names, in the dependency order records must be created in.
const (
	TableProjects      = "projects"
	TableAccounts      = "accounts"
	TableCategories    = "categories"
	TableSubcategories = "subcategories"
	TableEquipment     = "equipment"
	TableEntities      = "entities"
	TableTransactions  = "transactions"
	TableRentalMeta    = "rental_meta"
	TablePayments      = "payments"
	TableMaintenance   = "maintenance"
)

// DependencyOrder lists the core tables parents first.
var DependencyOrder = []string{
	TableProjects,
	TableAccounts,
	TableCategories,
	TableSubcategories,
	TableEquipment,
	TableEntities,
	TableTransactions,
	TableRentalMeta,
	TablePayments,
	TableMaintenance,
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS projects (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		currency TEXT NOT NULL DEFAULT 'RD$',
		principal_account TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS accounts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		UNIQUE(name, type)
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS subcategories (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		category_id INTEGER NOT NULL REFERENCES categories(id)
	)`,
	`CREATE TABLE IF NOT EXISTS equipment (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		project_id INTEGER NOT NULL REFERENCES projects(id),
		name TEXT NOT NULL,
		brand TEXT NOT NULL DEFAULT '',
		model TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		subtype TEXT NOT NULL DEFAULT '',
		active INTEGER NOT NULL DEFAULT 1,
		maintenance_trigger_kind TEXT NOT NULL DEFAULT '',
		maintenance_trigger_value REAL NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS entities (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		project_id INTEGER NOT NULL REFERENCES projects(id),
		kind TEXT NOT NULL,
		name TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1,
		UNIQUE(name, kind, project_id)
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		project_id INTEGER NOT NULL REFERENCES projects(id),
		account_id INTEGER NOT NULL REFERENCES accounts(id),
		category_id INTEGER NOT NULL REFERENCES categories(id),
		subcategory_id INTEGER REFERENCES subcategories(id),
		equipment_id INTEGER REFERENCES equipment(id),
		client_id INTEGER REFERENCES entities(id),
		operator_id INTEGER REFERENCES entities(id),
		kind TEXT NOT NULL,
		amount REAL NOT NULL,
		date TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		comment TEXT NOT NULL DEFAULT '',
		paid INTEGER NOT NULL DEFAULT 0,
		hours REAL,
		price_per_hour REAL,
		delivery_note TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		attachment_path TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS rental_meta (
		transaction_id TEXT PRIMARY KEY REFERENCES transactions(id) ON DELETE CASCADE,
		project_id INTEGER NOT NULL,
		equipment_id INTEGER NOT NULL,
		client_id INTEGER NOT NULL,
		operator_id INTEGER NOT NULL,
		date TEXT NOT NULL,
		hours REAL NOT NULL,
		price_per_hour REAL NOT NULL,
		amount REAL NOT NULL,
		delivery_note TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		attachment_path TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS payments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		transaction_id TEXT NOT NULL REFERENCES transactions(id),
		account_id INTEGER NOT NULL REFERENCES accounts(id),
		date TEXT NOT NULL,
		amount REAL NOT NULL,
		comment TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS maintenance (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		equipment_id INTEGER NOT NULL REFERENCES equipment(id),
		date TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		kind TEXT NOT NULL DEFAULT '',
		value REAL NOT NULL DEFAULT 0,
		odometer_hours REAL NOT NULL DEFAULT 0,
		odometer_km REAL NOT NULL DEFAULT 0,
		next_kind TEXT NOT NULL DEFAULT '',
		next_value REAL NOT NULL DEFAULT 0,
		next_date TEXT NOT NULL DEFAULT ''
	)`,
}

var indexStatements = []string{
	`CREATE INDEX IF NOT EXISTS idx_equipment_project ON equipment(project_id)`,
	`CREATE INDEX IF NOT EXISTS idx_entities_project_kind ON entities(project_id, kind)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_project_date ON transactions(project_id, date)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_client ON transactions(client_id)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_equipment ON transactions(equipment_id)`,
	`CREATE INDEX IF NOT EXISTS idx_rental_meta_client ON rental_meta(client_id)`,
	`CREATE INDEX IF NOT EXISTS idx_rental_meta_equipment ON rental_meta(equipment_id)`,
	`CREATE INDEX IF NOT EXISTS idx_payments_transaction ON payments(transaction_id)`,
	`CREATE INDEX IF NOT EXISTS idx_maintenance_equipment ON maintenance(equipment_id)`,
	`CREATE INDEX IF NOT EXISTS idx_subcategories_category ON subcategories(category_id)`,
}

// addedColumns are columns that older databases lack and get through ALTER TABLE.
var addedColumns = []struct {
	table, column, decl string
}{
	{TableEntities, "phone", "TEXT NOT NULL DEFAULT ''"},
	{TableEntities, "national_id", "TEXT NOT NULL DEFAULT ''"},
}

// EnsureSchema creates missing tables, columns and indices. It is safe to call repeatedly.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.Execute(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	for _, add := range addedColumns {
		if err := s.ensureColumn(ctx, add.table, add.column, add.decl); err != nil {
			return err
		}
	}
	for _, stmt := range indexStatements {
		if _, err := s.Execute(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

func (s *Store) ensureColumn(ctx context.Context, table, column, decl string) error {
	cols, err := s.ColumnsOf(ctx, table)
	if err != nil {
		return err
	}
	for _, c := range cols {
		if c == column {
			return nil
		}
	}
	quotedTable, err := QuoteIdent(table)
	if err != nil {
		return err
	}
	quotedCol, err := QuoteIdent(column)
	if err != nil {
		return err
	}
	if _, err := s.Execute(ctx, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", quotedTable, quotedCol, decl)); err != nil {
		return fmt.Errorf("failed to add column %s.%s: %w", table, column, err)
	}
	s.logger.Info("Added missing column", slog.String("table", table), slog.String("column", column))
	return nil
}

// OrderTables sorts names by DependencyOrder; unknown tables keep their relative order at the end.
func OrderTables(names []string) []string {
	present := make(map[string]bool, len(names))
	for _, n := range names {
		present[n] = true
	}
	ordered := make([]string, 0, len(names))
	known := make(map[string]bool, len(DependencyOrder))
	for _, t := range DependencyOrder {
		known[t] = true
		if present[t] {
			ordered = append(ordered, t)
		}
	}
	for _, n := range names {
		if !known[n] {
			ordered = append(ordered, n)
		}
	}
	return ordered
}
