// Package migration copies the local store into the remote document store.
//
// Tables are processed in dependency order and read in fixed-size batches. Each row
// becomes one document carrying the local columns verbatim plus provenance fields;
// rows whose original_local_id already exists remotely are counted as conflicts and
// skipped, which makes reruns safe. Every batch is flushed with a single commit.
package migration

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/rental_backoffice_app/internal/apperrors"
	"github.com/SscSPs/rental_backoffice_app/internal/idmap"
	"github.com/SscSPs/rental_backoffice_app/internal/remote"
	"github.com/SscSPs/rental_backoffice_app/pkg/database"
)

// DefaultBatchSize is how many rows are read and committed together.
const DefaultBatchSize = 500

// Provenance fields added to every migrated document.
const (
	FieldOriginalLocalID = "original_local_id"
	FieldMigratedAt      = "migrated_at"
	FieldMigratedBy      = "migrated_by"
	FieldSourceTable     = "source_table"
)

// Target is the remote side of a migration.
type Target interface {
	ProjectID() string
	QueryEqual(ctx context.Context, collection, field string, value any) ([]map[string]any, error)
	Commit(ctx context.Context, writes ...remote.Write) error
	UploadObject(ctx context.Context, name, contentType string, data []byte) (*remote.Object, error)
}

type Options struct {
	// Tables to migrate; empty means every user table.
	Tables            []string
	DryRun            bool
	UploadAttachments bool
	// AttachmentsRoot resolves relative attachment paths.
	AttachmentsRoot string
	// OutputDir receives mapping.json, migration_log.txt and migration_summary.json.
	OutputDir  string
	MigratedBy string
	BatchSize  int
}

// Stats are the counters reported per table and in total.
type Stats struct {
	Total     int `json:"total"`
	Migrated  int `json:"migrated"`
	Skipped   int `json:"skipped"`
	Errors    int `json:"errors"`
	Conflicts int `json:"conflicts"`
}

func (s *Stats) add(o Stats) {
	s.Total += o.Total
	s.Migrated += o.Migrated
	s.Skipped += o.Skipped
	s.Errors += o.Errors
	s.Conflicts += o.Conflicts
}

// Result is what Run reports back to the caller.
type Result struct {
	Stats     Stats            `json:"statistics"`
	Tables    map[string]Stats `json:"tables"`
	DryRun    bool             `json:"dry_run"`
	Cancelled bool             `json:"cancelled"`
	Mappings  int              `json:"total_mappings"`
	Artifacts Artifacts        `json:"-"`
}

type Engine struct {
	source *database.Store
	target Target
	mapper *idmap.Mapper
	opts   Options
	logger *slog.Logger
	now    func() time.Time
	log    *runLog
}

type Option func(*Engine)

// WithClock replaces time.Now for migrated_at stamps and log lines.
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// WithMapper records mappings into m instead of a fresh mapper.
func WithMapper(m *idmap.Mapper) Option { return func(e *Engine) { e.mapper = m } }

func New(source *database.Store, target Target, opts Options, logger *slog.Logger, options ...Option) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.MigratedBy == "" {
		opts.MigratedBy = "migration"
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "migration_output"
	}
	e := &Engine{
		source: source,
		target: target,
		opts:   opts,
		logger: logger.With(slog.Bool("dry_run", opts.DryRun)),
		now:    time.Now,
	}
	for _, o := range options {
		o(e)
	}
	if e.mapper == nil {
		e.mapper, _ = idmap.New("", e.logger)
	}
	e.log = &runLog{now: e.now}
	return e
}

// Mapper returns the mappings recorded so far.
func (e *Engine) Mapper() *idmap.Mapper { return e.mapper }

// Run migrates every selected table. progress receives (percent, message) after each batch;
// shouldStop is polled between batches. A cancelled run still writes its artifacts and
// returns apperrors.ErrCancelled with the partial result.
func (e *Engine) Run(ctx context.Context, progress func(int, string), shouldStop func() bool) (*Result, error) {
	if progress == nil {
		progress = func(int, string) {}
	}
	if shouldStop == nil {
		shouldStop = func() bool { return false }
	}

	tables, err := e.tables(ctx)
	if err != nil {
		return nil, err
	}
	plan := make(map[string]int, len(tables))
	grand := 0
	for _, t := range tables {
		n, err := e.source.CountRows(ctx, t)
		if err != nil {
			return nil, err
		}
		plan[t] = n
		grand += n
	}

	result := &Result{Tables: make(map[string]Stats, len(tables)), DryRun: e.opts.DryRun}
	e.note("Migration started: %d tables, %d rows, dry_run=%t", len(tables), grand, e.opts.DryRun)
	progress(0, "Starting migration")

	done := 0
	report := func(rows int, msg string) {
		done += rows
		pct := 100
		if grand > 0 {
			pct = done * 100 / grand
		}
		progress(pct, msg)
	}

	for _, table := range tables {
		stats, stopped := e.migrateTable(ctx, table, plan[table], report, shouldStop)
		result.Tables[table] = stats
		result.Stats.add(stats)
		e.note("Table %s: total=%d migrated=%d conflicts=%d errors=%d",
			table, stats.Total, stats.Migrated, stats.Conflicts, stats.Errors)
		if stopped {
			result.Cancelled = true
			break
		}
	}

	result.Mappings = e.mapper.Len()
	if result.Cancelled {
		e.note("Migration cancelled")
	} else {
		e.note("Migration finished: migrated=%d conflicts=%d errors=%d",
			result.Stats.Migrated, result.Stats.Conflicts, result.Stats.Errors)
	}
	artifacts, err := e.writeArtifacts(result)
	if err != nil {
		return result, err
	}
	result.Artifacts = artifacts

	if result.Cancelled {
		return result, fmt.Errorf("migration: %w", apperrors.ErrCancelled)
	}
	progress(100, "Migration complete")
	return result, nil
}

func (e *Engine) tables(ctx context.Context) ([]string, error) {
	if len(e.opts.Tables) > 0 {
		for _, t := range e.opts.Tables {
			ok, err := e.source.HasTable(ctx, t)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, apperrors.NewValidationError("unknown table %q", t)
			}
		}
		return database.OrderTables(e.opts.Tables), nil
	}
	all, err := e.source.Tables(ctx)
	if err != nil {
		return nil, err
	}
	return database.OrderTables(all), nil
}

// note appends to the run log and mirrors the line to the structured logger.
func (e *Engine) note(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	e.log.add(msg)
	e.logger.Info(msg)
}
