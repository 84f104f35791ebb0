package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	portsrepo "github.com/SscSPs/rental_backoffice_app/internal/core/ports/repositories"
	"github.com/SscSPs/rental_backoffice_app/internal/mirror"
	"github.com/SscSPs/rental_backoffice_app/internal/repositories/database/sqlite"
	"github.com/SscSPs/rental_backoffice_app/pkg/database"
)

// BackupFileLayout is the time layout of backup file names.
const BackupFileLayout = "backup_20060102_150405.db"

// BackupFactory creates the file a backup is written to.
type BackupFactory interface {
	CreateSQLiteForBackup(ctx context.Context, path string) (*sqlite.Repository, error)
}

// BackupResult describes a finished backup.
type BackupResult struct {
	Path   string            `json:"path"`
	Rows   map[string]int    `json:"rows"`
	Failed map[string]string `json:"failed,omitempty"`
}

// BackupService exports the active backend into a new SQLite file.
type BackupService struct {
	BaseService
	factory BackupFactory
	repos   *Repositories
	now     func() time.Time
}

type BackupOption func(*BackupService)

// WithBackupClock replaces time.Now for file naming.
func WithBackupClock(now func() time.Time) BackupOption {
	return func(s *BackupService) { s.now = now }
}

func NewBackupService(factory BackupFactory, repos *Repositories, logger *slog.Logger, opts ...BackupOption) *BackupService {
	s := &BackupService{
		BaseService: BaseService{Logger: logger},
		factory:     factory,
		repos:       repos,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run writes folder/backup_YYYYMMDD_HHMMSS.db containing every table of the active backend.
// Tables that fail to copy are listed in the result and reported as an error after the
// rest have been written.
func (s *BackupService) Run(ctx context.Context, folder string, progress func(int, string), shouldStop func() bool) (*BackupResult, error) {
	if folder == "" {
		folder = "backups"
	}
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create backup folder %s: %w", folder, err)
	}
	path := filepath.Join(folder, s.now().Format(BackupFileLayout))

	source, collections, err := s.source(ctx)
	if err != nil {
		return nil, err
	}

	target, err := s.factory.CreateSQLiteForBackup(ctx, path)
	if err != nil {
		s.LogError(ctx, err, "Failed to create backup file", slog.String("path", path))
		return nil, err
	}
	defer func() {
		if cerr := target.Close(); cerr != nil {
			s.LogError(ctx, cerr, "Failed to close backup file", slog.String("path", path))
		}
	}()

	if local, ok := source.(*database.Store); ok {
		if err := copySchema(ctx, local, target.Store(), collections); err != nil {
			return nil, err
		}
	}

	s.LogInfo(ctx, "Backup started", slog.String("path", path), slog.String("backend", string(s.repos.Backend())))
	report, err := mirror.Copy(ctx, source, target.Store(), collections, s.GetLogger(ctx), progress, shouldStop)
	result := &BackupResult{Path: path}
	if report != nil {
		result.Rows, result.Failed = report.Rows, report.Failed
	}
	if err != nil {
		return result, err
	}
	if len(result.Failed) > 0 {
		names := make([]string, 0, len(result.Failed))
		for name := range result.Failed {
			names = append(names, name)
		}
		sort.Strings(names)
		return result, fmt.Errorf("backup %s incomplete, failed tables: %s", path, strings.Join(names, ", "))
	}
	s.LogInfo(ctx, "Backup finished", slog.String("path", path), slog.Int("tables", len(result.Rows)))
	return result, nil
}

// source picks what to copy: every table of a local store, or the core collections of a remote one.
func (s *BackupService) source(ctx context.Context) (portsrepo.DocumentSource, []string, error) {
	switch repo := s.repos.Current().(type) {
	case *sqlite.Repository:
		tables, err := repo.Store().Tables(ctx)
		if err != nil {
			return nil, nil, err
		}
		return repo.Store(), database.OrderTables(tables), nil
	case portsrepo.DocumentSource:
		return repo, database.DependencyOrder, nil
	default:
		return nil, nil, errors.New("active repository cannot be exported")
	}
}

// copySchema creates in to the tables of from that the core schema does not cover.
func copySchema(ctx context.Context, from, to *database.Store, tables []string) error {
	for _, table := range tables {
		present, err := to.HasTable(ctx, table)
		if err != nil {
			return err
		}
		if present {
			continue
		}
		ddl, err := from.TableDDL(ctx, table)
		if err != nil {
			return err
		}
		if ddl == "" {
			continue
		}
		if _, err := to.Execute(ctx, ddl); err != nil {
			return err
		}
	}
	return nil
}
