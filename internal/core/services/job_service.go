package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/SscSPs/rental_backoffice_app/internal/apperrors"
	"github.com/SscSPs/rental_backoffice_app/internal/core/domain"
	"github.com/SscSPs/rental_backoffice_app/internal/migration"
	"github.com/SscSPs/rental_backoffice_app/internal/mirror"
	"github.com/SscSPs/rental_backoffice_app/internal/repositories"
	"github.com/SscSPs/rental_backoffice_app/internal/settings"
	"github.com/SscSPs/rental_backoffice_app/internal/utils"
	"github.com/SscSPs/rental_backoffice_app/internal/worker"
	"github.com/SscSPs/rental_backoffice_app/pkg/database"
)

// Job names.
const (
	JobMigrate = "migrate"
	JobSync    = "sync"
	JobBackup  = "backup"
)

// SettingsStore is the part of the settings document jobs read and update.
type SettingsStore interface {
	repositories.Settings
	BackupFolder() string
	RecordMigration(date, sourcePath string)
	Save() error
}

// Telemetry receives job completion events.
type Telemetry interface {
	Enqueue(distinctID, event string, properties map[string]any)
}

// TargetFunc opens the remote side of a migration.
type TargetFunc func(ctx context.Context, creds settings.RemoteCredentials) (migration.Target, error)

// MigrationDefaults fill fields a migration request leaves empty.
type MigrationDefaults struct {
	OutputDir       string
	AttachmentsRoot string
	MigratedBy      string
}

// JobService runs migration, sync and backup, either inline or on the background worker.
type JobService struct {
	BaseService
	worker    *worker.Worker
	repos     *Repositories
	backup    *BackupService
	settings  SettingsStore
	target    TargetFunc
	telemetry Telemetry
	defaults  MigrationDefaults
	distinct  string
	now       func() time.Time
}

type JobOption func(*JobService)

func WithTelemetry(t Telemetry) JobOption { return func(s *JobService) { s.telemetry = t } }

func WithMigrationDefaults(d MigrationDefaults) JobOption {
	return func(s *JobService) { s.defaults = d }
}

func WithJobClock(now func() time.Time) JobOption { return func(s *JobService) { s.now = now } }

func NewJobService(w *worker.Worker, repos *Repositories, backup *BackupService, st SettingsStore, target TargetFunc, logger *slog.Logger, opts ...JobOption) *JobService {
	s := &JobService{
		BaseService: BaseService{Logger: logger},
		worker:      w,
		repos:       repos,
		backup:      backup,
		settings:    st,
		target:      target,
		now:         time.Now,
	}
	if host, err := os.Hostname(); err == nil {
		s.distinct = host
	} else {
		s.distinct = "backoffice"
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RemoteTarget adapts a factory into a TargetFunc.
func RemoteTarget(f *repositories.Factory) TargetFunc {
	return func(ctx context.Context, creds settings.RemoteCredentials) (migration.Target, error) {
		c, err := f.NewRemoteClient(ctx, creds)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

func (s *JobService) Worker() *worker.Worker { return s.worker }

// Status returns the current or last job.
func (s *JobService) Status() worker.Status { return s.worker.Status() }

// Stop asks the running job to stop at its next checkpoint.
func (s *JobService) Stop() bool { return s.worker.Stop() }

// RunMigration migrates the local database into the remote store and blocks until done.
// A real (non dry-run) migration that finishes is recorded in the settings document.
func (s *JobService) RunMigration(ctx context.Context, req domain.MigrationRequest, progress func(int, string), shouldStop func() bool) (*migration.Result, error) {
	path := req.SourcePath
	if path == "" {
		path = s.settings.LocalDBPath()
	}
	if _, err := os.Stat(path); err != nil {
		return nil, apperrors.NewNotFoundError("local database " + path)
	}
	source, err := database.Open(path, s.GetLogger(ctx))
	if err != nil {
		return nil, err
	}
	defer source.Close()

	target, err := s.target(ctx, s.settings.RemoteCredentials())
	if err != nil {
		return nil, err
	}

	engine := migration.New(source, target, migration.Options{
		Tables:            req.Tables,
		DryRun:            req.DryRun,
		UploadAttachments: req.UploadAttachments,
		AttachmentsRoot:   s.defaults.AttachmentsRoot,
		OutputDir:         s.defaults.OutputDir,
		MigratedBy:        s.defaults.MigratedBy,
	}, s.GetLogger(ctx), migration.WithClock(s.now))

	result, err := engine.Run(ctx, progress, shouldStop)
	if err != nil {
		s.track(utils.EventJobFailed, map[string]any{"job": JobMigrate, "error": err.Error()})
		return result, err
	}
	if !req.DryRun {
		s.settings.RecordMigration(s.now().Format(time.RFC3339), path)
		if err := s.settings.Save(); err != nil {
			s.LogError(ctx, err, "Failed to record migration in settings")
		}
	}
	s.track(utils.EventMigrationCompleted, map[string]any{
		"dry_run":   req.DryRun,
		"migrated":  result.Stats.Migrated,
		"conflicts": result.Stats.Conflicts,
		"errors":    result.Stats.Errors,
	})
	return result, nil
}

// RunSync mirrors the essential collections when the remote backend is active.
func (s *JobService) RunSync(ctx context.Context, progress func(int, string), shouldStop func() bool) (*mirror.Report, error) {
	engine, _, err := s.repos.Mirror(ctx)
	if err != nil {
		return nil, err
	}
	if engine == nil {
		return &mirror.Report{Rows: map[string]int{}}, nil
	}
	report, err := engine.SyncEssential(ctx, progress, shouldStop)
	if err != nil {
		s.track(utils.EventJobFailed, map[string]any{"job": JobSync, "error": err.Error()})
		return report, err
	}
	s.track(utils.EventSyncCompleted, map[string]any{"collections": len(report.Rows), "failed": len(report.Failed)})
	return report, nil
}

// RunBackup exports the active backend. An empty folder means the configured one.
func (s *JobService) RunBackup(ctx context.Context, folder string, progress func(int, string), shouldStop func() bool) (*BackupResult, error) {
	if folder == "" {
		folder = s.settings.BackupFolder()
	}
	result, err := s.backup.Run(ctx, folder, progress, shouldStop)
	if err != nil {
		s.track(utils.EventJobFailed, map[string]any{"job": JobBackup, "error": err.Error()})
		return result, err
	}
	s.track(utils.EventBackupCompleted, map[string]any{"tables": len(result.Rows)})
	return result, nil
}

// StartMigration runs RunMigration on the worker.
func (s *JobService) StartMigration(req domain.MigrationRequest) error {
	return s.worker.Start(JobMigrate, func(ctx context.Context, progress worker.ProgressFunc, shouldStop func() bool) (string, error) {
		res, err := s.RunMigration(ctx, req, progress, shouldStop)
		if err != nil {
			return "", err
		}
		return MigrationMessage(res), nil
	}, nil, nil)
}

// StartSync runs RunSync on the worker.
func (s *JobService) StartSync() error {
	return s.worker.Start(JobSync, func(ctx context.Context, progress worker.ProgressFunc, shouldStop func() bool) (string, error) {
		report, err := s.RunSync(ctx, progress, shouldStop)
		if err != nil {
			return "", err
		}
		if len(report.Rows) == 0 && len(report.Failed) == 0 {
			return "Local backend active, nothing to sync", nil
		}
		if len(report.Failed) > 0 {
			return fmt.Sprintf("Synced %d collections, %d failed", len(report.Rows), len(report.Failed)), nil
		}
		return fmt.Sprintf("Synced %d collections", len(report.Rows)), nil
	}, nil, nil)
}

// StartBackup runs RunBackup on the worker.
func (s *JobService) StartBackup(folder string) error {
	return s.worker.Start(JobBackup, func(ctx context.Context, progress worker.ProgressFunc, shouldStop func() bool) (string, error) {
		res, err := s.RunBackup(ctx, folder, progress, shouldStop)
		if err != nil {
			return "", err
		}
		return "Backup written to " + res.Path, nil
	}, nil, nil)
}

// MigrationMessage summarizes a migration result for display.
func MigrationMessage(res *migration.Result) string {
	prefix := "Migrated"
	if res.DryRun {
		prefix = "Dry run: would migrate"
	}
	return fmt.Sprintf("%s %d of %d rows (%d conflicts, %d errors)",
		prefix, res.Stats.Migrated, res.Stats.Total, res.Stats.Conflicts, res.Stats.Errors)
}

// IsBusy reports whether err came from submitting a job while another was running.
func IsBusy(err error) bool { return errors.Is(err, worker.ErrBusy) }

func (s *JobService) track(event string, props map[string]any) {
	if s.telemetry == nil {
		return
	}
	s.telemetry.Enqueue(s.distinct, event, props)
}
