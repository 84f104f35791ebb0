package services

import (
	"log/slog"

	portssvc "github.com/SscSPs/rental_backoffice_app/internal/core/ports/services"
	"github.com/SscSPs/rental_backoffice_app/internal/platform/config"
	"github.com/SscSPs/rental_backoffice_app/internal/repositories"
	"github.com/SscSPs/rental_backoffice_app/internal/worker"
)

// Container holds the concrete services behind portssvc.ServiceContainer.
type Container struct {
	Repos  *Repositories
	Backup *BackupService
	Jobs   *JobService
}

// NewContainer wires the services around the active repository holder.
func NewContainer(cfg *config.Config, factory *repositories.Factory, repos *Repositories, st SettingsStore, telemetry Telemetry, logger *slog.Logger) *Container {
	backup := NewBackupService(factory, repos, logger)
	jobs := NewJobService(worker.New(logger), repos, backup, st, RemoteTarget(factory), logger,
		WithTelemetry(telemetry),
		WithMigrationDefaults(MigrationDefaults{
			OutputDir:       cfg.MigrationOutputDir,
			AttachmentsRoot: cfg.AttachmentsRoot,
			MigratedBy:      cfg.MigratedBy,
		}),
	)
	return &Container{Repos: repos, Backup: backup, Jobs: jobs}
}

// Ports returns the container as seen by handlers.
func (c *Container) Ports() *portssvc.ServiceContainer {
	return &portssvc.ServiceContainer{Repos: c.Repos, Jobs: c.Jobs}
}

var (
	_ portssvc.RepositorySvc = (*Repositories)(nil)
	_ portssvc.JobSvcFacade  = (*JobService)(nil)
)
