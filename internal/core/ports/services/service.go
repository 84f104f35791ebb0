package services

import (
	"context"

	"github.com/SscSPs/rental_backoffice_app/internal/core/domain"
	portsrepo "github.com/SscSPs/rental_backoffice_app/internal/core/ports/repositories"
	"github.com/SscSPs/rental_backoffice_app/internal/worker"
)

// ServiceContainer holds instances of all the application services.
// Handlers and the CLI reach the active backend and the job runner through it.
type ServiceContainer struct {
	Repos RepositorySvc
	Jobs  JobSvcFacade
}

// RepositorySvc exposes the active repository.
type RepositorySvc interface {
	// Current returns the repository serving calls right now.
	Current() portsrepo.Repository

	// Cached returns a collection's rows as held in the local store or its mirror.
	Cached(ctx context.Context, collection string) ([]map[string]any, error)

	// DateBounds returns the transaction date range for filter widgets.
	DateBounds(ctx context.Context) (domain.DateBounds, error)
}

// JobStarterSvc submits background jobs. Each returns worker.ErrBusy while another job runs.
type JobStarterSvc interface {
	StartMigration(req domain.MigrationRequest) error
	StartSync() error
	StartBackup(folder string) error
}

// JobControlSvc observes and stops the running job.
type JobControlSvc interface {
	Stop() bool
	Status() worker.Status
	Worker() *worker.Worker
}

// JobSvcFacade combines all job-related service interfaces
type JobSvcFacade interface {
	JobStarterSvc
	JobControlSvc
}
