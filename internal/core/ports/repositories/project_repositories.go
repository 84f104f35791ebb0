package repositories

import (
	"context"

	"github.com/SscSPs/rental_backoffice_app/internal/core/domain"
)

// ProjectReader defines read operations for projects.
type ProjectReader interface {
	// ListProjects returns every project ordered by name.
	ListProjects(ctx context.Context) ([]domain.Project, error)

	// FindProjectByID returns nil without error when the project does not exist.
	FindProjectByID(ctx context.Context, projectID int64) (*domain.Project, error)
}

// ProjectWriter defines write operations for projects.
type ProjectWriter interface {
	CreateProject(ctx context.Context, in domain.ProjectInput) (*domain.Project, error)
}

// ProjectRepositoryFacade combines project reads and writes.
type ProjectRepositoryFacade interface {
	ProjectReader
	ProjectWriter
}
