// Package repositories builds the repository for the configured backend.
package repositories

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/SscSPs/rental_backoffice_app/internal/apperrors"
	portsrepo "github.com/SscSPs/rental_backoffice_app/internal/core/ports/repositories"
	"github.com/SscSPs/rental_backoffice_app/internal/remote"
	"github.com/SscSPs/rental_backoffice_app/internal/repositories/database/sqlite"
	remoterepo "github.com/SscSPs/rental_backoffice_app/internal/repositories/remote"
	"github.com/SscSPs/rental_backoffice_app/internal/settings"
	"github.com/SscSPs/rental_backoffice_app/pkg/database"
)

// ConnectionError reports that the selected backend could not be built or verified.
type ConnectionError struct {
	Backend portsrepo.Backend
	Reason  string
	Err     error
}

func (e *ConnectionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s backend unavailable: %s: %v", e.Backend, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s backend unavailable: %s", e.Backend, e.Reason)
}

func (e *ConnectionError) Unwrap() []error {
	if e.Err == nil {
		return []error{apperrors.ErrConnection}
	}
	return []error{apperrors.ErrConnection, e.Err}
}

// Settings is the part of the settings document the factory reads.
type Settings interface {
	DataSource() settings.Backend
	RemoteCredentials() settings.RemoteCredentials
	LocalDBPath() string
}

type Factory struct {
	logger        *slog.Logger
	remoteOptions []remote.Option
}

type Option func(*Factory)

// WithRemoteOptions passes options to every remote client the factory builds.
func WithRemoteOptions(opts ...remote.Option) Option {
	return func(f *Factory) { f.remoteOptions = append(f.remoteOptions, opts...) }
}

func NewFactory(logger *slog.Logger, opts ...Option) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	f := &Factory{logger: logger}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// New returns the repository for the backend selected in s.
// With memoryFallback set, a local backend whose file does not exist is served from memory.
func (f *Factory) New(ctx context.Context, s Settings, memoryFallback bool) (portsrepo.Repository, error) {
	switch s.DataSource() {
	case settings.BackendRemote:
		return f.NewRemote(ctx, s.RemoteCredentials())
	default:
		return f.NewLocal(ctx, s.LocalDBPath(), memoryFallback)
	}
}

// NewRemoteClient validates creds and signs in.
func (f *Factory) NewRemoteClient(ctx context.Context, creds settings.RemoteCredentials) (*remote.Client, error) {
	if !creds.Complete() {
		return nil, &ConnectionError{
			Backend: portsrepo.BackendRemote,
			Reason:  "missing credentials " + strings.Join(creds.Missing(), ", "),
			Err:     apperrors.ErrValidation,
		}
	}
	opts := append([]remote.Option{remote.WithLogger(f.logger)}, f.remoteOptions...)
	c, err := remote.NewClient(ctx, remote.Credentials{
		ProjectID: creds.ProjectID,
		Email:     creds.Email,
		Password:  creds.Password,
		APIKey:    creds.APIKey,
	}, opts...)
	if err != nil {
		return nil, &ConnectionError{Backend: portsrepo.BackendRemote, Reason: "sign-in failed", Err: err}
	}
	return c, nil
}

// NewRemote signs in and verifies the connection before returning.
func (f *Factory) NewRemote(ctx context.Context, creds settings.RemoteCredentials) (*remoterepo.Repository, error) {
	c, err := f.NewRemoteClient(ctx, creds)
	if err != nil {
		return nil, err
	}
	repo := remoterepo.New(c, f.logger)
	if !repo.VerifyConnection(ctx) {
		return nil, &ConnectionError{Backend: portsrepo.BackendRemote, Reason: "connection check failed"}
	}
	f.logger.Info("Remote repository ready", slog.String("remote_project", creds.ProjectID))
	return repo, nil
}

// NewLocal opens the store at path and ensures its tables exist.
func (f *Factory) NewLocal(ctx context.Context, path string, memoryFallback bool) (*sqlite.Repository, error) {
	if memoryFallback {
		if _, err := os.Stat(path); path == "" || errors.Is(err, os.ErrNotExist) {
			f.logger.Warn("Local database not found, using an in-memory store", slog.String("path", path))
			return f.NewMemory(ctx)
		}
	}
	store, err := database.Open(path, f.logger)
	if err != nil {
		return nil, &ConnectionError{Backend: portsrepo.BackendLocal, Reason: "open " + path, Err: err}
	}
	return f.ready(ctx, store)
}

// NewMemory returns a repository over a fresh in-memory store.
func (f *Factory) NewMemory(ctx context.Context) (*sqlite.Repository, error) {
	store, err := database.OpenMemory(f.logger)
	if err != nil {
		return nil, &ConnectionError{Backend: portsrepo.BackendLocal, Reason: "open memory store", Err: err}
	}
	return f.ready(ctx, store)
}

// CreateSQLiteForBackup creates a new database file at path with the core schema.
// An existing file is never overwritten.
func (f *Factory) CreateSQLiteForBackup(ctx context.Context, path string) (*sqlite.Repository, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("backup file %s: %w", path, apperrors.ErrDuplicate)
	}
	store, err := database.Open(path, f.logger)
	if err != nil {
		return nil, err
	}
	return f.ready(ctx, store)
}

func (f *Factory) ready(ctx context.Context, store *database.Store) (*sqlite.Repository, error) {
	repo := sqlite.New(store, f.logger)
	if err := repo.EnsureTables(ctx); err != nil {
		_ = store.Close()
		return nil, &ConnectionError{Backend: portsrepo.BackendLocal, Reason: "create tables", Err: err}
	}
	return repo, nil
}
