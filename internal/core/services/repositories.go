package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/SscSPs/rental_backoffice_app/internal/apperrors"
	"github.com/SscSPs/rental_backoffice_app/internal/core/domain"
	portsrepo "github.com/SscSPs/rental_backoffice_app/internal/core/ports/repositories"
	"github.com/SscSPs/rental_backoffice_app/internal/mirror"
	"github.com/SscSPs/rental_backoffice_app/internal/repositories/database/sqlite"
	"github.com/SscSPs/rental_backoffice_app/pkg/database"
)

// MemoryStoreFactory builds the in-memory store the mirror writes into.
type MemoryStoreFactory interface {
	NewMemory(ctx context.Context) (*sqlite.Repository, error)
}

// Repositories holds the active repository. Swapping backends closes the previous
// repository and drops its mirror cache.
type Repositories struct {
	BaseService
	memory     MemoryStoreFactory
	mirrorOpts []mirror.Option

	mu     sync.RWMutex
	repo   portsrepo.Repository
	cache  *sqlite.Repository
	engine *mirror.Engine
	bounds domain.DateBounds
}

func NewRepositories(repo portsrepo.Repository, memory MemoryStoreFactory, logger *slog.Logger, mirrorOpts ...mirror.Option) *Repositories {
	return &Repositories{
		BaseService: BaseService{Logger: logger},
		repo:        repo,
		memory:      memory,
		mirrorOpts:  mirrorOpts,
	}
}

// Current returns the repository serving calls right now.
func (h *Repositories) Current() portsrepo.Repository {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.repo
}

func (h *Repositories) Backend() portsrepo.Backend {
	return h.Current().Backend()
}

// Swap installs repo and closes the previous one.
func (h *Repositories) Swap(ctx context.Context, repo portsrepo.Repository) {
	h.mu.Lock()
	old, oldCache := h.repo, h.cache
	h.repo, h.cache, h.engine = repo, nil, nil
	h.bounds = domain.DateBounds{}
	h.mu.Unlock()

	h.LogInfo(ctx, "Active repository replaced", slog.String("backend", string(repo.Backend())))
	if old != nil && old != repo {
		if err := old.Close(); err != nil {
			h.LogError(ctx, err, "Failed to close previous repository")
		}
	}
	if oldCache != nil {
		_ = oldCache.Close()
	}
}

// Mirror returns the mirror engine for the remote backend, creating its in-memory
// target on first use. It returns nil when the local backend is active.
func (h *Repositories) Mirror(ctx context.Context) (*mirror.Engine, *sqlite.Repository, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	source, ok := h.repo.(portsrepo.DocumentSource)
	if !ok || h.repo.Backend() != portsrepo.BackendRemote {
		return nil, nil, nil
	}
	if h.engine != nil {
		return h.engine, h.cache, nil
	}
	if h.memory == nil {
		return nil, nil, errors.New("no memory store factory configured")
	}
	cache, err := h.memory.NewMemory(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create mirror cache: %w", err)
	}
	engine := mirror.New(source, cache.Store(), h.GetLogger(ctx), h.mirrorOpts...)
	engine.OnDateBounds(func(b domain.DateBounds) {
		h.mu.Lock()
		h.bounds = b
		h.mu.Unlock()
		h.LogInfo(ctx, "Date range refreshed", slog.String("min_date", b.MinDate), slog.String("max_date", b.MaxDate))
	})
	h.cache, h.engine = cache, engine
	return engine, cache, nil
}

// Cached returns the rows of collection as served to screens that read the local
// store directly. With the remote backend active, deferred collections are mirrored
// on first access; with the local backend, rows come straight from the local store.
// Only core tables are served.
func (h *Repositories) Cached(ctx context.Context, collection string) ([]map[string]any, error) {
	if !slices.Contains(database.DependencyOrder, collection) {
		return nil, apperrors.NewNotFoundError("collection " + collection)
	}
	engine, cache, err := h.Mirror(ctx)
	if err != nil {
		return nil, err
	}
	if engine == nil {
		local, ok := h.Current().(*sqlite.Repository)
		if !ok {
			return nil, fmt.Errorf("backend %s has no local rows", h.Backend())
		}
		return local.Store().ListDocuments(ctx, collection)
	}
	if _, err := engine.EnsureLoaded(ctx, collection); err != nil {
		return nil, err
	}
	return cache.Store().ListDocuments(ctx, collection)
}

// DateBounds returns the range published by the last startup mirror, or the
// active repository's range when nothing has been mirrored.
func (h *Repositories) DateBounds(ctx context.Context) (domain.DateBounds, error) {
	h.mu.RLock()
	b, mirrored := h.bounds, h.engine != nil
	h.mu.RUnlock()
	if mirrored && (b.MinDate != "" || b.MaxDate != "") {
		return b, nil
	}
	return h.Current().DateBounds(ctx)
}

// Close releases the active repository and any mirror cache.
func (h *Repositories) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cache != nil {
		_ = h.cache.Close()
		h.cache = nil
	}
	if h.repo == nil {
		return nil
	}
	return h.repo.Close()
}
