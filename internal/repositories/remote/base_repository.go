// Package remote implements the repository contract over the remote document store.
//
// Collections mirror the local tables and documents carry the same snake_case fields.
// Filtering happens on the client after a full fetch; single-field equality lookups go
// through structured queries. Multi-document changes go through one atomic commit.
package remote

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/SscSPs/rental_backoffice_app/internal/apperrors"
	portsrepo "github.com/SscSPs/rental_backoffice_app/internal/core/ports/repositories"
	client "github.com/SscSPs/rental_backoffice_app/internal/remote"
)

// DocumentClient is the slice of the remote client the repository needs.
type DocumentClient interface {
	ProjectID() string
	GetDocument(ctx context.Context, collection, id string) (map[string]any, error)
	ListDocuments(ctx context.Context, collection string) ([]map[string]any, error)
	SetDocument(ctx context.Context, collection, id string, record map[string]any) (map[string]any, error)
	DeleteDocument(ctx context.Context, collection, id string) error
	Commit(ctx context.Context, writes ...client.Write) error
	RunQuery(ctx context.Context, q client.Query) ([]map[string]any, error)
	QueryEqual(ctx context.Context, collection, field string, value any) ([]map[string]any, error)
	Probe(ctx context.Context) bool
}

var _ DocumentClient = (*client.Client)(nil)

// Repository is the remote backend.
type Repository struct {
	client DocumentClient
	logger *slog.Logger
}

// Ensure Repository implements the full contract.
var _ portsrepo.Repository = (*Repository)(nil)

func New(c DocumentClient, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{client: c, logger: logger.With(slog.String("backend", "remote"), slog.String("remote_project", c.ProjectID()))}
}

// Client exposes the underlying client for migration and mirroring.
func (r *Repository) Client() DocumentClient { return r.client }

func (r *Repository) Backend() portsrepo.Backend { return portsrepo.BackendRemote }

// EnsureTables is a no-op: collections come into existence with their first document.
func (r *Repository) EnsureTables(ctx context.Context) error { return nil }

func (r *Repository) VerifyConnection(ctx context.Context) bool {
	return r.client.Probe(ctx)
}

func (r *Repository) Close() error { return nil }

// ListDocuments satisfies portsrepo.DocumentSource for the mirror and backup jobs.
func (r *Repository) ListDocuments(ctx context.Context, collection string) ([]map[string]any, error) {
	return r.client.ListDocuments(ctx, collection)
}

// list fetches a whole collection for a read-only listing. Transient failures
// degrade to an empty result so screens still render while offline.
func (r *Repository) list(ctx context.Context, collection string) ([]record, error) {
	docs, err := r.client.ListDocuments(ctx, collection)
	if err != nil {
		if apperrors.IsTransient(err) {
			r.logger.Warn("Listing failed transiently, returning empty result",
				slog.String("collection", collection), slog.String("error", err.Error()))
			return nil, nil
		}
		return nil, err
	}
	return records(docs), nil
}

// fetchAll is list without the transient fallback, for reads feeding a write.
func (r *Repository) fetchAll(ctx context.Context, collection string) ([]record, error) {
	docs, err := r.client.ListDocuments(ctx, collection)
	if err != nil {
		return nil, err
	}
	return records(docs), nil
}

func (r *Repository) where(ctx context.Context, collection, field string, value any) ([]record, error) {
	docs, err := r.client.QueryEqual(ctx, collection, field, value)
	if err != nil {
		return nil, err
	}
	return records(docs), nil
}

func (r *Repository) get(ctx context.Context, collection, id string) (record, error) {
	doc, err := r.client.GetDocument(ctx, collection, id)
	if err != nil || doc == nil {
		return nil, err
	}
	return record(doc), nil
}

// mustGet is get with a missing document reported as ErrNotFound.
func (r *Repository) mustGet(ctx context.Context, collection, id, what string) (record, error) {
	rec, err := r.get(ctx, collection, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, apperrors.NewNotFoundError(what + " not found")
	}
	return rec, nil
}

// nextID returns max(id)+1 for an integer-keyed collection. Ids are assigned
// without a lock, which is fine for the single-writer desktop deployment.
func (r *Repository) nextID(ctx context.Context, collection string) (int64, error) {
	docs, err := r.client.RunQuery(ctx, client.Query{Collection: collection, OrderBy: "id", Descending: true, Limit: 1})
	if err != nil {
		return 0, err
	}
	var maxID int64
	for _, d := range records(docs) {
		if id := d.intID(); id > maxID {
			maxID = id
		}
	}
	return maxID + 1, nil
}

// create stores a new integer-keyed record and returns its id.
func (r *Repository) create(ctx context.Context, collection string, fields map[string]any) (int64, error) {
	id, err := r.nextID(ctx, collection)
	if err != nil {
		return 0, err
	}
	fields["id"] = id
	if _, err := r.client.SetDocument(ctx, collection, docID(id), fields); err != nil {
		return 0, err
	}
	return id, nil
}

// replace overwrites an existing integer-keyed record, keeping fields it does not set.
func (r *Repository) replace(ctx context.Context, collection string, id int64, what string, fields map[string]any) error {
	current, err := r.mustGet(ctx, collection, docID(id), fmt.Sprintf("%s %d", what, id))
	if err != nil {
		return err
	}
	fields["id"] = id
	_, err = r.client.SetDocument(ctx, collection, docID(id), withFields(current, fields))
	return err
}

func records(docs []map[string]any) []record {
	out := make([]record, len(docs))
	for i, d := range docs {
		out[i] = record(d)
	}
	return out
}

func byNameThenID[T any](items []T, name func(T) string, id func(T) int64) {
	sort.SliceStable(items, func(i, j int) bool {
		if a, b := name(items[i]), name(items[j]); a != b {
			return a < b
		}
		return id(items[i]) < id(items[j])
	})
}
