package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/SscSPs/rental_backoffice_app/internal/apperrors"
)

type listResponse struct {
	Documents     []Document `json:"documents"`
	NextPageToken string     `json:"nextPageToken"`
}

// GetDocument reads collection/id. A missing document returns (nil, nil).
func (c *Client) GetDocument(ctx context.Context, collection, id string) (map[string]any, error) {
	var doc Document
	err := c.Request(ctx, http.MethodGet, collection+"/"+url.PathEscape(id), nil, &doc)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return DecodeDocument(doc, c.logger), nil
}

// ListDocuments reads the whole collection, following page tokens until the
// server stops returning one. Documents already seen are skipped so a page that
// shifts under concurrent writes cannot produce duplicates.
func (c *Client) ListDocuments(ctx context.Context, collection string) ([]map[string]any, error) {
	var (
		records []map[string]any
		seen    = make(map[string]struct{})
		token   string
		pages   int
	)
	for {
		q := url.Values{}
		q.Set("pageSize", strconv.Itoa(MaxPageSize))
		if token != "" {
			q.Set("pageToken", token)
		}
		var page listResponse
		if err := c.Request(ctx, http.MethodGet, collection+"?"+q.Encode(), nil, &page); err != nil {
			return nil, err
		}
		pages++
		for _, doc := range page.Documents {
			id := doc.ID()
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			records = append(records, DecodeDocument(doc, c.logger))
		}
		if page.NextPageToken == "" {
			break
		}
		token = page.NextPageToken
	}
	c.logger.Debug("Listed collection", slog.String("collection", collection), slog.Int("documents", len(records)), slog.Int("pages", pages))
	return records, nil
}

// SetDocument creates or replaces collection/id with the given fields and returns the stored record.
func (c *Client) SetDocument(ctx context.Context, collection, id string, record map[string]any) (map[string]any, error) {
	if id == "" {
		return nil, apperrors.NewValidationError("document id is required for %s", collection)
	}
	var doc Document
	body := Document{Fields: EncodeFields(record)}
	if err := c.Request(ctx, http.MethodPatch, collection+"/"+url.PathEscape(id), body, &doc); err != nil {
		return nil, err
	}
	return DecodeDocument(doc, c.logger), nil
}

// CreateDocument adds a document with a server-assigned id.
func (c *Client) CreateDocument(ctx context.Context, collection string, record map[string]any) (map[string]any, error) {
	var doc Document
	body := Document{Fields: EncodeFields(record)}
	if err := c.Request(ctx, http.MethodPost, collection, body, &doc); err != nil {
		return nil, err
	}
	return DecodeDocument(doc, c.logger), nil
}

// DeleteDocument removes collection/id. Deleting a missing document succeeds.
func (c *Client) DeleteDocument(ctx context.Context, collection, id string) error {
	err := c.Request(ctx, http.MethodDelete, collection+"/"+url.PathEscape(id), nil, nil)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil
	}
	return err
}

// Write is one element of an atomic commit: either an upsert or a delete.
type Write struct {
	Collection string
	ID         string
	Fields     map[string]any
	Delete     bool
}

// Upsert builds a Write that replaces collection/id.
func Upsert(collection, id string, fields map[string]any) Write {
	return Write{Collection: collection, ID: id, Fields: fields}
}

// Remove builds a Write that deletes collection/id.
func Remove(collection, id string) Write {
	return Write{Collection: collection, ID: id, Delete: true}
}

type commitWrite struct {
	Update *Document `json:"update,omitempty"`
	Delete string    `json:"delete,omitempty"`
}

type commitRequest struct {
	Writes []commitWrite `json:"writes"`
}

// Commit applies all writes atomically: either every write lands or none does.
func (c *Client) Commit(ctx context.Context, writes ...Write) error {
	if len(writes) == 0 {
		return nil
	}
	req := commitRequest{Writes: make([]commitWrite, 0, len(writes))}
	for _, w := range writes {
		if w.ID == "" {
			return apperrors.NewValidationError("commit write to %s is missing an id", w.Collection)
		}
		name := c.DocumentName(w.Collection, w.ID)
		if w.Delete {
			req.Writes = append(req.Writes, commitWrite{Delete: name})
			continue
		}
		req.Writes = append(req.Writes, commitWrite{Update: &Document{Name: name, Fields: EncodeFields(w.Fields)}})
	}
	if err := c.Request(ctx, http.MethodPost, ":commit", req, nil); err != nil {
		return fmt.Errorf("failed to commit %d writes: %w", len(writes), err)
	}
	return nil
}

// Query is a single-collection structured query.
type Query struct {
	Collection string
	// Equal filters; all must hold.
	Equal      map[string]any
	OrderBy    string
	Descending bool
	Limit      int
}

type fieldRef struct {
	FieldPath string `json:"fieldPath"`
}

type fieldFilter struct {
	Field fieldRef       `json:"field"`
	Op    string         `json:"op"`
	Value map[string]any `json:"value"`
}

type filter struct {
	FieldFilter     *fieldFilter     `json:"fieldFilter,omitempty"`
	CompositeFilter *compositeFilter `json:"compositeFilter,omitempty"`
}

type compositeFilter struct {
	Op      string   `json:"op"`
	Filters []filter `json:"filters"`
}

type order struct {
	Field     fieldRef `json:"field"`
	Direction string   `json:"direction"`
}

type structuredQuery struct {
	From    []map[string]string `json:"from"`
	Where   *filter             `json:"where,omitempty"`
	OrderBy []order             `json:"orderBy,omitempty"`
	Limit   int                 `json:"limit,omitempty"`
}

type runQueryRequest struct {
	StructuredQuery structuredQuery `json:"structuredQuery"`
}

type runQueryResult struct {
	Document *Document `json:"document"`
}

func (q Query) build() structuredQuery {
	sq := structuredQuery{From: []map[string]string{{"collectionId": q.Collection}}, Limit: q.Limit}
	var filters []filter
	for field, value := range q.Equal {
		filters = append(filters, filter{FieldFilter: &fieldFilter{Field: fieldRef{field}, Op: "EQUAL", Value: EncodeValue(value)}})
	}
	switch len(filters) {
	case 0:
	case 1:
		sq.Where = &filters[0]
	default:
		sq.Where = &filter{CompositeFilter: &compositeFilter{Op: "AND", Filters: filters}}
	}
	if q.OrderBy != "" {
		dir := "ASCENDING"
		if q.Descending {
			dir = "DESCENDING"
		}
		sq.OrderBy = []order{{Field: fieldRef{q.OrderBy}, Direction: dir}}
	}
	return sq
}

// RunQuery runs a structured query and returns the matching records.
func (c *Client) RunQuery(ctx context.Context, q Query) ([]map[string]any, error) {
	var results []runQueryResult
	if err := c.Request(ctx, http.MethodPost, ":runQuery", runQueryRequest{StructuredQuery: q.build()}, &results); err != nil {
		return nil, err
	}
	records := make([]map[string]any, 0, len(results))
	for _, r := range results {
		if r.Document == nil {
			continue
		}
		records = append(records, DecodeDocument(*r.Document, c.logger))
	}
	return records, nil
}

// QueryEqual returns the documents of collection whose field equals value.
func (c *Client) QueryEqual(ctx context.Context, collection, field string, value any) ([]map[string]any, error) {
	return c.RunQuery(ctx, Query{Collection: collection, Equal: map[string]any{field: value}})
}
