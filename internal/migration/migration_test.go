package migration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SscSPs/rental_backoffice_app/internal/apperrors"
	"github.com/SscSPs/rental_backoffice_app/internal/migration"
	"github.com/SscSPs/rental_backoffice_app/internal/remote"
	"github.com/SscSPs/rental_backoffice_app/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTarget is an in-memory document store.
type fakeTarget struct {
	mu        sync.Mutex
	docs      map[string]map[string]map[string]any
	commits   int
	queries   int
	commitErr error
	uploads   map[string][]byte
	onQuery   func(n int)
}

func newFakeTarget() *fakeTarget {
	return &fakeTarget{docs: map[string]map[string]map[string]any{}, uploads: map[string][]byte{}}
}

func (f *fakeTarget) ProjectID() string { return "demo" }

func (f *fakeTarget) QueryEqual(ctx context.Context, collection, field string, value any) ([]map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries++
	if f.onQuery != nil {
		f.onQuery(f.queries)
	}
	var out []map[string]any
	for _, d := range f.docs[collection] {
		if fmt.Sprint(d[field]) == fmt.Sprint(value) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeTarget) Commit(ctx context.Context, writes ...remote.Write) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.commitErr != nil {
		return f.commitErr
	}
	f.commits++
	for _, w := range writes {
		if f.docs[w.Collection] == nil {
			f.docs[w.Collection] = map[string]map[string]any{}
		}
		f.docs[w.Collection][w.ID] = w.Fields
	}
	return nil
}

func (f *fakeTarget) UploadObject(_ context.Context, name, contentType string, data []byte) (*remote.Object, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads[name] = data
	return &remote.Object{Name: name, ContentType: contentType, Size: fmt.Sprint(len(data))}, nil
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newStore(t *testing.T) *database.Store {
	t.Helper()
	store, err := database.OpenMemory(discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.EnsureSchema(context.Background()))
	return store
}

func seedCategories(t *testing.T, store *database.Store, n int) {
	t.Helper()
	ctx := context.Background()
	for i := 1; i <= n; i++ {
		_, err := store.Execute(ctx, "INSERT INTO categories (id, name) VALUES (?, ?)", i, fmt.Sprintf("cat-%04d", i))
		require.NoError(t, err)
	}
}

func readSummary(t *testing.T, dir string) map[string]any {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join(dir, migration.SummaryFile))
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestRun_DryRunTwiceWritesNothing(t *testing.T) {
	store := newStore(t)
	seedCategories(t, store, 1200)
	target := newFakeTarget()

	for run := 1; run <= 2; run++ {
		out := t.TempDir()
		engine := migration.New(store, target, migration.Options{DryRun: true, OutputDir: out}, discard())

		result, err := engine.Run(context.Background(), nil, nil)
		require.NoError(t, err, "run %d", run)
		assert.Equal(t, 1200, result.Stats.Migrated, "run %d", run)
		assert.Zero(t, result.Stats.Errors)
		assert.Zero(t, result.Stats.Conflicts)
		assert.Zero(t, target.commits)
		assert.Empty(t, target.docs)

		summary := readSummary(t, out)
		assert.Equal(t, true, summary["dry_run"])
		assert.Equal(t, "demo", summary["project"])
		stats := summary["statistics"].(map[string]any)
		assert.EqualValues(t, 1200, stats["migrated"])
		assert.FileExists(t, filepath.Join(out, migration.LogFile))
		assert.FileExists(t, filepath.Join(out, migration.MappingFile))
	}
}

func TestRun_IsIdempotent(t *testing.T) {
	store := newStore(t)
	seedCategories(t, store, 1200)
	target := newFakeTarget()
	ctx := context.Background()

	first, err := migration.New(store, target, migration.Options{OutputDir: t.TempDir()}, discard()).Run(ctx, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1200, first.Stats.Migrated)
	assert.Equal(t, 3, target.commits, "one commit per batch of 500")

	second, err := migration.New(store, target, migration.Options{OutputDir: t.TempDir()}, discard()).Run(ctx, nil, nil)
	require.NoError(t, err)
	assert.Zero(t, second.Stats.Migrated)
	assert.Equal(t, first.Stats.Migrated, second.Stats.Conflicts)
	assert.Equal(t, 3, target.commits)
}

func TestRun_DocumentsCarryColumnsAndProvenance(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	_, err := store.Execute(ctx, "INSERT INTO projects (id, name, currency) VALUES (1, 'Norte', 'RD$')")
	require.NoError(t, err)
	_, err = store.Execute(ctx, `INSERT INTO transactions (id, project_id, account_id, category_id, kind, amount, date)
		VALUES ('0123456789abcdef0123456789abcdef', 1, 1, 1, 'Income', 10000, '2025-01-15')`)
	require.NoError(t, err)

	target := newFakeTarget()
	stamp := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	engine := migration.New(store, target, migration.Options{
		Tables: []string{"transactions", "projects"}, OutputDir: t.TempDir(), MigratedBy: "ops@example.com",
	}, discard(), migration.WithClock(func() time.Time { return stamp }))

	result, err := engine.Run(ctx, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Stats.Migrated)

	for _, table := range []string{"projects", "transactions"} {
		cols, err := store.ColumnsOf(ctx, table)
		require.NoError(t, err)
		want := append(cols, migration.FieldOriginalLocalID, migration.FieldMigratedAt, migration.FieldMigratedBy, migration.FieldSourceTable)
		sort.Strings(want)

		require.Len(t, target.docs[table], 1, table)
		for _, doc := range target.docs[table] {
			got := make([]string, 0, len(doc))
			for k := range doc {
				got = append(got, k)
			}
			sort.Strings(got)
			assert.Equal(t, want, got, table)
			assert.Equal(t, table, doc[migration.FieldSourceTable])
			assert.Equal(t, "ops@example.com", doc[migration.FieldMigratedBy])
			assert.True(t, strings.HasPrefix(doc[migration.FieldMigratedAt].(string), "2025-03-01T12:00:00"))
		}
	}
	assert.Contains(t, target.docs["projects"], "1")
	assert.Contains(t, target.docs["transactions"], "0123456789abcdef0123456789abcdef")

	remoteID, ok := engine.Mapper().Lookup("projects", int64(1))
	require.True(t, ok)
	assert.Equal(t, "1", remoteID)
}

func TestRun_CommitFailureCountsErrorsAndContinues(t *testing.T) {
	store := newStore(t)
	seedCategories(t, store, 3)
	target := newFakeTarget()
	target.commitErr = fmt.Errorf("commit: %w", apperrors.ErrRemote)

	result, err := migration.New(store, target, migration.Options{OutputDir: t.TempDir()}, discard()).Run(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Stats.Errors)
	assert.Zero(t, result.Stats.Migrated)
	assert.Equal(t, 3, result.Tables["categories"].Errors)
}

func TestRun_StopsBetweenBatches(t *testing.T) {
	store := newStore(t)
	seedCategories(t, store, 1200)
	target := newFakeTarget()
	out := t.TempDir()

	var percents []int
	progress := func(pct int, _ string) { percents = append(percents, pct) }
	stop := func() bool { return target.commits >= 1 }

	result, err := migration.New(store, target, migration.Options{OutputDir: out}, discard()).Run(context.Background(), progress, stop)
	require.ErrorIs(t, err, apperrors.ErrCancelled)
	require.NotNil(t, result)
	assert.True(t, result.Cancelled)
	assert.Equal(t, 500, result.Stats.Migrated)
	assert.Len(t, target.docs["categories"], 500)
	assert.Equal(t, true, readSummary(t, out)["cancelled"])
	assert.Contains(t, percents, 41)
}

func TestRun_StopMidBatchFlushesBatch(t *testing.T) {
	store := newStore(t)
	seedCategories(t, store, 10)
	target := newFakeTarget()
	out := t.TempDir()

	var stop atomic.Bool
	target.onQuery = func(n int) {
		if n == 3 {
			stop.Store(true)
		}
	}

	result, err := migration.New(store, target, migration.Options{OutputDir: out, BatchSize: 4}, discard()).
		Run(context.Background(), nil, stop.Load)
	require.ErrorIs(t, err, apperrors.ErrCancelled)
	require.NotNil(t, result)
	assert.True(t, result.Cancelled)
	assert.Equal(t, 1, target.commits)
	assert.Equal(t, 4, result.Stats.Migrated)
	assert.Zero(t, result.Stats.Errors)
	assert.Len(t, target.docs["categories"], 4)
	assert.Equal(t, true, readSummary(t, out)["cancelled"])
}

func TestRun_UploadsAttachments(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "conduce.pdf"), []byte("%PDF-1.4 test"), 0o644))
	for i, path := range []string{"conduce.pdf", "missing.pdf"} {
		_, err := store.Execute(ctx, `INSERT INTO transactions (id, project_id, account_id, category_id, kind, amount, date, attachment_path)
			VALUES (?, 1, 1, 1, 'Income', 100, '2025-01-15', ?)`, fmt.Sprintf("%032d", i+1), path)
		require.NoError(t, err)
	}

	target := newFakeTarget()
	out := t.TempDir()
	result, err := migration.New(store, target, migration.Options{
		Tables: []string{"transactions"}, UploadAttachments: true, AttachmentsRoot: root, OutputDir: out,
	}, discard()).Run(ctx, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Stats.Migrated)

	require.Len(t, target.uploads, 1)
	name := "projects/1/transactions/" + fmt.Sprintf("%032d", 1) + "/conduce.pdf"
	assert.Equal(t, []byte("%PDF-1.4 test"), target.uploads[name])

	logText, err := os.ReadFile(filepath.Join(out, migration.LogFile))
	require.NoError(t, err)
	assert.Contains(t, string(logText), "Attachment missing, skipped")
	assert.Contains(t, string(logText), "blake2b")
}

func TestRun_UnknownTable(t *testing.T) {
	store := newStore(t)
	_, err := migration.New(store, newFakeTarget(), migration.Options{Tables: []string{"nope"}, OutputDir: t.TempDir()}, discard()).
		Run(context.Background(), nil, nil)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
