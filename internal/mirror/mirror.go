// Package mirror copies remote collections into a local store.
//
// With the remote backend active, screens that still read the local store directly
// are served from an in-memory copy. Essential collections are mirrored at startup;
// the rest are pulled once, on first use. The same copy procedure writes backups.
package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/SscSPs/rental_backoffice_app/internal/apperrors"
	"github.com/SscSPs/rental_backoffice_app/internal/core/domain"
	portsrepo "github.com/SscSPs/rental_backoffice_app/internal/core/ports/repositories"
	"github.com/SscSPs/rental_backoffice_app/internal/remote"
	"github.com/SscSPs/rental_backoffice_app/internal/utils"
	"github.com/SscSPs/rental_backoffice_app/pkg/database"
)

// DefaultPace is the pause between collections.
const DefaultPace = 300 * time.Millisecond

// EssentialCollections are mirrored at startup.
var EssentialCollections = []string{
	database.TableProjects,
	database.TableCategories,
	database.TableSubcategories,
	database.TableAccounts,
	database.TableEquipment,
	database.TableEntities,
	database.TableTransactions,
	database.TableRentalMeta,
}

// DeferredCollections are mirrored on first access.
var DeferredCollections = []string{
	database.TablePayments,
	database.TableMaintenance,
}

// Report lists how many documents each collection contributed and which collections failed.
type Report struct {
	Rows   map[string]int    `json:"rows"`
	Failed map[string]string `json:"failed,omitempty"`
}

type Engine struct {
	source portsrepo.DocumentSource
	target *database.Store
	logger *slog.Logger
	pace   time.Duration
	sleep  func(context.Context, time.Duration) error

	mu       sync.Mutex
	loaded   map[string]bool
	loading  map[string]chan struct{}
	onBounds []func(domain.DateBounds)
}

type Option func(*Engine)

// WithPace sets the pause between collections; zero disables pacing.
func WithPace(d time.Duration) Option { return func(e *Engine) { e.pace = d } }

// WithSleep replaces the pacing sleep.
func WithSleep(fn func(context.Context, time.Duration) error) Option {
	return func(e *Engine) { e.sleep = fn }
}

func New(source portsrepo.DocumentSource, target *database.Store, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		source:  source,
		target:  target,
		logger:  logger.With(slog.String("component", "mirror")),
		pace:    DefaultPace,
		sleep:   sleepCtx,
		loaded:  make(map[string]bool),
		loading: make(map[string]chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// OnDateBounds registers fn to receive the transaction date range after each startup mirror.
func (e *Engine) OnDateBounds(fn func(domain.DateBounds)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onBounds = append(e.onBounds, fn)
}

// Loaded reports whether collection has been mirrored.
func (e *Engine) Loaded(collection string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loaded[collection]
}

// SyncEssential mirrors the startup collections and then notifies date-bounds listeners.
func (e *Engine) SyncEssential(ctx context.Context, progress func(int, string), shouldStop func() bool) (*Report, error) {
	report, err := e.Sync(ctx, EssentialCollections, progress, shouldStop)
	if err != nil {
		return report, err
	}
	minDate, maxDate, err := e.target.DateBounds(ctx)
	if err != nil {
		e.logger.Warn("Could not read mirrored date bounds", slog.String("error", err.Error()))
		return report, nil
	}
	bounds := domain.DateBounds{MinDate: minDate, MaxDate: maxDate}
	e.mu.Lock()
	listeners := append(([]func(domain.DateBounds))(nil), e.onBounds...)
	e.mu.Unlock()
	for _, fn := range listeners {
		fn(bounds)
	}
	return report, nil
}

// EnsureLoaded mirrors each collection that has not been mirrored yet. Collections already
// loaded are not fetched again.
func (e *Engine) EnsureLoaded(ctx context.Context, collections ...string) (*Report, error) {
	var pending []string
	e.mu.Lock()
	for _, c := range collections {
		if !e.loaded[c] {
			pending = append(pending, c)
		}
	}
	e.mu.Unlock()
	if len(pending) == 0 {
		return &Report{Rows: map[string]int{}}, nil
	}
	return e.sync(ctx, pending, nil, nil, false)
}

// Sync mirrors collections in order, pausing between them. A failing collection is logged
// and recorded in the report; the rest still run. shouldStop is polled between collections.
func (e *Engine) Sync(ctx context.Context, collections []string, progress func(int, string), shouldStop func() bool) (*Report, error) {
	return e.sync(ctx, collections, progress, shouldStop, true)
}

func (e *Engine) sync(ctx context.Context, collections []string, progress func(int, string), shouldStop func() bool, force bool) (*Report, error) {
	if progress == nil {
		progress = func(int, string) {}
	}
	report := &Report{Rows: make(map[string]int, len(collections)), Failed: map[string]string{}}
	for i, collection := range collections {
		if i > 0 && e.pace > 0 {
			if err := e.sleep(ctx, e.pace); err != nil {
				return report, err
			}
		}
		if shouldStop != nil && shouldStop() {
			return report, apperrors.ErrCancelled
		}
		progress(i*100/len(collections), "Syncing "+collection)

		n, mirrored, err := e.load(ctx, collection, force)
		if err != nil {
			e.logger.Error("Mirroring collection failed", slog.String("collection", collection), slog.String("error", err.Error()))
			report.Failed[collection] = err.Error()
			continue
		}
		if mirrored {
			report.Rows[collection] = n
		}
	}
	progress(100, "Sync complete")
	return report, nil
}

// load mirrors collection, waiting first for any mirror of it already in flight. Without
// force, a collection that is already loaded is not fetched again.
func (e *Engine) load(ctx context.Context, collection string, force bool) (int, bool, error) {
	e.mu.Lock()
	for {
		if !force && e.loaded[collection] {
			e.mu.Unlock()
			return 0, false, nil
		}
		busy, ok := e.loading[collection]
		if !ok {
			break
		}
		e.mu.Unlock()
		select {
		case <-busy:
		case <-ctx.Done():
			return 0, false, ctx.Err()
		}
		e.mu.Lock()
	}
	done := make(chan struct{})
	e.loading[collection] = done
	e.mu.Unlock()

	n, err := e.MirrorCollection(ctx, collection)

	e.mu.Lock()
	delete(e.loading, collection)
	if err == nil {
		e.loaded[collection] = true
	}
	e.mu.Unlock()
	close(done)
	return n, true, err
}

// MirrorCollection copies one collection into the table of the same name and returns the row count.
func (e *Engine) MirrorCollection(ctx context.Context, collection string) (int, error) {
	info, err := e.target.ColumnInfo(ctx, collection)
	if err != nil {
		return 0, err
	}
	if len(info) == 0 {
		return 0, fmt.Errorf("no local table %q", collection)
	}
	docs, err := e.source.ListDocuments(ctx, collection)
	if err != nil {
		return 0, err
	}

	columns := make([]string, len(info))
	textual := make(map[string]bool, len(info))
	for i, c := range info {
		columns[i] = c.Name
		textual[c.Name] = strings.Contains(strings.ToUpper(c.Type), "TEXT")
	}
	names := utils.ColumnNameMap(columns)

	written := 0
	for _, doc := range docs {
		row := Row(doc, names, textual)
		if len(row) == 0 {
			continue
		}
		if err := e.target.InsertOrReplace(ctx, collection, row); err != nil {
			return written, err
		}
		written++
	}
	e.logger.Debug("Collection mirrored", slog.String("collection", collection), slog.Int("rows", written))
	return written, nil
}

// Row converts a document into a local row. Keys starting with "_" and keys matching no
// column are dropped; id columns holding integer strings become integers unless the column is TEXT.
func Row(doc map[string]any, names map[string]string, textual map[string]bool) database.Row {
	row := make(database.Row, len(doc))
	for key, v := range doc {
		if strings.HasPrefix(key, "_") {
			continue
		}
		col, ok := names[key]
		if !ok {
			continue
		}
		if _, exact := doc[col]; exact && key != col {
			continue
		}
		row[col] = localValue(col, v, textual[col])
	}
	return row
}

func localValue(col string, v any, textual bool) any {
	switch x := v.(type) {
	case string:
		if !textual && utils.IsIDColumn(col) {
			if n, err := strconv.ParseInt(x, 10, 64); err == nil {
				return n
			}
		}
		return x
	case bool:
		if x {
			return int64(1)
		}
		return int64(0)
	case remote.Raw, map[string]any, []any:
		raw, err := json.Marshal(x)
		if err != nil {
			return nil
		}
		return string(raw)
	default:
		return v
	}
}

// Copy writes every listed collection of source into target without pacing. Backups use it
// with either backend as the source.
func Copy(ctx context.Context, source portsrepo.DocumentSource, target *database.Store, collections []string, logger *slog.Logger, progress func(int, string), shouldStop func() bool) (*Report, error) {
	return New(source, target, logger, WithPace(0)).Sync(ctx, collections, progress, shouldStop)
}
