package migration

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/SscSPs/rental_backoffice_app/internal/remote"
	"github.com/SscSPs/rental_backoffice_app/pkg/database"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

type pendingDoc struct {
	localID any
	docID   string
	fields  map[string]any
	row     database.Row
}

// migrateTable processes one table batch by batch. The second result reports
// that shouldStop fired after a batch was flushed.
func (e *Engine) migrateTable(ctx context.Context, table string, count int, report func(int, string), shouldStop func() bool) (Stats, bool) {
	stats := Stats{Total: count}
	pk, err := e.source.PrimaryKeyOf(ctx, table)
	if err != nil {
		stats.Errors = count
		e.note("Cannot read primary key of %s: %v", table, err)
		report(count, table+": failed")
		return stats, false
	}

	size := e.opts.BatchSize
	for offset := 0; offset < count; offset += size {
		expected := min(size, count-offset)
		rows, err := e.source.FetchBatch(ctx, table, size, offset)
		if err != nil {
			stats.Errors += expected
			e.note("Reading %s at offset %d failed: %v", table, offset, err)
			report(expected, fmt.Sprintf("%s: batch at %d failed", table, offset))
			continue
		}
		if len(rows) == 0 {
			break
		}

		pending := make([]pendingDoc, 0, len(rows))
		for _, row := range rows {
			doc, ok := e.prepare(ctx, table, pk, row, &stats)
			if ok {
				pending = append(pending, doc)
			}
		}
		e.flush(ctx, table, pending, &stats)
		report(len(rows), fmt.Sprintf("%s: %d/%d", table, offset+len(rows), count))

		if shouldStop() {
			return stats, true
		}
	}
	return stats, false
}

// prepare checks a row for an existing remote copy and builds its document.
func (e *Engine) prepare(ctx context.Context, table, pk string, row database.Row, stats *Stats) (pendingDoc, bool) {
	key := pk
	if key == "" {
		key = "id"
	}
	localID, ok := row[key]
	if !ok || localID == nil {
		stats.Skipped++
		e.note("Skipping %s row without %s", table, key)
		return pendingDoc{}, false
	}
	if b, isBytes := localID.([]byte); isBytes {
		localID = string(b)
	}

	existing, err := e.target.QueryEqual(ctx, table, FieldOriginalLocalID, localID)
	if err != nil {
		stats.Errors++
		e.note("Conflict check for %s %v failed: %v", table, localID, err)
		return pendingDoc{}, false
	}
	if len(existing) > 0 {
		stats.Conflicts++
		e.logger.Debug("Already migrated, skipping", slog.String("table", table), slog.Any("local_id", localID))
		return pendingDoc{}, false
	}

	docID, mapped := e.mapper.Lookup(table, localID)
	if !mapped {
		docID = documentID(localID)
	}
	return pendingDoc{localID: localID, docID: docID, fields: e.document(table, localID, row), row: row}, true
}

// documentID keeps the local id as the document id when it is usable as one.
func documentID(localID any) string {
	id := fmt.Sprint(localID)
	if id == "" || strings.ContainsAny(id, "/") || id == "." || id == ".." {
		return strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	return id
}

// document copies every column verbatim and adds the provenance fields.
func (e *Engine) document(table string, localID any, row database.Row) map[string]any {
	fields := make(map[string]any, len(row)+4)
	for k, v := range row {
		if b, ok := v.([]byte); ok {
			v = string(b)
		}
		fields[k] = v
	}
	fields[FieldOriginalLocalID] = localID
	fields[FieldMigratedAt] = e.now().UTC().Format("2006-01-02T15:04:05.000000Z07:00")
	fields[FieldMigratedBy] = e.opts.MigratedBy
	fields[FieldSourceTable] = table
	return fields
}

// flush commits one batch. A failed commit counts every row in it as an error
// and leaves the table running.
func (e *Engine) flush(ctx context.Context, table string, pending []pendingDoc, stats *Stats) {
	if len(pending) == 0 {
		return
	}
	if e.opts.DryRun {
		for _, p := range pending {
			e.record(table, p)
			e.attachments(ctx, table, p)
		}
		stats.Migrated += len(pending)
		e.note("[dry-run] Would commit %d documents to %s", len(pending), table)
		return
	}

	writes := make([]remote.Write, len(pending))
	for i, p := range pending {
		writes[i] = remote.Upsert(table, p.docID, p.fields)
	}
	if err := e.target.Commit(ctx, writes...); err != nil {
		stats.Errors += len(pending)
		e.note("Commit of %d documents to %s failed: %v", len(pending), table, err)
		return
	}
	stats.Migrated += len(pending)
	e.note("Committed %d documents to %s", len(pending), table)
	for _, p := range pending {
		e.record(table, p)
		e.attachments(ctx, table, p)
	}
}

func (e *Engine) record(table string, p pendingDoc) {
	if err := e.mapper.Add(table, p.localID, p.docID); err != nil {
		e.note("Mapping for %s %v not recorded: %v", table, p.localID, err)
	}
}

// attachments uploads every non-empty *_path column of a migrated row.
func (e *Engine) attachments(ctx context.Context, table string, p pendingDoc) {
	if !e.opts.UploadAttachments {
		return
	}
	for col, v := range p.row {
		if !strings.HasSuffix(col, "_path") {
			continue
		}
		src, _ := v.(string)
		if src == "" {
			continue
		}
		e.uploadAttachment(ctx, table, p, src)
	}
}

func (e *Engine) uploadAttachment(ctx context.Context, table string, p pendingDoc, src string) {
	if !filepath.IsAbs(src) && e.opts.AttachmentsRoot != "" {
		src = filepath.Join(e.opts.AttachmentsRoot, src)
	}
	data, err := os.ReadFile(src)
	if errors.Is(err, os.ErrNotExist) {
		e.note("Attachment missing, skipped: %s", src)
		return
	}
	if err != nil {
		e.note("Attachment unreadable, skipped: %s: %v", src, err)
		return
	}

	project := "unassigned"
	if pid, ok := p.row["project_id"]; ok && pid != nil {
		project = fmt.Sprint(pid)
	}
	name := path.Join("projects", project, table, p.docID, filepath.Base(src))
	sum := blake2b.Sum256(data)
	digest := hex.EncodeToString(sum[:])

	if e.opts.DryRun {
		e.note("[dry-run] Would upload %s (%d bytes, blake2b %s)", name, len(data), digest)
		return
	}
	if _, err := e.target.UploadObject(ctx, name, mimetype.Detect(data).String(), data); err != nil {
		e.note("Upload of %s failed: %v", name, err)
		return
	}
	e.note("Uploaded %s (%d bytes, blake2b %s)", name, len(data), digest)
}
