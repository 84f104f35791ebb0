package migration

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	MappingFile = "mapping.json"
	LogFile     = "migration_log.txt"
	SummaryFile = "migration_summary.json"
)

// Artifacts are the files a run leaves in the output directory.
type Artifacts struct {
	Mapping string
	Log     string
	Summary string
}

// runLog collects "[YYYY-MM-DD HH:MM:SS] message" lines.
type runLog struct {
	mu    sync.Mutex
	now   func() time.Time
	lines []string
}

func (l *runLog) add(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, fmt.Sprintf("[%s] %s", l.now().Format("2006-01-02 15:04:05"), msg))
}

func (l *runLog) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return strings.Join(l.lines, "\n") + "\n"
}

type summary struct {
	Timestamp     string `json:"timestamp"`
	DryRun        bool   `json:"dry_run"`
	Cancelled     bool   `json:"cancelled"`
	Database      string `json:"database"`
	Project       string `json:"project"`
	Statistics    Stats  `json:"statistics"`
	TotalMappings int    `json:"total_mappings"`
}

func (e *Engine) writeArtifacts(result *Result) (Artifacts, error) {
	if err := os.MkdirAll(e.opts.OutputDir, 0o755); err != nil {
		return Artifacts{}, fmt.Errorf("failed to create migration output dir: %w", err)
	}
	a := Artifacts{
		Mapping: filepath.Join(e.opts.OutputDir, MappingFile),
		Log:     filepath.Join(e.opts.OutputDir, LogFile),
		Summary: filepath.Join(e.opts.OutputDir, SummaryFile),
	}
	if err := e.mapper.SaveAs(a.Mapping); err != nil {
		return a, err
	}
	if err := os.WriteFile(a.Log, []byte(e.log.String()), 0o644); err != nil {
		return a, fmt.Errorf("failed to write migration log: %w", err)
	}
	raw, err := json.MarshalIndent(summary{
		Timestamp:     e.now().Format(time.RFC3339),
		DryRun:        result.DryRun,
		Cancelled:     result.Cancelled,
		Database:      e.source.Path(),
		Project:       e.target.ProjectID(),
		Statistics:    result.Stats,
		TotalMappings: result.Mappings,
	}, "", "  ")
	if err != nil {
		return a, fmt.Errorf("failed to encode migration summary: %w", err)
	}
	if err := os.WriteFile(a.Summary, raw, 0o644); err != nil {
		return a, fmt.Errorf("failed to write migration summary: %w", err)
	}
	return a, nil
}
