// Package idmap records which remote document each migrated local row became.
package idmap

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/SscSPs/rental_backoffice_app/internal/apperrors"
)

// ErrAlreadyMapped is returned when a key is re-added with a different remote id.
var ErrAlreadyMapped = errors.New("mapping already recorded with a different remote id")

// Key builds the composite "{table}_{local_id}" key.
func Key(table string, localID any) string {
	return fmt.Sprintf("%s_%v", table, localID)
}

// Mapper is an append-only (table, local id) -> remote id map persisted as a flat JSON object.
type Mapper struct {
	mu      sync.RWMutex
	path    string
	entries map[string]string
	logger  *slog.Logger
}

// New creates a mapper backed by path, loading prior content if the file exists.
func New(path string, logger *slog.Logger) (*Mapper, error) {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Mapper{path: path, entries: map[string]string{}, logger: logger}
	if path == "" {
		return m, nil
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return m, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read id mapping %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, &m.entries); err != nil {
		return nil, fmt.Errorf("%w: id mapping %s is not a JSON object: %v", apperrors.ErrValidation, path, err)
	}
	if m.entries == nil {
		m.entries = map[string]string{}
	}
	return m, nil
}

// Add records a mapping. Re-adding the same value is a no-op; a different value is refused.
func (m *Mapper) Add(table string, localID any, remoteID string) error {
	key := Key(table, localID)
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.entries[key]; ok {
		if existing == remoteID {
			return nil
		}
		m.logger.Warn("Refusing to overwrite id mapping",
			slog.String("key", key), slog.String("existing", existing), slog.String("new", remoteID))
		return fmt.Errorf("%w: %s -> %s (have %s)", ErrAlreadyMapped, key, remoteID, existing)
	}
	m.entries[key] = remoteID
	return nil
}

// Lookup returns the remote id for (table, localID).
func (m *Mapper) Lookup(table string, localID any) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.entries[Key(table, localID)]
	return id, ok
}

// All returns a copy of every mapping.
func (m *Mapper) All() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.entries))
	for k, v := range m.entries {
		out[k] = v
	}
	return out
}

// Len returns the number of mappings.
func (m *Mapper) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Clear forgets every mapping in memory. Call Save to persist the empty map.
func (m *Mapper) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = map[string]string{}
}

// Save writes the mapping to its file.
func (m *Mapper) Save() error {
	return m.SaveAs(m.path)
}

// SaveAs writes the mapping to path, creating parent directories. The file is replaced
// in one rename so a failed save leaves the previous mapping intact.
func (m *Mapper) SaveAs(path string) error {
	if path == "" {
		return apperrors.NewValidationError("id mapping has no file path")
	}
	m.mu.RLock()
	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	ordered := make(map[string]string, len(keys))
	for _, k := range keys {
		ordered[k] = m.entries[k]
	}
	m.mu.RUnlock()

	raw, err := json.MarshalIndent(ordered, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode id mapping: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create id mapping directory: %w", err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, raw, 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write id mapping %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace id mapping %s: %w", path, err)
	}
	return nil
}
