// Package settings persists the user-editable settings document: which backend
// is active, remote credentials, and local paths.
package settings

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Backend names the store serving repository calls.
type Backend string

const (
	BackendLocal  Backend = "local"
	BackendRemote Backend = "remote"
)

// Recognized keys.
const (
	KeyDataSource        = "data_source"
	KeyRemoteProjectID   = "remote.project_id"
	KeyRemoteEmail       = "remote.email"
	KeyRemotePassword    = "remote.password"
	KeyRemoteAPIKey      = "remote.api_key"
	KeyLocalDatabasePath = "local.database_path"
	KeyBackupFolder      = "backup.folder"
	KeyLastMigrationDate = "migration.last_migration_date"
	KeyMigrationSource   = "migration.source_path"
)

// DefaultPath is where the settings document lives unless configured otherwise.
const DefaultPath = "settings.json"

// RemoteCredentials are the four values needed to talk to the remote store.
type RemoteCredentials struct {
	ProjectID string `json:"project_id"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	APIKey    string `json:"api_key"`
}

// Complete reports whether every field is non-empty.
func (c RemoteCredentials) Complete() bool {
	return c.ProjectID != "" && c.Email != "" && c.Password != "" && c.APIKey != ""
}

// Missing lists the empty fields by key.
func (c RemoteCredentials) Missing() []string {
	var missing []string
	for key, val := range map[string]string{
		KeyRemoteProjectID: c.ProjectID,
		KeyRemoteEmail:     c.Email,
		KeyRemotePassword:  c.Password,
		KeyRemoteAPIKey:    c.APIKey,
	} {
		if val == "" {
			missing = append(missing, key)
		}
	}
	return missing
}

// Defaults returns the default document as flat dotted keys.
func Defaults() map[string]any {
	return map[string]any{
		KeyDataSource:        string(BackendLocal),
		KeyRemoteProjectID:   "",
		KeyRemoteEmail:       "",
		KeyRemotePassword:    "",
		KeyRemoteAPIKey:      "",
		KeyLocalDatabasePath: filepath.Join("data", "rental.db"),
		KeyBackupFolder:      "backups",
		KeyLastMigrationDate: "",
		KeyMigrationSource:   "",
	}
}

// Store is the settings document. Loaded values are layered over Defaults,
// so keys added in newer versions appear without breaking older files.
type Store struct {
	mu     sync.RWMutex
	v      *viper.Viper
	path   string
	logger *slog.Logger
}

// Load reads the document at path. A missing file is created with defaults;
// an unreadable one is logged and defaults are used.
func Load(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "" {
		path = DefaultPath
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	for key, val := range Defaults() {
		v.SetDefault(key, val)
	}
	s := &Store{v: v, path: path, logger: logger.With(slog.String("component", "settings"))}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		s.logger.Info("Settings file not found, writing defaults", slog.String("path", path))
		_ = s.Save()
		return s, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat settings file %s: %w", path, err)
	}

	if err := v.ReadInConfig(); err != nil {
		s.logger.Warn("Failed to read settings file, using defaults", slog.String("path", path), slog.String("error", err.Error()))
	}
	return s, nil
}

// Path returns the file backing the store.
func (s *Store) Path() string { return s.path }

// Get returns the value at a dotted path, or def when the path is unknown.
func (s *Store) Get(path string, def any) any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.v.IsSet(path) {
		return def
	}
	return s.v.Get(path)
}

// GetString is Get for string values.
func (s *Store) GetString(path string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.v.GetString(path)
}

// Set stores value at a dotted path in memory. Call Save to persist.
func (s *Store) Set(path string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.v.Set(path, value)
}

// Save writes the merged document. Failures are logged and returned; readers may ignore them.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			s.logger.Error("Failed to create settings directory", slog.String("path", s.path), slog.String("error", err.Error()))
			return fmt.Errorf("failed to create settings directory: %w", err)
		}
	}
	if err := s.v.WriteConfigAs(s.path); err != nil {
		s.logger.Error("Failed to save settings", slog.String("path", s.path), slog.String("error", err.Error()))
		return fmt.Errorf("failed to save settings to %s: %w", s.path, err)
	}
	return nil
}

// DataSource returns the selected backend. Unknown values fall back to local.
func (s *Store) DataSource() Backend {
	switch Backend(strings.ToLower(s.GetString(KeyDataSource))) {
	case BackendRemote:
		return BackendRemote
	default:
		return BackendLocal
	}
}

// SetDataSource selects the backend.
func (s *Store) SetDataSource(b Backend) { s.Set(KeyDataSource, string(b)) }

// RemoteCredentials returns the configured remote credentials.
func (s *Store) RemoteCredentials() RemoteCredentials {
	return RemoteCredentials{
		ProjectID: s.GetString(KeyRemoteProjectID),
		Email:     s.GetString(KeyRemoteEmail),
		Password:  s.GetString(KeyRemotePassword),
		APIKey:    s.GetString(KeyRemoteAPIKey),
	}
}

// SetRemoteCredentials replaces all four credential fields.
func (s *Store) SetRemoteCredentials(c RemoteCredentials) {
	s.Set(KeyRemoteProjectID, c.ProjectID)
	s.Set(KeyRemoteEmail, c.Email)
	s.Set(KeyRemotePassword, c.Password)
	s.Set(KeyRemoteAPIKey, c.APIKey)
}

// IsRemoteConfigured reports whether all four credentials are present.
func (s *Store) IsRemoteConfigured() bool {
	return s.RemoteCredentials().Complete()
}

// LocalDBPath returns the local database file path.
func (s *Store) LocalDBPath() string { return s.GetString(KeyLocalDatabasePath) }

// BackupFolder returns the folder backups are written to.
func (s *Store) BackupFolder() string { return s.GetString(KeyBackupFolder) }

// RecordMigration stores when and from where the last migration ran.
func (s *Store) RecordMigration(date, sourcePath string) {
	s.Set(KeyLastMigrationDate, date)
	s.Set(KeyMigrationSource, sourcePath)
}

// Watch calls onChange after the file changes on disk.
func (s *Store) Watch(onChange func(*Store)) {
	s.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		s.logger.Info("Settings file changed", slog.String("path", e.Name), slog.String("op", e.Op.String()))
		onChange(s)
	})
	s.v.WatchConfig()
}
