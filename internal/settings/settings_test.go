package settings_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/SscSPs/rental_backoffice_app/internal/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readJSON(t *testing.T, path string) map[string]any {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	return doc
}

func TestLoad_MissingFileWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")

	s, err := settings.Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, settings.BackendLocal, s.DataSource())
	assert.False(t, s.IsRemoteConfigured())
	assert.Equal(t, "backups", s.BackupFolder())

	doc := readJSON(t, path)
	assert.Equal(t, "local", doc["data_source"])
	remote, ok := doc["remote"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, remote, "api_key")
}

func TestLoad_DeepMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"data_source":"remote","remote":{"email":"ops@example.com"}}`), 0o644))

	s, err := settings.Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, settings.BackendRemote, s.DataSource())
	assert.Equal(t, "ops@example.com", s.RemoteCredentials().Email)
	assert.Equal(t, "", s.Get(settings.KeyRemoteProjectID, "fallback"))
	assert.Equal(t, "backups", s.BackupFolder())
	assert.Equal(t, "fallback", s.Get("no.such.key", "fallback"))
	assert.False(t, s.IsRemoteConfigured())
}

func TestIsRemoteConfigured_RequiresAllFour(t *testing.T) {
	s, err := settings.Load(filepath.Join(t.TempDir(), "settings.json"), nil)
	require.NoError(t, err)

	creds := settings.RemoteCredentials{ProjectID: "p", Email: "e", Password: "pw", APIKey: "k"}
	s.SetRemoteCredentials(creds)
	assert.True(t, s.IsRemoteConfigured())

	creds.APIKey = ""
	s.SetRemoteCredentials(creds)
	assert.False(t, s.IsRemoteConfigured())
	assert.Equal(t, []string{settings.KeyRemoteAPIKey}, creds.Missing())
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", "settings.json")
	s, err := settings.Load(path, nil)
	require.NoError(t, err)

	s.SetDataSource(settings.BackendRemote)
	s.Set(settings.KeyBackupFolder, "/srv/backups")
	s.RecordMigration("2025-01-15 10:00:00", "/data/old.db")
	require.NoError(t, s.Save())

	reloaded, err := settings.Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, settings.BackendRemote, reloaded.DataSource())
	assert.Equal(t, "/srv/backups", reloaded.BackupFolder())
	assert.Equal(t, "/data/old.db", reloaded.GetString(settings.KeyMigrationSource))
}

func TestLoad_CorruptFileFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o644))

	s, err := settings.Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, settings.BackendLocal, s.DataSource())
}

func TestDataSource_UnknownValueIsLocal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"data_source":"cloud"}`), 0o644))

	s, err := settings.Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, settings.BackendLocal, s.DataSource())
}
