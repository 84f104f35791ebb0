package repositories_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SscSPs/rental_backoffice_app/internal/apperrors"
	portsrepo "github.com/SscSPs/rental_backoffice_app/internal/core/ports/repositories"
	"github.com/SscSPs/rental_backoffice_app/internal/remote"
	"github.com/SscSPs/rental_backoffice_app/internal/repositories"
	"github.com/SscSPs/rental_backoffice_app/internal/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSettings struct {
	source settings.Backend
	creds  settings.RemoteCredentials
	path   string
}

func (s stubSettings) DataSource() settings.Backend                  { return s.source }
func (s stubSettings) RemoteCredentials() settings.RemoteCredentials { return s.creds }
func (s stubSettings) LocalDBPath() string                           { return s.path }

var validCreds = settings.RemoteCredentials{ProjectID: "demo", Email: "ops@example.com", Password: "secret", APIKey: "key-1"}

// probeServer answers sign-in and returns the current status for every other request.
func probeServer(t *testing.T, status *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "accounts:signInWithPassword") {
			_ = json.NewEncoder(w).Encode(map[string]string{"idToken": "tok", "refreshToken": "r", "expiresIn": "3600"})
			return
		}
		w.WriteHeader(int(status.Load()))
		_, _ = w.Write([]byte(`{"documents": []}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func factoryFor(srv *httptest.Server) *repositories.Factory {
	return repositories.NewFactory(slog.New(slog.NewTextHandler(io.Discard, nil)), repositories.WithRemoteOptions(
		remote.WithBaseURL(srv.URL),
		remote.WithIdentityURL(srv.URL),
		remote.WithSleep(func(context.Context, time.Duration) error { return nil }),
	))
}

func TestFactory_RemoteBackendSwitch(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusOK)
	f := factoryFor(probeServer(t, &status))
	ctx := context.Background()

	repo, err := f.New(ctx, stubSettings{source: settings.BackendRemote, creds: validCreds}, false)
	require.NoError(t, err)
	assert.Equal(t, portsrepo.BackendRemote, repo.Backend())
	assert.True(t, repo.VerifyConnection(ctx))

	status.Store(http.StatusTooManyRequests)
	assert.True(t, repo.VerifyConnection(ctx))

	status.Store(http.StatusUnauthorized)
	assert.False(t, repo.VerifyConnection(ctx))
}

func TestFactory_RemoteRejectedAtStartup(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusUnauthorized)
	f := factoryFor(probeServer(t, &status))

	_, err := f.New(context.Background(), stubSettings{source: settings.BackendRemote, creds: validCreds}, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConnection)
	var connErr *repositories.ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, portsrepo.BackendRemote, connErr.Backend)
}

func TestFactory_RemoteMissingCredentials(t *testing.T) {
	f := repositories.NewFactory(nil)
	creds := validCreds
	creds.APIKey = ""

	_, err := f.New(context.Background(), stubSettings{source: settings.BackendRemote, creds: creds}, false)
	assert.ErrorIs(t, err, apperrors.ErrConnection)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Contains(t, err.Error(), settings.KeyRemoteAPIKey)
}

func TestFactory_LocalMemoryFallback(t *testing.T) {
	f := repositories.NewFactory(nil)
	ctx := context.Background()
	missing := filepath.Join(t.TempDir(), "absent.db")

	repo, err := f.New(ctx, stubSettings{source: settings.BackendLocal, path: missing}, true)
	require.NoError(t, err)
	defer repo.Close()
	assert.Equal(t, portsrepo.BackendLocal, repo.Backend())
	assert.NoFileExists(t, missing)
	require.NoError(t, repo.Seed(ctx))
	assert.True(t, repo.VerifyConnection(ctx))
}

func TestFactory_LocalCreatesFile(t *testing.T) {
	f := repositories.NewFactory(nil)
	path := filepath.Join(t.TempDir(), "data", "rental.db")

	repo, err := f.New(context.Background(), stubSettings{source: settings.BackendLocal, path: path}, false)
	require.NoError(t, err)
	defer repo.Close()
	assert.FileExists(t, path)
}

func TestFactory_CreateSQLiteForBackup(t *testing.T) {
	f := repositories.NewFactory(nil)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "backup_20250101_000000.db")

	repo, err := f.CreateSQLiteForBackup(ctx, path)
	require.NoError(t, err)
	tables, err := repo.Store().Tables(ctx)
	require.NoError(t, err)
	assert.Contains(t, tables, "rental_meta")
	require.NoError(t, repo.Close())

	_, err = f.CreateSQLiteForBackup(ctx, path)
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)
}
