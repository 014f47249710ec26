package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"periodicd/internal/platform/logger"
	"periodicd/internal/platform/sqlite"
	"periodicd/internal/probe"
	"periodicd/internal/shared"
)

func TestApp_SetupRegistersProbes(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "probe.db")

	opts := sqlite.DefaultDBOptions()
	opts.AccessMode = sqlite.AccessModeReadWriteCreate
	db, err := sqlite.NewDBWithOptions(context.Background(), dbPath, opts)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer t0k" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	t.Setenv("ENV", "dev")
	t.Setenv("LOG_FILE", filepath.Join(dir, "periodicd.log"))
	t.Setenv("PROBE_INTERVAL", "20ms")
	t.Setenv("PROBE_SQLITE_PATH", dbPath)
	t.Setenv("PROBE_PG_DSN", "")
	t.Setenv("PROBE_HTTP_URL", srv.URL+"/health")
	t.Setenv("PROBE_HTTP_HEADERS", "Authorization: Bearer t0k")

	a, err := New()
	require.NoError(t, err)
	defer func() { _ = logger.Close(a.log) }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, a.setup(ctx))
	defer a.close()

	assert.Equal(t, []string{"sqlite", "http"}, a.jobs.Names())
	require.NoError(t, a.jobs.StartAll(0))

	for _, name := range a.jobs.Names() {
		job, err := a.jobs.Get(name)
		require.NoError(t, err)
		require.Eventually(t, func() bool {
			v, ready, err := job.ResultAny(context.Background())
			if err != nil || !ready {
				return false
			}
			return v.(probe.Report).Healthy
		}, 2*time.Second, 10*time.Millisecond, name)
	}

	// Отмена родительского контекста завершает циклы всех задач.
	cancel()
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()
	require.NoError(t, a.jobs.StopContext(stopCtx))
}

func TestApp_SetupFailsOnMissingSQLite(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("LOG_FILE", filepath.Join(dir, "periodicd.log"))
	t.Setenv("PROBE_SQLITE_PATH", filepath.Join(dir, "missing.db"))
	t.Setenv("PROBE_PG_DSN", "")
	t.Setenv("PROBE_HTTP_URL", "")

	a, err := New()
	require.NoError(t, err)

	defer func() { _ = logger.Close(a.log) }()

	err = a.setup(context.Background())
	assert.ErrorIs(t, err, shared.ErrDependencyFailure)
	a.close()
}
