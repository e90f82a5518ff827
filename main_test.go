package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"institute-seed/config"
	"institute-seed/models"
	"institute-seed/services"
	"institute-seed/sources"
	"institute-seed/storage"
)

func newTestApp(t *testing.T, root string) *app {
	t.Helper()
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	metrics := services.NewMetrics(reg)
	logger := zap.NewNop()
	return &app{
		cfg:      &config.Config{StoreBackend: config.BackendMemory},
		logger:   logger,
		runner:   services.NewRunner(storage.NewMemoryRepository(), metrics, logger),
		source:   sources.NewLoader(sources.NewDirReader(root), logger),
		metrics:  metrics,
		registry: reg,
	}
}

func get(t *testing.T, a *app, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	a.router().ServeHTTP(w, req)
	return w
}

func TestApplyFlags(t *testing.T) {
	cfg := &config.Config{StoreBackend: "strapi", DataRoot: "env", LogLevel: "info"}
	applyFlags(cfg, flags{dataRoot: "s3://bucket/legacy", dryRun: true, schedule: "@hourly", verbose: true})
	assert.Equal(t, "s3://bucket/legacy", cfg.DataRoot)
	assert.Equal(t, config.BackendMemory, cfg.StoreBackend)
	assert.Equal(t, "@hourly", cfg.Schedule)
	assert.Equal(t, "debug", cfg.LogLevel)

	cfg = &config.Config{StoreBackend: "strapi", DataRoot: "env"}
	applyFlags(cfg, flags{backend: "postgres"})
	assert.Equal(t, "env", cfg.DataRoot)
	assert.Equal(t, "postgres", cfg.StoreBackend)
}

func TestDryRunNeverTouchesTheDatabase(t *testing.T) {
	cfg := &config.Config{
		StoreBackend: config.BackendStrapi,
		DBHost:       "db.invalid",
		DBPort:       5432,
		DBName:       "seed",
		DBUser:       "seed",
		DBSSLMode:    "disable",
	}
	require.True(t, cfg.HasDatabase())
	applyFlags(cfg, flags{dryRun: true})

	repo, ledger, err := newRepository(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &storage.MemoryRepository{}, repo)
	assert.Nil(t, ledger)
}

func TestPostgresBackendNeedsDatabase(t *testing.T) {
	_, _, err := newRepository(&config.Config{StoreBackend: config.BackendPostgres}, zap.NewNop())
	assert.Error(t, err)
}

func TestRootCommandFlags(t *testing.T) {
	cmd := newRootCmd()
	for _, name := range []string{"data-root", "backend", "dry-run", "schedule", "verbose"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), name)
	}
	assert.Empty(t, cmd.Commands(), "single command, no subcommands")
}

func TestFillRun(t *testing.T) {
	summary := &services.Summary{Kinds: map[models.Kind]*services.KindSummary{
		models.KindPerson: {Created: 3, Skipped: 1},
		models.KindEvent:  {PublishedOnly: 2, PublishFailed: 1},
	}}

	tests := []struct {
		err    error
		status string
	}{
		{nil, "done"},
		{services.ErrRunInProgress, "skipped"},
		{context.Canceled, "canceled"},
		{errors.New("load people"), "failed"},
	}
	for _, tt := range tests {
		run := &models.SeedRun{StartedAt: time.Now()}
		fillRun(run, summary, tt.err)
		assert.Equal(t, tt.status, run.Status)
		require.NotNil(t, run.FinishedAt)
		assert.Equal(t, 3, run.Created)
		assert.Equal(t, 2, run.PublishedOnly)
		assert.Equal(t, 1, run.PublishFailed)
	}
}

func TestRunOnceAndRoutes(t *testing.T) {
	a := newTestApp(t, t.TempDir())

	assert.Equal(t, http.StatusNotFound, get(t, a, "/runs/last").Code)
	assert.Equal(t, http.StatusNotFound, get(t, a, "/runs").Code, "no ledger without database")

	_, err := a.runOnce(context.Background())
	var loadErr *sources.LoadError
	require.ErrorAs(t, err, &loadErr, "empty data root lacks required files")

	w := get(t, a, "/runs/last")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"stage":"departments"`)

	w = get(t, a, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"backend":"memory"`)

	a.metrics.RunDuration.Set(1.5)
	w = get(t, a, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "seed_last_run_duration_seconds 1.5")
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	_, err := newLogger("loud", false)
	assert.Error(t, err)

	logger, err := newLogger("warn", false)
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.InfoLevel))
}
