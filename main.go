package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"institute-seed/config"
	"institute-seed/models"
	"institute-seed/services"
	"institute-seed/sources"
	"institute-seed/storage"
)

type flags struct {
	dataRoot string
	backend  string
	dryRun   bool
	schedule string
	verbose  bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:   "institute-seed",
		Short: "Seed or repair the institute content store from legacy JSON exports",
		Long: `institute-seed reads the legacy JSON exports (departments, people, publications,
projects, events, seminars) and reconciles them into the content store. Runs are
idempotent: existing documents are found by natural key and refreshed, skipped or
republished, never duplicated.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), f)
		},
	}
	cmd.Flags().StringVar(&f.dataRoot, "data-root", "", "legacy data directory or s3://bucket/prefix (overrides SEED_DATA_ROOT)")
	cmd.Flags().StringVar(&f.backend, "backend", "", "content store backend: strapi, postgres or memory (overrides STORE_BACKEND)")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "reconcile against an in-memory store, nothing is written")
	cmd.Flags().StringVar(&f.schedule, "schedule", "", "cron expression for recurring repair runs (overrides SEED_SCHEDULE)")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "development logging incl. debug hints for unresolved references")
	return cmd
}

func run(parent context.Context, f flags) error {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("Config load error: %v", err)
		return err
	}
	applyFlags(cfg, f)

	logging, err := newLogger(cfg.LogLevel, f.verbose)
	if err != nil {
		log.Printf("can't initialize zap logger: %v", err)
		return err
	}
	defer logging.Sync()

	if err := cfg.Validate(); err != nil {
		logging.Error("Invalid configuration", zap.Error(err))
		return err
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logging)
	if err != nil {
		logging.Error("Startup failed", zap.Error(err))
		return err
	}

	if cfg.Schedule == "" {
		_, err := a.runOnce(ctx)
		return err
	}
	return a.serve(ctx)
}

func applyFlags(cfg *config.Config, f flags) {
	if f.dataRoot != "" {
		cfg.DataRoot = f.dataRoot
	}
	if f.backend != "" {
		cfg.StoreBackend = f.backend
	}
	if f.dryRun {
		cfg.StoreBackend = config.BackendMemory
	}
	if f.schedule != "" {
		cfg.Schedule = f.schedule
	}
	if f.verbose {
		cfg.LogLevel = "debug"
	}
}

func newLogger(level string, verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Level = lvl
	return zc.Build()
}

// app bündelt die Abhängigkeiten eines Prozesses.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	runner   *services.Runner
	source   services.Source
	metrics  *services.Metrics
	registry *prometheus.Registry
	ledger   *storage.RunLedger

	mu   sync.Mutex
	last *services.Summary
}

func newApp(ctx context.Context, cfg *config.Config, logging *zap.Logger) (*app, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := services.NewMetrics(reg)

	repo, ledger, err := newRepository(cfg, logging)
	if err != nil {
		return nil, err
	}
	src, err := newSource(ctx, cfg, logging)
	if err != nil {
		return nil, err
	}
	logging.Info("Seed engine configured",
		zap.String("backend", cfg.StoreBackend),
		zap.String("data_root", src.Root()),
		zap.Bool("run_ledger", ledger != nil))

	return &app{
		cfg:      cfg,
		logger:   logging,
		runner:   services.NewRunner(repo, metrics, logging),
		source:   src,
		metrics:  metrics,
		registry: reg,
		ledger:   ledger,
	}, nil
}

// newRepository wählt das Backend. Mit konfigurierter Datenbank wird
// zusätzlich jeder Lauf in seed_runs protokolliert.
func newRepository(cfg *config.Config, logging *zap.Logger) (storage.Repository, *storage.RunLedger, error) {
	if cfg.StoreBackend == config.BackendMemory {
		logging.Info("Dry run: using in-memory content store, nothing is written")
		return storage.NewMemoryRepository(), nil, nil
	}

	var ledger *storage.RunLedger
	if cfg.HasDatabase() {
		db, err := storage.OpenPostgres(cfg.DSN())
		if err != nil {
			return nil, nil, fmt.Errorf("connect to database: %w", err)
		}
		logging.Info("Successfully connected to database.")
		ledger = storage.NewRunLedger(db)
		if err := ledger.Migrate(); err != nil {
			return nil, nil, fmt.Errorf("migrate run ledger: %w", err)
		}

		if cfg.StoreBackend == config.BackendPostgres {
			repo := storage.NewPostgresRepository(db)
			logging.Info("Running database auto-migration...")
			if err := repo.Migrate(); err != nil {
				return nil, nil, fmt.Errorf("migrate documents: %w", err)
			}
			return repo, ledger, nil
		}
	}

	if cfg.StoreBackend == config.BackendStrapi {
		if cfg.CMSAPIToken == "" {
			logging.Warn("CMS_API_TOKEN is empty, requests are sent unauthenticated")
		}
		return storage.NewStrapiRepository(cfg.CMSURL, cfg.CMSAPIToken, cfg.CMSTimeout, logging), ledger, nil
	}
	return nil, nil, fmt.Errorf("backend %q is not available", cfg.StoreBackend)
}

func newSource(ctx context.Context, cfg *config.Config, logging *zap.Logger) (services.Source, error) {
	if bucket, prefix, ok := sources.ParseS3URI(cfg.DataRoot); ok {
		client, err := storage.NewS3Client(ctx, storage.S3Settings{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			return nil, fmt.Errorf("create S3 client: %w", err)
		}
		return sources.NewLoader(sources.NewS3Reader(client, bucket, prefix), logging), nil
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	root, err := sources.ResolveRoot(cfg.DataRoot, wd, sources.CandidateRoots)
	if err != nil {
		return nil, err
	}
	return sources.NewLoader(sources.NewDirReader(root), logging), nil
}

// runOnce führt einen Lauf aus, protokolliert ihn und pusht die Metriken.
func (a *app) runOnce(ctx context.Context) (*services.Summary, error) {
	record := &models.SeedRun{StartedAt: time.Now(), DataRoot: a.source.Root(), Backend: a.cfg.StoreBackend}
	if a.ledger != nil {
		if err := a.ledger.Start(ctx, record); err != nil {
			a.logger.Warn("Could not record run start", zap.Error(err))
		}
	}

	summary, err := a.runner.Run(ctx, a.source)
	if errors.Is(err, services.ErrRunInProgress) {
		a.logger.Warn("Seed run skipped, another run is still in progress")
	}
	if summary != nil {
		a.mu.Lock()
		a.last = summary
		a.mu.Unlock()
	}

	if a.ledger != nil {
		fillRun(record, summary, err)
		if lerr := a.ledger.Finish(context.WithoutCancel(ctx), record); lerr != nil {
			a.logger.Warn("Could not record run result", zap.Error(lerr))
		}
	}
	if a.cfg.PushgatewayURL != "" {
		if perr := a.metrics.Push(a.cfg.PushgatewayURL, 10*time.Second); perr != nil {
			a.logger.Warn("Pushing metrics failed", zap.String("url", a.cfg.PushgatewayURL), zap.Error(perr))
		}
	}
	return summary, err
}

func fillRun(record *models.SeedRun, summary *services.Summary, err error) {
	now := time.Now()
	record.FinishedAt = &now
	switch {
	case err == nil:
		record.Status = "done"
	case errors.Is(err, services.ErrRunInProgress):
		record.Status = "skipped"
	case errors.Is(err, context.Canceled):
		record.Status = "canceled"
	default:
		record.Status = "failed"
	}
	if err != nil {
		record.Error = err.Error()
	}
	if summary == nil {
		return
	}
	t := summary.Totals()
	record.Created = t.Created
	record.Updated = t.Updated
	record.Skipped = t.Skipped
	record.PublishedOnly = t.PublishedOnly
	record.Failed = t.Failed
	record.PublishFailed = t.PublishFailed
}

// serve startet den Reparatur-Modus: Läufe nach Cron-Ausdruck, optional mit HTTP-Endpunkten.
func (a *app) serve(ctx context.Context) error {
	scheduler := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.PrintfLogger(zap.NewStdLog(a.logger))),
	))
	if _, err := scheduler.AddFunc(a.cfg.Schedule, func() {
		a.logger.Info("Running scheduled seed run...")
		if _, err := a.runOnce(ctx); err != nil {
			a.logger.Error("Scheduled seed run failed", zap.Error(err))
		}
	}); err != nil {
		a.logger.Error("Invalid schedule", zap.String("schedule", a.cfg.Schedule), zap.Error(err))
		return err
	}
	scheduler.Start()
	a.logger.Info("Scheduler started", zap.String("schedule", a.cfg.Schedule))

	var srv *http.Server
	if a.cfg.MetricsAddr != "" {
		srv = &http.Server{
			Addr:              a.cfg.MetricsAddr,
			Handler:           a.router(),
			ReadTimeout:       30 * time.Second,
			ReadHeaderTimeout: 15 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
		}
		go func() {
			a.logger.Info("Starting server", zap.String("addr", a.cfg.MetricsAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("Failed to run server", zap.Error(err))
			}
		}()
	}

	<-ctx.Done()
	a.logger.Info("Shutting down, waiting for running seed run to finish")
	<-scheduler.Stop().Done()
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("Server shutdown failed", zap.Error(err))
		}
	}
	return nil
}
