package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kirillkom/docvault/internal/config"
	"github.com/kirillkom/docvault/internal/core/ports"
	"github.com/kirillkom/docvault/internal/core/usecase"
	"github.com/kirillkom/docvault/internal/infrastructure/classifier/donut"
	"github.com/kirillkom/docvault/internal/infrastructure/extractor"
	"github.com/kirillkom/docvault/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/docvault/internal/infrastructure/ocr"
	"github.com/kirillkom/docvault/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/docvault/internal/infrastructure/resilience"
	"github.com/kirillkom/docvault/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/docvault/internal/jobs"
	"github.com/kirillkom/docvault/internal/observability/metrics"
)

type App struct {
	Config config.Config

	Repo    ports.DocumentRepository
	Files   ports.FileStore
	Tracker ports.JobTracker

	IngestUC  ports.DocumentIngestor
	AnalyzeUC ports.DocumentAnalyzer
	CurateUC  ports.DocumentCurator

	Metrics *metrics.PipelineMetrics

	// RunBackground starts long-lived maintenance work (the job reaper)
	// and returns when ctx is canceled.
	RunBackground func(ctx context.Context)

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	files, err := localfs.NewStore(cfg.UploadDir)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init file store: %w", err)
	}

	retention := time.Duration(cfg.JobRetentionMinutes) * time.Minute
	tracker, runBackground, closeTracker, err := newTracker(cfg, retention, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	m := metrics.NewPipelineMetrics()
	executor := resilience.NewExecutor(resilience.DefaultPolicy())

	enricher := ollama.New(cfg.OllamaURL, cfg.OllamaModel, executor)
	donutClassifier := donut.NewClassifier(cfg.DonutCmd, cfg.DonutScript, time.Duration(cfg.DonutTimeoutSeconds)*time.Second, logger)
	ocrEngine := ocr.NewEngine(cfg.TesseractCmd, cfg.PDFToPPMCmd, logger)
	contentExtractor := extractor.New(logger)

	enrichUC := usecase.NewEnrichBatchUseCase(repo, tracker, enricher, m, logger, cfg.EnrichMaxConcurrentBatches)
	ingestUC := usecase.NewIngestUseCase(repo, files, contentExtractor, tracker, enrichUC, m, logger, cfg.MaxBatchFiles)
	analyzeUC := usecase.NewAnalyzeUseCase(repo, contentExtractor, ocrEngine, enricher, donutClassifier, logger)
	curateUC := usecase.NewCurateUseCase(repo, files, logger)

	return &App{
		Config: cfg,

		Repo:    repo,
		Files:   files,
		Tracker: tracker,

		IngestUC:  ingestUC,
		AnalyzeUC: analyzeUC,
		CurateUC:  curateUC,

		Metrics: m,

		RunBackground: runBackground,

		closeFn: func() {
			closeTracker()
			_ = db.Close()
		},
	}, nil
}

func newTracker(cfg config.Config, retention time.Duration, logger *slog.Logger) (ports.JobTracker, func(ctx context.Context), func(), error) {
	switch cfg.JobTrackerBackend {
	case "", "memory":
		tracker := jobs.NewMemoryTracker(retention, logger)
		return tracker, tracker.Run, func() {}, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		tracker := jobs.NewRedisTracker(client, retention)
		return tracker, func(ctx context.Context) { <-ctx.Done() }, func() { _ = client.Close() }, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown job tracker backend %q", cfg.JobTrackerBackend)
	}
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
