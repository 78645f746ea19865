package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/clauseworks/decision-engine/internal/config"
	"github.com/clauseworks/decision-engine/internal/core/ports"
	"github.com/clauseworks/decision-engine/internal/core/usecase"
	"github.com/clauseworks/decision-engine/internal/infrastructure/chunking"
	"github.com/clauseworks/decision-engine/internal/infrastructure/download"
	"github.com/clauseworks/decision-engine/internal/infrastructure/llm/openai"
	"github.com/clauseworks/decision-engine/internal/infrastructure/loader"
	"github.com/clauseworks/decision-engine/internal/infrastructure/repository/postgres"
	"github.com/clauseworks/decision-engine/internal/infrastructure/resilience"
	"github.com/clauseworks/decision-engine/internal/infrastructure/vector/memoryindex"
	"github.com/clauseworks/decision-engine/internal/infrastructure/vector/qdrant"
	"github.com/clauseworks/decision-engine/internal/observability/logging"
	"github.com/clauseworks/decision-engine/internal/observability/metrics"
)

type App struct {
	Config  config.Config
	Logger  *slog.Logger
	Metrics *metrics.HTTPServerMetrics

	BatchUC   ports.BatchRunner
	SessionUC ports.SessionService
	IngestUC  ports.IndexRebuilder

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, service string) (*App, error) {
	logger := logging.NewJSONLogger(service, cfg.LogLevel)
	m := metrics.NewHTTPServerMetrics(service)
	runner := resilience.NewRunner(resilience.DefaultPolicy())

	docLoader := loader.New(logger)
	downloader := download.New(logger, runner)
	chunker := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)

	openaiClient := openai.New(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIGenModel, cfg.OpenAIEmbedModel, cfg.Temperature, runner)
	embedder := openai.NewEmbedder(openaiClient)
	completion := openai.NewCompletion(openaiClient)
	synthesizer := usecase.NewSynthesizer(embedder, completion, cfg.RetrievalTopK, logger)

	indexFactory := func() ports.VectorIndex { return memoryindex.New() }
	vectorDB := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection)

	closeFn := func() {}
	var auditRepo ports.RunRecorder
	if cfg.PostgresDSN != "" {
		db, err := postgres.OpenDB(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		repo := postgres.NewRunRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		auditRepo = repo
		closeFn = func() { _ = db.Close() }
	}
	recorder := metrics.NewRunRecorder(service, m, auditRepo)

	batchUC := usecase.NewBatchUseCase(downloader, docLoader, chunker, embedder, synthesizer, indexFactory, recorder, logger)
	sessionUC := usecase.NewSessionUseCase(docLoader, chunker, embedder, synthesizer, indexFactory, logger)
	ingestUC := usecase.NewIngestUseCase(docLoader, chunker, embedder, vectorDB, loader.Supported, logger)

	return &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: m,

		BatchUC:   batchUC,
		SessionUC: sessionUC,
		IngestUC:  ingestUC,

		closeFn: closeFn,
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
