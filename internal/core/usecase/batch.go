package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/clauseworks/decision-engine/internal/core/domain"
	"github.com/clauseworks/decision-engine/internal/core/ports"
)

const embedBatchSize = 128

// BatchUseCase serves the stateless run endpoint. Every request builds a
// fresh ephemeral index from the submitted document URLs and answers each
// question against it in order.
//
// Failure handling is tiered: a document that cannot be fetched, parsed or
// chunked is skipped and logged; the request only fails when no document
// survives (ErrNoDocuments) or the surviving chunks cannot be embedded
// (ErrEmbedding). A failing question occupies its answer slot with an error
// line and never affects its neighbors.
type BatchUseCase struct {
	downloader   ports.Downloader
	loader       ports.DocumentLoader
	chunker      ports.Chunker
	embedder     ports.Embedder
	synthesizer  *Synthesizer
	indexFactory func() ports.VectorIndex
	recorder     ports.RunRecorder
	logger       *slog.Logger
}

func NewBatchUseCase(
	downloader ports.Downloader,
	loader ports.DocumentLoader,
	chunker ports.Chunker,
	embedder ports.Embedder,
	synthesizer *Synthesizer,
	indexFactory func() ports.VectorIndex,
	recorder ports.RunRecorder,
	logger *slog.Logger,
) *BatchUseCase {
	return &BatchUseCase{
		downloader:   downloader,
		loader:       loader,
		chunker:      chunker,
		embedder:     embedder,
		synthesizer:  synthesizer,
		indexFactory: indexFactory,
		recorder:     recorder,
		logger:       logger,
	}
}

func (uc *BatchUseCase) Run(ctx context.Context, documents []string, questions []string) ([]string, error) {
	started := time.Now()

	var chunks []domain.DocumentChunk
	skipped := 0
	for _, url := range documents {
		docChunks, err := uc.processDocument(ctx, url)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			uc.logger.Warn("document skipped", "url", url, "error", err)
			skipped++
			continue
		}
		chunks = append(chunks, docChunks...)
	}

	processed := len(documents) - skipped
	if processed == 0 {
		return nil, domain.WrapError(domain.ErrNoDocuments, "run",
			fmt.Errorf("all %d documents failed", len(documents)))
	}

	index := uc.indexFactory()
	if err := indexChunks(ctx, uc.embedder, index, chunks); err != nil {
		return nil, err
	}

	answers := make([]string, 0, len(questions))
	for _, question := range questions {
		decision, err := uc.synthesizer.Decide(ctx, index, question)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			uc.logger.Warn("question failed", "question", question, "error", err)
			answers = append(answers, fmt.Sprintf("Error processing question '%s': %v", question, err))
			continue
		}
		answers = append(answers, decision.FormatAnswer())
	}

	uc.record(ctx, &domain.BatchRun{
		ID:               uuid.NewString(),
		DocumentCount:    processed,
		DocumentsSkipped: skipped,
		QuestionCount:    len(questions),
		Answers:          answers,
		Duration:         time.Since(started),
		CreatedAt:        started.UTC(),
	})

	uc.logger.Info("batch run complete",
		"documents", processed,
		"skipped", skipped,
		"questions", len(questions),
		"chunks", len(chunks),
		"duration", time.Since(started),
	)
	return answers, nil
}

func (uc *BatchUseCase) processDocument(ctx context.Context, url string) ([]domain.DocumentChunk, error) {
	path, cleanup, err := uc.downloader.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	segments, err := uc.loader.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	return uc.chunker.Split(segments), nil
}

// indexChunks embeds chunks in bounded batches and inserts them, keeping
// chunk order so stable ties in retrieval reflect document order.
func indexChunks(ctx context.Context, embedder ports.Embedder, index ports.VectorIndex, chunks []domain.DocumentChunk) error {
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, chunk := range batch {
			texts[i] = chunk.Text
		}
		vectors, err := embedder.Embed(ctx, texts)
		if err != nil {
			return err
		}
		if err := index.Insert(ctx, batch, vectors); err != nil {
			return fmt.Errorf("index chunks: %w", err)
		}
	}
	return nil
}

// record is best effort; the audit trail never fails a run that already
// produced answers.
func (uc *BatchUseCase) record(ctx context.Context, run *domain.BatchRun) {
	if uc.recorder == nil {
		return
	}
	if err := uc.recorder.RecordRun(ctx, run); err != nil {
		uc.logger.Error("record batch run", "run_id", run.ID, "error", err)
	}
}
