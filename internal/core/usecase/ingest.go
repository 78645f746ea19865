package usecase

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/clauseworks/decision-engine/internal/core/domain"
	"github.com/clauseworks/decision-engine/internal/core/ports"
)

// IngestUseCase rebuilds the persistent index from a directory of raw
// documents. The rebuild is wipe-then-load: the existing collection is
// dropped only after the directory yielded at least one chunk, so an empty
// or misconfigured directory cannot destroy a good index.
type IngestUseCase struct {
	loader    ports.DocumentLoader
	chunker   ports.Chunker
	embedder  ports.Embedder
	index     ports.PersistentIndex
	supported func(path string) bool
	logger    *slog.Logger
}

func NewIngestUseCase(
	loader ports.DocumentLoader,
	chunker ports.Chunker,
	embedder ports.Embedder,
	index ports.PersistentIndex,
	supported func(path string) bool,
	logger *slog.Logger,
) *IngestUseCase {
	return &IngestUseCase{
		loader:    loader,
		chunker:   chunker,
		embedder:  embedder,
		index:     index,
		supported: supported,
		logger:    logger,
	}
}

func (uc *IngestUseCase) Rebuild(ctx context.Context, dir string) (int, error) {
	var chunks []domain.DocumentChunk
	files, skipped := 0, 0

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !uc.supported(path) {
			uc.logger.Debug("file ignored", "path", path)
			return nil
		}

		segments, err := uc.loader.Load(ctx, path)
		if err != nil {
			uc.logger.Warn("document skipped", "path", path, "error", err)
			skipped++
			return nil
		}
		chunks = append(chunks, uc.chunker.Split(segments)...)
		files++
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("walk %s: %w", dir, err)
	}
	if len(chunks) == 0 {
		return 0, domain.WrapError(domain.ErrNoDocuments, "rebuild",
			fmt.Errorf("no chunks produced from %s (%d files skipped)", dir, skipped))
	}

	if err := uc.index.Wipe(ctx); err != nil {
		return 0, fmt.Errorf("wipe index: %w", err)
	}
	if err := indexChunks(ctx, uc.embedder, uc.index, chunks); err != nil {
		return 0, err
	}

	uc.logger.Info("persistent index rebuilt",
		"dir", dir,
		"files", files,
		"skipped", skipped,
		"chunks", len(chunks),
	)
	return len(chunks), nil
}
