package ports

import (
	"context"

	"github.com/clauseworks/decision-engine/internal/core/domain"
)

// DocumentLoader turns a local file of a recognized type into text segments.
type DocumentLoader interface {
	Load(ctx context.Context, path string) ([]domain.Segment, error)
}

// Downloader fetches a remote document into a temporary file. The returned
// cleanup removes the file and must be called on every exit path.
type Downloader interface {
	Fetch(ctx context.Context, url string) (path string, cleanup func(), err error)
}

// Chunker splits segments into overlapping retrieval-sized chunks.
type Chunker interface {
	Split(segments []domain.Segment) []domain.DocumentChunk
}

// Embedder builds vectors for chunk and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorIndex stores chunk vectors and answers similarity queries.
// Insertion is append-only within a request. Search returns up to k hits by
// descending score; ties keep insertion order. An empty index yields an
// empty result, not an error.
type VectorIndex interface {
	Insert(ctx context.Context, chunks []domain.DocumentChunk, vectors [][]float32) error
	Search(ctx context.Context, queryVector []float32, k int) ([]domain.ScoredChunk, error)
}

// PersistentIndex adds the lifecycle operations the bulk ingester needs.
type PersistentIndex interface {
	VectorIndex
	Wipe(ctx context.Context) error
	Count(ctx context.Context) (int, error)
}

// CompletionModel produces raw text from a prompt at fixed temperature.
// Output is not guaranteed to be well formed; callers must validate.
type CompletionModel interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// RunRecorder persists an audit record per batch run.
type RunRecorder interface {
	RecordRun(ctx context.Context, run *domain.BatchRun) error
}
