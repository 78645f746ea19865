package memoryindex

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/clauseworks/decision-engine/internal/core/domain"
)

// Index is an ephemeral in-process vector index using brute-force cosine
// similarity. One Index serves one request or one interactive session and is
// discarded with it; Insert is append-only.
type Index struct {
	mu      sync.RWMutex
	chunks  []domain.DocumentChunk
	vectors [][]float32
}

func New() *Index {
	return &Index{}
}

func (ix *Index) Insert(_ context.Context, chunks []domain.DocumentChunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks/vectors mismatch: %d/%d", len(chunks), len(vectors))
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	dim := 0
	if len(ix.vectors) > 0 {
		dim = len(ix.vectors[0])
	} else if len(vectors) > 0 {
		dim = len(vectors[0])
	}
	for i, v := range vectors {
		if len(v) != dim {
			return fmt.Errorf("vector %d dimension mismatch: %d != %d", i, len(v), dim)
		}
	}

	ix.chunks = append(ix.chunks, chunks...)
	ix.vectors = append(ix.vectors, vectors...)
	return nil
}

// Search ranks every stored vector against the query. The stable sort keeps
// insertion order on equal scores.
func (ix *Index) Search(_ context.Context, queryVector []float32, k int) ([]domain.ScoredChunk, error) {
	if k <= 0 {
		k = 5
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if len(ix.vectors) == 0 {
		return nil, nil
	}

	scores := make([]float64, len(ix.vectors))
	for i, v := range ix.vectors {
		scores[i] = cosine(v, queryVector)
	}

	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	if k > len(order) {
		k = len(order)
	}
	out := make([]domain.ScoredChunk, 0, k)
	for _, idx := range order[:k] {
		out = append(out, domain.ScoredChunk{Chunk: ix.chunks[idx], Score: scores[idx]})
	}
	return out, nil
}

func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.chunks)
}

func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
