package ports

import (
	"context"

	"github.com/clauseworks/decision-engine/internal/core/domain"
)

// BatchRunner is the inbound contract for the stateless run endpoint:
// N document URLs and M questions in, M formatted answers out in input
// order. Request-fatal conditions surface as domain error kinds
// (ErrNoDocuments, ErrEmbedding); per-question failures are inlined into
// the corresponding answer slot.
type BatchRunner interface {
	Run(ctx context.Context, documents []string, questions []string) ([]string, error)
}

// SessionService is the inbound contract for the interactive surface.
// ProcessFile replaces the session's index (cached by file content) and
// clears history; Ask answers one chat turn against the cached index.
type SessionService interface {
	ProcessFile(ctx context.Context, path string) error
	Ask(ctx context.Context, question string) (domain.PolicyDecision, error)
	History() []domain.Message
	Reset()
	Invalidate()
}

// IndexRebuilder is the inbound contract for bulk ingestion into the
// persistent index.
type IndexRebuilder interface {
	Rebuild(ctx context.Context, dir string) (chunkCount int, err error)
}
