package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/clauseworks/decision-engine/internal/core/domain"
	"github.com/clauseworks/decision-engine/internal/core/ports"
)

// Synthesizer answers one query against a vector index: retrieve the top
// chunks, prompt the model, parse its output into a PolicyDecision.
//
// Model and parse failures never surface as errors; they degrade to a
// decision of "Error" carrying the reason, so a bad model response cannot
// take down a whole batch. Failures before the model is involved (empty
// query, missing index, embedding) are real errors the caller must handle.
type Synthesizer struct {
	embedder ports.Embedder
	model    ports.CompletionModel
	topK     int
	logger   *slog.Logger
}

func NewSynthesizer(embedder ports.Embedder, model ports.CompletionModel, topK int, logger *slog.Logger) *Synthesizer {
	if topK <= 0 {
		topK = 5
	}
	return &Synthesizer{
		embedder: embedder,
		model:    model,
		topK:     topK,
		logger:   logger,
	}
}

func (s *Synthesizer) Decide(ctx context.Context, index ports.VectorIndex, query string) (domain.PolicyDecision, error) {
	return s.decide(ctx, index, query, nil)
}

// DecideConversation is Decide with the session's prior turns folded into
// the prompt.
func (s *Synthesizer) DecideConversation(ctx context.Context, index ports.VectorIndex, query string, history []domain.Message) (domain.PolicyDecision, error) {
	return s.decide(ctx, index, query, history)
}

func (s *Synthesizer) decide(ctx context.Context, index ports.VectorIndex, query string, history []domain.Message) (domain.PolicyDecision, error) {
	if strings.TrimSpace(query) == "" {
		return domain.PolicyDecision{}, domain.ErrEmptyQuery
	}
	if index == nil {
		return domain.PolicyDecision{}, domain.WrapError(domain.ErrMissingIndex, "decide", fmt.Errorf("no document processed yet"))
	}

	queryVector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return domain.PolicyDecision{}, fmt.Errorf("embed query: %w", err)
	}

	hits, err := index.Search(ctx, queryVector, s.topK)
	if err != nil {
		return domain.PolicyDecision{}, fmt.Errorf("search index: %w", err)
	}

	prompt := buildDecisionPrompt(query, hits, history)
	raw, err := s.model.Complete(ctx, prompt)
	if err != nil {
		s.logger.Error("completion failed", "error", err)
		return domain.ErrorDecision(fmt.Sprintf("language model call failed: %v", err)), nil
	}

	decision, err := parseDecision(raw)
	if err != nil {
		s.logger.Error("unparseable model output", "error", err, "raw", raw)
		return domain.ErrorDecision(fmt.Sprintf("model returned malformed output: %v", err)), nil
	}

	if bad := decision.NonVerbatimCitations(formatContext(hits)); len(bad) > 0 {
		s.logger.Warn("decision cites clauses not found verbatim in context", "clauses", len(bad))
	}
	return decision, nil
}
