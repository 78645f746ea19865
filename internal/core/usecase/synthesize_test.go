package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/clauseworks/decision-engine/internal/core/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type synthEmbedderFake struct {
	queryErr error
	embedErr error
}

func (f *synthEmbedderFake) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{0.1, 0.2}
	}
	return out, nil
}

func (f *synthEmbedderFake) EmbedQuery(context.Context, string) ([]float32, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return []float32{0.1, 0.2}, nil
}

type synthIndexFake struct {
	hits []domain.ScoredChunk
	k    int
}

func (f *synthIndexFake) Insert(context.Context, []domain.DocumentChunk, [][]float32) error {
	return nil
}

func (f *synthIndexFake) Search(_ context.Context, _ []float32, k int) ([]domain.ScoredChunk, error) {
	f.k = k
	return f.hits, nil
}

type synthModelFake struct {
	raw    string
	err    error
	prompt string
}

func (f *synthModelFake) Complete(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.raw, nil
}

func clauseHits() []domain.ScoredChunk {
	return []domain.ScoredChunk{
		{Chunk: domain.DocumentChunk{
			Text:     "Water damage is covered up to the sum insured.",
			Metadata: map[string]any{"source": "policy.pdf", "page": 3},
		}, Score: 0.9},
	}
}

func TestDecideRejectsEmptyQuery(t *testing.T) {
	s := NewSynthesizer(&synthEmbedderFake{}, &synthModelFake{}, 5, discardLogger())
	_, err := s.Decide(context.Background(), &synthIndexFake{}, "   ")
	if !domain.IsKind(err, domain.ErrEmptyQuery) {
		t.Fatalf("expected ErrEmptyQuery, got %v", err)
	}
}

func TestDecideRequiresIndex(t *testing.T) {
	s := NewSynthesizer(&synthEmbedderFake{}, &synthModelFake{}, 5, discardLogger())
	_, err := s.Decide(context.Background(), nil, "is water damage covered?")
	if !domain.IsKind(err, domain.ErrMissingIndex) {
		t.Fatalf("expected ErrMissingIndex, got %v", err)
	}
}

func TestDecideParsesModelOutput(t *testing.T) {
	model := &synthModelFake{raw: "Here you go:\n" +
		`{"decision":"Approved","amount":12000,"justification":"Water damage is covered.","source_clauses":["Water damage is covered up to the sum insured."]}`}
	index := &synthIndexFake{hits: clauseHits()}
	s := NewSynthesizer(&synthEmbedderFake{}, model, 5, discardLogger())

	decision, err := s.Decide(context.Background(), index, "is water damage covered?")
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if decision.Decision != domain.DecisionApproved || decision.Amount != 12000 {
		t.Fatalf("unexpected decision: %+v", decision)
	}
	if index.k != 5 {
		t.Fatalf("expected top-5 retrieval, got %d", index.k)
	}
	if !strings.Contains(model.prompt, "is water damage covered?") {
		t.Fatalf("query missing from prompt")
	}
	if !strings.Contains(model.prompt, "Water damage is covered up to the sum insured.") {
		t.Fatalf("retrieved context missing from prompt")
	}
	if !strings.Contains(model.prompt, "[policy.pdf, page 3]") {
		t.Fatalf("source attribution missing from prompt: %s", model.prompt)
	}
}

func TestDecideZeroesAmountOnNonApproval(t *testing.T) {
	model := &synthModelFake{raw: `{"decision":"Rejected","amount":500,"justification":"Excluded peril."}`}
	s := NewSynthesizer(&synthEmbedderFake{}, model, 5, discardLogger())

	decision, err := s.Decide(context.Background(), &synthIndexFake{}, "q")
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if decision.Amount != 0 {
		t.Fatalf("non-approving decision must carry no amount, got %v", decision.Amount)
	}
	if decision.SourceClauses == nil {
		t.Fatalf("source clauses must never be nil")
	}
}

func TestDecideModelFailureDegradesToErrorDecision(t *testing.T) {
	model := &synthModelFake{err: errors.New("upstream down")}
	s := NewSynthesizer(&synthEmbedderFake{}, model, 5, discardLogger())

	decision, err := s.Decide(context.Background(), &synthIndexFake{}, "q")
	if err != nil {
		t.Fatalf("model failure must not surface as error, got %v", err)
	}
	if decision.Decision != domain.DecisionError {
		t.Fatalf("expected Error decision, got %q", decision.Decision)
	}
	if !strings.Contains(decision.Justification, "upstream down") {
		t.Fatalf("expected reason in justification: %q", decision.Justification)
	}
}

func TestDecideMalformedOutputDegradesToErrorDecision(t *testing.T) {
	model := &synthModelFake{raw: "I cannot answer that."}
	s := NewSynthesizer(&synthEmbedderFake{}, model, 5, discardLogger())

	decision, err := s.Decide(context.Background(), &synthIndexFake{}, "q")
	if err != nil {
		t.Fatalf("parse failure must not surface as error, got %v", err)
	}
	if decision.Decision != domain.DecisionError {
		t.Fatalf("expected Error decision, got %q", decision.Decision)
	}
}

func TestDecideEmbedFailureIsAnError(t *testing.T) {
	s := NewSynthesizer(&synthEmbedderFake{queryErr: errors.New("no embedder")}, &synthModelFake{}, 5, discardLogger())
	_, err := s.Decide(context.Background(), &synthIndexFake{}, "q")
	if err == nil {
		t.Fatalf("expected error from failed query embedding")
	}
}

func TestDecideConversationIncludesHistory(t *testing.T) {
	model := &synthModelFake{raw: `{"decision":"Rejected","amount":0,"justification":"n/a"}`}
	s := NewSynthesizer(&synthEmbedderFake{}, model, 5, discardLogger())

	history := []domain.Message{
		{Role: domain.RoleUser, Content: "what is the deductible?"},
		{Role: domain.RoleAssistant, Content: "Decision: Information Not Found, Amount: 0.00, Justification: not stated"},
	}
	if _, err := s.DecideConversation(context.Background(), &synthIndexFake{}, "and for storm damage?", history); err != nil {
		t.Fatalf("DecideConversation() error = %v", err)
	}
	if !strings.Contains(model.prompt, "PRIOR CONVERSATION:") {
		t.Fatalf("history block missing from prompt")
	}
	if !strings.Contains(model.prompt, "what is the deductible?") {
		t.Fatalf("history turn missing from prompt")
	}
}
