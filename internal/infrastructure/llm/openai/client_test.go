package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/clauseworks/decision-engine/internal/core/domain"
	"github.com/clauseworks/decision-engine/internal/infrastructure/resilience"
)

func testRunner() *resilience.Runner {
	return resilience.NewRunner(resilience.Policy{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
		Multiplier:     2.0,
	})
}

func TestEmbedOrdersVectorsByIndex(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			http.NotFound(w, r)
			return
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test" {
			t.Errorf("unexpected auth header: %q", auth)
		}
		// Deliberately out of input order.
		_, _ = w.Write([]byte(`{"data":[
			{"index":1,"embedding":[0.3,0.4]},
			{"index":0,"embedding":[0.1,0.2]}
		]}`))
	}))
	defer server.Close()

	client := New(server.URL, "sk-test", "gpt-4o", "text-embedding-3-small", 0, testRunner())
	vectors, err := NewEmbedder(client).Embed(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vectors) != 2 {
		t.Fatalf("expected 2 vectors, got %d", len(vectors))
	}
	if vectors[0][0] != 0.1 || vectors[1][0] != 0.3 {
		t.Fatalf("vectors not reordered by index: %v", vectors)
	}
}

func TestEmbedCountMismatchIsEmbeddingError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"index":0,"embedding":[0.1]}]}`))
	}))
	defer server.Close()

	client := New(server.URL, "sk-test", "gpt-4o", "text-embedding-3-small", 0, testRunner())
	_, err := NewEmbedder(client).Embed(context.Background(), []string{"a", "b"})
	if !domain.IsKind(err, domain.ErrEmbedding) {
		t.Fatalf("expected ErrEmbedding, got %v", err)
	}
}

func TestEmbedRetriesRateLimit(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"data":[{"index":0,"embedding":[0.5]}]}`))
	}))
	defer server.Close()

	client := New(server.URL, "sk-test", "gpt-4o", "text-embedding-3-small", 0, testRunner())
	vector, err := NewEmbedder(client).EmbedQuery(context.Background(), "query")
	if err != nil {
		t.Fatalf("EmbedQuery() error = %v", err)
	}
	if len(vector) != 1 || vector[0] != 0.5 {
		t.Fatalf("unexpected vector: %v", vector)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Fatalf("expected retry after 429, got %d calls", got)
	}
}

func TestEmbedBadRequestIsNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "invalid model", http.StatusBadRequest)
	}))
	defer server.Close()

	client := New(server.URL, "sk-test", "gpt-4o", "text-embedding-3-small", 0, testRunner())
	_, err := NewEmbedder(client).Embed(context.Background(), []string{"a"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "invalid model") {
		t.Fatalf("expected response body in error, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("400 must not be retried, got %d calls", got)
	}
}

func TestCompleteSendsFixedTemperature(t *testing.T) {
	var payload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  {\"decision\":\"Approved\"}  "}}]}`))
	}))
	defer server.Close()

	client := New(server.URL, "sk-test", "gpt-4o", "text-embedding-3-small", 0, testRunner())
	raw, err := NewCompletion(client).Complete(context.Background(), "decide")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if raw != `{"decision":"Approved"}` {
		t.Fatalf("expected trimmed content, got %q", raw)
	}
	if payload["model"] != "gpt-4o" {
		t.Fatalf("unexpected model: %v", payload["model"])
	}
	if temp, ok := payload["temperature"].(float64); !ok || temp != 0 {
		t.Fatalf("expected temperature 0, got %v", payload["temperature"])
	}
}

func TestCompleteNoChoicesIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	client := New(server.URL, "sk-test", "gpt-4o", "text-embedding-3-small", 0, testRunner())
	if _, err := NewCompletion(client).Complete(context.Background(), "decide"); err == nil {
		t.Fatalf("expected error on empty choices")
	}
}
