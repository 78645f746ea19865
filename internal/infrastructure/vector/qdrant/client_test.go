package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/clauseworks/decision-engine/internal/core/domain"
)

func policyChunks() ([]domain.DocumentChunk, [][]float32) {
	chunks := []domain.DocumentChunk{
		{Text: "clause one", Metadata: map[string]any{"source": "policy.pdf", "page": 1}},
		{Text: "clause two", Metadata: map[string]any{"source": "policy.pdf", "page": 2}},
	}
	vectors := [][]float32{{0.1, 0.2}, {0.3, 0.4}}
	return chunks, vectors
}

func TestInsertEnsuresCollectionOncePerVectorSize(t *testing.T) {
	var ensureCalls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPut && r.URL.Path == "/collections/policies":
			atomic.AddInt32(&ensureCalls, 1)
			w.WriteHeader(http.StatusCreated)
		case r.Method == http.MethodPut && r.URL.Path == "/collections/policies/points":
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := New(server.URL, "policies")
	chunks, vectors := policyChunks()

	if err := client.Insert(context.Background(), chunks, vectors); err != nil {
		t.Fatalf("first Insert() error = %v", err)
	}
	if err := client.Insert(context.Background(), chunks, vectors); err != nil {
		t.Fatalf("second Insert() error = %v", err)
	}
	if got := atomic.LoadInt32(&ensureCalls); got != 1 {
		t.Fatalf("expected ensure collection called once, got %d", got)
	}
}

func TestInsertIncludesChunkMetadataInPayload(t *testing.T) {
	var upsert struct {
		Points []struct {
			Payload map[string]any `json:"payload"`
		} `json:"points"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut && r.URL.Path == "/collections/policies/points" {
			if err := json.NewDecoder(r.Body).Decode(&upsert); err != nil {
				t.Errorf("decode upsert body: %v", err)
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	client := New(server.URL, "policies")
	chunks, vectors := policyChunks()
	if err := client.Insert(context.Background(), chunks, vectors); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	if len(upsert.Points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(upsert.Points))
	}
	if upsert.Points[0].Payload["text"] != "clause one" {
		t.Fatalf("unexpected payload text: %v", upsert.Points[0].Payload["text"])
	}
	if upsert.Points[0].Payload["source"] != "policy.pdf" {
		t.Fatalf("expected source metadata in payload, got %v", upsert.Points[0].Payload)
	}
}

func TestSearchRebuildsChunksFromPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/collections/policies/points/search" {
			_, _ = w.Write([]byte(`{"result":[
				{"score":0.92,"payload":{"text":"clause one","source":"policy.pdf","page":1}},
				{"score":0.81,"payload":{"text":"clause two","source":"policy.pdf","page":2}}
			]}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := New(server.URL, "policies")
	hits, err := client.Search(context.Background(), []float32{0.1, 0.2}, 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].Chunk.Text != "clause one" || hits[0].Score != 0.92 {
		t.Fatalf("unexpected first hit: %+v", hits[0])
	}
	if domain.MetadataString(hits[0].Chunk.Metadata, "source") != "policy.pdf" {
		t.Fatalf("expected source metadata restored, got %+v", hits[0].Chunk.Metadata)
	}
	if _, ok := hits[0].Chunk.Metadata["text"]; ok {
		t.Fatalf("text must not leak into metadata")
	}
}

func TestWipeTreatsMissingCollectionAsClean(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete && r.URL.Path == "/collections/policies" {
			http.NotFound(w, r)
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := New(server.URL, "policies")
	if err := client.Wipe(context.Background()); err != nil {
		t.Fatalf("Wipe() error = %v", err)
	}
}

func TestWipeResetsEnsuredCollection(t *testing.T) {
	var ensureCalls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPut && r.URL.Path == "/collections/policies":
			atomic.AddInt32(&ensureCalls, 1)
			w.WriteHeader(http.StatusCreated)
		case r.Method == http.MethodDelete && r.URL.Path == "/collections/policies":
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		}
	}))
	defer server.Close()

	client := New(server.URL, "policies")
	chunks, vectors := policyChunks()
	if err := client.Insert(context.Background(), chunks, vectors); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if err := client.Wipe(context.Background()); err != nil {
		t.Fatalf("Wipe() error = %v", err)
	}
	if err := client.Insert(context.Background(), chunks, vectors); err != nil {
		t.Fatalf("Insert() after wipe error = %v", err)
	}
	if got := atomic.LoadInt32(&ensureCalls); got != 2 {
		t.Fatalf("expected collection re-ensured after wipe, got %d calls", got)
	}
}

func TestCountReturnsExactPointCount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/collections/policies/points/count" {
			_, _ = w.Write([]byte(`{"result":{"count":42}}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := New(server.URL, "policies")
	count, err := client.Count(context.Background())
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 42 {
		t.Fatalf("expected 42 points, got %d", count)
	}
}

func TestEnsureCollectionIncludesResponseBodyInError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut && r.URL.Path == "/collections/policies" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := New(server.URL, "policies")
	chunks, vectors := policyChunks()
	err := client.Insert(context.Background(), chunks, vectors)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected error to include body, got %v", err)
	}
}
