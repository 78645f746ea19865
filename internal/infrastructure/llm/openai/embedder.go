package openai

import (
	"context"
	"fmt"

	"github.com/clauseworks/decision-engine/internal/core/domain"
)

type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	request := map[string]any{
		"model": e.client.embedModel,
		"input": texts,
	}

	var response struct {
		Data []struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := e.client.postJSON(ctx, "/embeddings", request, &response, "embed"); err != nil {
		return nil, domain.WrapError(domain.ErrEmbedding, "embed texts", err)
	}
	if len(response.Data) != len(texts) {
		return nil, domain.WrapError(domain.ErrEmbedding, "embed texts",
			fmt.Errorf("expected %d vectors, got %d", len(texts), len(response.Data)))
	}

	// The API documents data in input order, but index is authoritative.
	vectors := make([][]float32, len(texts))
	for _, d := range response.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, domain.WrapError(domain.ErrEmbedding, "embed texts",
				fmt.Errorf("vector index %d out of range", d.Index))
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, domain.WrapError(domain.ErrEmbedding, "embed query", fmt.Errorf("empty embedding result"))
	}
	return vectors[0], nil
}
