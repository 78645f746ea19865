package openai

import (
	"context"
	"fmt"
	"strings"
)

// Completion runs single-turn chat completions at the client's fixed
// temperature. Decision synthesis depends on that temperature being 0 so
// the same context and query reproduce the same output.
type Completion struct {
	client *Client
}

func NewCompletion(client *Client) *Completion {
	return &Completion{client: client}
}

func (c *Completion) Complete(ctx context.Context, prompt string) (string, error) {
	request := map[string]any{
		"model":       c.client.genModel,
		"temperature": c.client.temperature,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := c.client.postJSON(ctx, "/chat/completions", request, &response, "complete"); err != nil {
		return "", err
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}
	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}
