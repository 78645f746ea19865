package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/clauseworks/decision-engine/internal/infrastructure/resilience"
)

// Client talks to an OpenAI-compatible API. One client serves both the
// embeddings and the chat completions surface so they share the base URL,
// credentials and retry behavior.
type Client struct {
	baseURL     string
	apiKey      string
	genModel    string
	embedModel  string
	temperature float64
	httpClient  *http.Client
	runner      *resilience.Runner
}

func New(baseURL, apiKey, genModel, embedModel string, temperature float64, runner *resilience.Runner) *Client {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		genModel:    genModel,
		embedModel:  embedModel,
		temperature: temperature,
		httpClient:  &http.Client{Timeout: 120 * time.Second},
		runner:      runner,
	}
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, out any, operation string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s body: %w", operation, err)
	}

	return c.runner.Do(ctx, operation, classifyAPI, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create %s request: %w", operation, err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("%s request: %w", operation, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			return statusError(operation, resp)
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s response: %w", operation, err)
		}
		return nil
	})
}

type apiStatusError struct {
	code    int
	message string
}

func (e *apiStatusError) Error() string { return e.message }

func statusError(operation string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	msg := fmt.Sprintf("%s status: %s", operation, resp.Status)
	if trimmed := strings.TrimSpace(string(body)); trimmed != "" {
		msg += ": " + trimmed
	}
	return &apiStatusError{code: resp.StatusCode, message: msg}
}

// classifyAPI retries rate limits, timeouts and server-side failures. 4xx
// responses other than 408/429 mean the request itself is wrong, retrying
// cannot help.
func classifyAPI(err error) resilience.Outcome {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.Outcome{Retry: false, CountFailure: false}
	}
	var se *apiStatusError
	if errors.As(err, &se) {
		retry := se.code >= 500 || se.code == http.StatusTooManyRequests || se.code == http.StatusRequestTimeout
		return resilience.Outcome{Retry: retry, CountFailure: retry}
	}
	return resilience.Outcome{Retry: true, CountFailure: true}
}
