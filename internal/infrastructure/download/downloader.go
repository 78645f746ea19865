package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"time"

	"github.com/clauseworks/decision-engine/internal/core/domain"
	"github.com/clauseworks/decision-engine/internal/infrastructure/resilience"
)

// Downloader fetches a remote document into a temporary file. The temp file
// keeps the URL path's extension so the loader can dispatch on it.
type Downloader struct {
	httpClient *http.Client
	runner     *resilience.Runner
	logger     *slog.Logger
}

func New(logger *slog.Logger, runner *resilience.Runner) *Downloader {
	return &Downloader{
		httpClient: &http.Client{Timeout: 120 * time.Second},
		runner:     runner,
		logger:     logger,
	}
}

// Fetch downloads rawURL to a temp file and returns its path with a cleanup
// that removes the file. Cleanup is safe to call on every path, including
// after an error.
func (d *Downloader) Fetch(ctx context.Context, rawURL string) (string, func(), error) {
	noop := func() {}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", noop, domain.WrapError(domain.ErrDownload, "parse url", err)
	}

	var filePath string
	err = d.runner.Do(ctx, "download", classifyDownload, func(ctx context.Context) error {
		p, err := d.fetchOnce(ctx, rawURL, path.Ext(u.Path))
		if err != nil {
			return err
		}
		filePath = p
		return nil
	})
	if err != nil {
		return "", noop, domain.WrapError(domain.ErrDownload, "fetch document", err)
	}

	d.logger.Debug("document downloaded", "url", rawURL, "path", filePath)
	return filePath, func() { _ = os.Remove(filePath) }, nil
}

func (d *Downloader) fetchOnce(ctx context.Context, rawURL, ext string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &statusError{code: resp.StatusCode, status: resp.Status}
	}

	tmp, err := os.CreateTemp("", "decision-doc-*"+ext)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close temp file: %w", err)
	}
	return tmp.Name(), nil
}

type statusError struct {
	code   int
	status string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status: %s", e.status)
}

// classifyDownload retries transient transport and server-side failures.
// Client errors such as 404 are final: the document is simply not there.
func classifyDownload(err error) resilience.Outcome {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.Outcome{Retry: false, CountFailure: false}
	}
	var se *statusError
	if errors.As(err, &se) {
		retry := se.code >= 500 || se.code == http.StatusTooManyRequests || se.code == http.StatusRequestTimeout
		return resilience.Outcome{Retry: retry, CountFailure: retry}
	}
	return resilience.Outcome{Retry: true, CountFailure: true}
}
