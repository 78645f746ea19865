package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Outcome tells the runner how to treat one failed attempt.
type Outcome struct {
	Retry        bool
	CountFailure bool
}

// Classifier maps an error from an outbound call to an Outcome.
type Classifier func(err error) Outcome

// Runner executes outbound calls with bounded retries and a per-operation
// circuit breaker. External services (embeddings, completions, downloads)
// share one Runner so their breakers stay independent by operation name.
type Runner struct {
	policy Policy

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[any]
}

func NewRunner(policy Policy) *Runner {
	return &Runner{
		policy:   policy.withDefaults(),
		breakers: make(map[string]*gobreaker.CircuitBreaker[any]),
	}
}

func (r *Runner) Do(ctx context.Context, operation string, classify Classifier, fn func(context.Context) error) error {
	if fn == nil {
		return fmt.Errorf("resilience: call is nil")
	}
	op := strings.TrimSpace(operation)
	if op == "" {
		op = "unknown"
	}
	if classify == nil {
		classify = neverRetry
	}

	if !r.policy.BreakerEnabled {
		return r.withRetries(ctx, op, classify, fn)
	}
	breaker := r.breaker(op, classify)
	_, err := breaker.Execute(func() (any, error) {
		return nil, r.withRetries(ctx, op, classify, fn)
	})
	return err
}

func (r *Runner) withRetries(ctx context.Context, operation string, classify Classifier, fn func(context.Context) error) error {
	backoff := r.policy.InitialBackoff

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		if out := classify(err); !out.Retry || attempt == r.policy.MaxAttempts {
			return err
		}

		wait := min(backoff, r.policy.MaxBackoff)
		slog.Warn("retry_attempt",
			"operation", operation,
			"attempt", attempt,
			"max_attempts", r.policy.MaxAttempts,
			"backoff_ms", float64(wait.Microseconds())/1000.0,
			"error", err,
		)
		if wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return err
			case <-timer.C:
			}
		}
		backoff = min(time.Duration(float64(backoff)*r.policy.Multiplier), r.policy.MaxBackoff)
	}
}

func (r *Runner) breaker(operation string, classify Classifier) *gobreaker.CircuitBreaker[any] {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.breakers[operation]; ok {
		return b
	}

	b := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        operation,
		MaxRequests: r.policy.BreakerProbeCalls,
		Timeout:     r.policy.BreakerOpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < r.policy.BreakerMinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= r.policy.BreakerFailureRatio
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			return !classify(err).CountFailure
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit_breaker_state_change", "operation", name, "from", from.String(), "to", to.String())
		},
	})
	r.breakers[operation] = b
	return b
}

// IsCircuitOpen reports whether an error came from an open breaker rather
// than the call itself.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func neverRetry(error) Outcome {
	return Outcome{Retry: false, CountFailure: true}
}
