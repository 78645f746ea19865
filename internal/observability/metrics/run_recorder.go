package metrics

import (
	"context"
	"strings"

	"github.com/clauseworks/decision-engine/internal/core/domain"
	"github.com/clauseworks/decision-engine/internal/core/ports"
)

// RunRecorder derives pipeline metrics from batch run audit records and
// forwards them to the wrapped recorder, if any. Deriving from the record
// keeps the use case free of metrics plumbing.
type RunRecorder struct {
	service string
	metrics *HTTPServerMetrics
	next    ports.RunRecorder
}

func NewRunRecorder(service string, m *HTTPServerMetrics, next ports.RunRecorder) *RunRecorder {
	return &RunRecorder{service: service, metrics: m, next: next}
}

func (r *RunRecorder) RecordRun(ctx context.Context, run *domain.BatchRun) error {
	r.metrics.RecordRun(r.service, run.Duration)
	r.metrics.RecordDocuments(r.service, run.DocumentCount, run.DocumentsSkipped)
	r.metrics.RecordQuestions(r.service, run.QuestionCount)
	for _, answer := range run.Answers {
		r.metrics.RecordDecision(r.service, verdictOf(answer))
	}

	if r.next != nil {
		return r.next.RecordRun(ctx, run)
	}
	return nil
}

// verdictOf recovers the verdict label from a formatted answer line.
func verdictOf(answer string) string {
	if strings.HasPrefix(answer, "Error processing question") {
		return "question_error"
	}
	rest := strings.TrimPrefix(answer, "Decision: ")
	if rest == answer {
		return "unknown"
	}
	if i := strings.Index(rest, ","); i > 0 {
		return rest[:i]
	}
	return rest
}
