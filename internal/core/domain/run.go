package domain

import "time"

// BatchRun is the audit record of one stateless batch request.
type BatchRun struct {
	ID               string        `json:"id"`
	DocumentCount    int           `json:"document_count"`
	DocumentsSkipped int           `json:"documents_skipped"`
	QuestionCount    int           `json:"question_count"`
	Answers          []string      `json:"answers"`
	Duration         time.Duration `json:"duration"`
	CreatedAt        time.Time     `json:"created_at"`
}
