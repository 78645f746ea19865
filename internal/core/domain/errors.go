package domain

import (
	"errors"
	"fmt"
)

// Failure kinds of the document-to-answer pipeline. The per-document kinds
// (unsupported type, load, download) are skippable at the batch level.
// ErrEmbedding is fatal for the request that hit it: without an index there
// is nothing to answer from. The query kinds apply to a single question only.
var (
	ErrUnsupportedType = errors.New("unsupported document type")
	ErrLoad            = errors.New("document load failed")
	ErrDownload        = errors.New("document download failed")
	ErrEmbedding       = errors.New("embedding failed")
	ErrNoDocuments     = errors.New("no documents could be processed")
	ErrEmptyQuery      = errors.New("query cannot be empty")
	ErrMissingIndex    = errors.New("vector index not found")
	ErrTemporary       = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
