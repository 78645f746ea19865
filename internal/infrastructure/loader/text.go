package loader

import (
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/clauseworks/decision-engine/internal/core/domain"
)

func (l *Loader) parseText(path string) ([]domain.Segment, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read text file: %w", err)
	}
	if !utf8.Valid(raw) {
		return nil, fmt.Errorf("file is not valid utf-8 text")
	}
	return []domain.Segment{{Text: string(raw)}}, nil
}
