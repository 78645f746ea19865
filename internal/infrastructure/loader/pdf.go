package loader

import (
	"fmt"
	"os"

	"github.com/ledongthuc/pdf"

	"github.com/clauseworks/decision-engine/internal/core/domain"
)

// parsePDF yields one segment per page. Pages whose text extraction fails
// are skipped; a document where every page fails still loads as empty and
// the caller decides whether that matters.
func (l *Loader) parsePDF(path string) ([]domain.Segment, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat pdf: %w", err)
	}

	reader, err := pdf.NewReader(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}

	segments := make([]domain.Segment, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			l.logger.Warn("pdf page extraction failed", "path", path, "page", i, "error", err)
			continue
		}
		segments = append(segments, domain.Segment{
			Text:     text,
			Metadata: map[string]any{"page": i},
		})
	}
	return segments, nil
}
