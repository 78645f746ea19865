package loader

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/clauseworks/decision-engine/internal/core/domain"
)

type parseFunc func(path string) ([]domain.Segment, error)

// Loader dispatches on file extension and turns a local document into text
// segments. Each parser keeps the document's natural units (PDF pages, email
// parts) as separate segments so their metadata survives chunking.
type Loader struct {
	logger  *slog.Logger
	parsers map[string]parseFunc
}

func New(logger *slog.Logger) *Loader {
	l := &Loader{logger: logger}
	l.parsers = map[string]parseFunc{
		".pdf":  l.parsePDF,
		".docx": l.parseDocx,
		".doc":  l.parseDoc,
		".txt":  l.parseText,
		".eml":  l.parseEmail,
	}
	return l
}

// Supported reports whether the file's extension maps to a parser. The bulk
// ingester uses this to skip foreign files while walking a directory.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf", ".docx", ".doc", ".txt", ".eml":
		return true
	}
	return false
}

func (l *Loader) Load(ctx context.Context, path string) ([]domain.Segment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := filepath.Base(path)
	ext := strings.ToLower(filepath.Ext(path))
	parse, ok := l.parsers[ext]
	if !ok {
		return nil, domain.WrapError(domain.ErrUnsupportedType, "load "+name, fmt.Errorf("extension %q", ext))
	}

	segments, err := parse(path)
	if err != nil {
		return nil, domain.WrapError(domain.ErrLoad, "load "+name, err)
	}

	out := make([]domain.Segment, 0, len(segments))
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		if seg.Metadata == nil {
			seg.Metadata = map[string]any{}
		}
		seg.Metadata["source"] = name
		seg.Text = text
		out = append(out, seg)
	}

	l.logger.Debug("document loaded", "file", name, "segments", len(out))
	return out, nil
}
