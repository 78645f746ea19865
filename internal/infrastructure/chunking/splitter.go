package chunking

import (
	"strings"
	"unicode/utf8"

	"github.com/clauseworks/decision-engine/internal/core/domain"
)

// Splitter cuts segment text into chunks of at most ChunkSize runes where
// consecutive chunks from one segment share exactly Overlap runes. Chunk
// boundaries prefer paragraph, line, sentence and word breaks, in that
// order, before falling back to a hard cut. Chunks are exact substrings of
// the source; each carries its rune offset so the original text remains
// reconstructable.
type Splitter struct {
	ChunkSize int
	Overlap   int
}

// Cut-point preference order mirrors the recursive character splitting most
// ingestion pipelines use.
var boundaries = []string{"\n\n", "\n", ". ", " "}

func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 1200
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &Splitter{
		ChunkSize: chunkSize,
		Overlap:   overlap,
	}
}

func (s *Splitter) Split(segments []domain.Segment) []domain.DocumentChunk {
	var out []domain.DocumentChunk
	for _, seg := range segments {
		for _, p := range s.splitText(seg.Text) {
			meta := make(map[string]any, len(seg.Metadata)+1)
			for k, v := range seg.Metadata {
				meta[k] = v
			}
			meta["offset"] = p.offset
			out = append(out, domain.DocumentChunk{Text: p.text, Metadata: meta})
		}
	}
	return out
}

type piece struct {
	text   string
	offset int
}

func (s *Splitter) splitText(text string) []piece {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= s.ChunkSize {
		return []piece{{text: text, offset: 0}}
	}

	var pieces []piece
	start := 0
	for {
		end := start + s.ChunkSize
		if end >= len(runes) {
			pieces = append(pieces, piece{text: string(runes[start:]), offset: start})
			break
		}
		end = s.cutPoint(runes, start, end)
		pieces = append(pieces, piece{text: string(runes[start:end]), offset: start})

		next := end - s.Overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}
	return pieces
}

// cutPoint moves a window's end back to the last boundary inside it, unless
// that would shrink the chunk below half the target, in which case the hard
// character cut stands.
func (s *Splitter) cutPoint(runes []rune, start, end int) int {
	window := string(runes[start:end])
	minLen := s.ChunkSize / 2
	for _, sep := range boundaries {
		idx := strings.LastIndex(window, sep)
		if idx < 0 {
			continue
		}
		cut := utf8.RuneCountInString(window[:idx]) + utf8.RuneCountInString(sep)
		if cut >= minLen {
			return start + cut
		}
	}
	return end
}
