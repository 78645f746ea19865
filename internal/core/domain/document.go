package domain

// Segment is one raw text unit produced by a document loader, such as a PDF
// page or an email body part. Metadata travels with every chunk cut from it.
type Segment struct {
	Text     string
	Metadata map[string]any
}

// DocumentChunk is a bounded fragment of a segment, immutable once built and
// owned by the index after insertion. Metadata carries the source segment's
// fields plus the chunk's rune offset within the segment ("offset").
type DocumentChunk struct {
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ScoredChunk is a retrieval hit with its similarity score.
type ScoredChunk struct {
	Chunk DocumentChunk `json:"chunk"`
	Score float64       `json:"score"`
}

// Message is one chat turn in an interactive session.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

func MetadataString(meta map[string]any, key string) string {
	v, ok := meta[key]
	if !ok {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func MetadataInt(meta map[string]any, key string) int {
	switch v := meta[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
