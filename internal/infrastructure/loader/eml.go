package loader

import (
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"os"
	"strings"

	"github.com/clauseworks/decision-engine/internal/core/domain"
)

// parseEmail yields one segment per text part of the message. The subject
// line is prefixed to the first segment so it stays retrievable.
func (l *Loader) parseEmail(path string) ([]domain.Segment, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open eml: %w", err)
	}
	defer file.Close()

	msg, err := mail.ReadMessage(file)
	if err != nil {
		return nil, fmt.Errorf("parse message: %w", err)
	}

	subject := msg.Header.Get("Subject")
	mediaType, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	if err != nil {
		mediaType = "text/plain"
	}

	var bodies []string
	if strings.HasPrefix(mediaType, "multipart/") {
		bodies, err = textParts(msg.Body, params["boundary"])
		if err != nil {
			return nil, err
		}
	} else {
		body, err := decodeBody(msg.Body, msg.Header.Get("Content-Transfer-Encoding"))
		if err != nil {
			return nil, err
		}
		bodies = []string{body}
	}

	segments := make([]domain.Segment, 0, len(bodies))
	for i, body := range bodies {
		if i == 0 && subject != "" {
			body = "Subject: " + subject + "\n\n" + body
		}
		segments = append(segments, domain.Segment{
			Text:     body,
			Metadata: map[string]any{"part": i},
		})
	}
	return segments, nil
}

func textParts(body io.Reader, boundary string) ([]string, error) {
	if boundary == "" {
		return nil, fmt.Errorf("multipart message without boundary")
	}

	var out []string
	mr := multipart.NewReader(body, boundary)
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read message part: %w", err)
		}

		partType, params, err := mime.ParseMediaType(part.Header.Get("Content-Type"))
		if err != nil {
			partType = "text/plain"
		}
		switch {
		case strings.HasPrefix(partType, "multipart/"):
			nested, err := textParts(part, params["boundary"])
			if err != nil {
				return nil, err
			}
			out = append(out, nested...)
		case partType == "text/plain":
			text, err := decodeBody(part, part.Header.Get("Content-Transfer-Encoding"))
			if err != nil {
				return nil, err
			}
			out = append(out, text)
		}
	}
	return out, nil
}

func decodeBody(r io.Reader, encoding string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "quoted-printable":
		r = quotedprintable.NewReader(r)
	case "base64":
		r = base64.NewDecoder(base64.StdEncoding, r)
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("decode message body: %w", err)
	}
	return string(raw), nil
}
