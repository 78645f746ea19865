package loader

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/richardlehane/mscfb"

	"github.com/clauseworks/decision-engine/internal/core/domain"
)

// parseDocx reads the main document part of the OOXML package and flattens
// its runs: paragraphs become blank-line separated blocks, explicit breaks
// and tabs are kept.
func (l *Loader) parseDocx(path string) ([]domain.Segment, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open docx package: %w", err)
	}
	defer archive.Close()

	for _, f := range archive.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open document part: %w", err)
		}
		defer rc.Close()

		text, err := flattenDocxXML(rc)
		if err != nil {
			return nil, fmt.Errorf("parse document part: %w", err)
		}
		return []domain.Segment{{Text: text}}, nil
	}
	return nil, fmt.Errorf("word/document.xml not found in package")
}

func flattenDocxXML(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var b strings.Builder
	inText := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "br", "cr":
				b.WriteByte('\n')
			case "tab":
				b.WriteByte('\t')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteString("\n\n")
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return b.String(), nil
}

// parseDoc does best-effort extraction from the legacy binary format: it
// reads the WordDocument stream out of the compound file and keeps the
// printable runs, trying both the single-byte and UTF-16LE encodings Word
// mixes within a file.
func (l *Loader) parseDoc(path string) ([]domain.Segment, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open doc: %w", err)
	}
	defer file.Close()

	compound, err := mscfb.New(file)
	if err != nil {
		return nil, fmt.Errorf("read compound file: %w", err)
	}

	for entry, err := compound.Next(); err == nil; entry, err = compound.Next() {
		if entry.Name != "WordDocument" {
			continue
		}
		stream, err := io.ReadAll(entry)
		if err != nil {
			return nil, fmt.Errorf("read WordDocument stream: %w", err)
		}
		text := extractWordStreamText(stream)
		if text == "" {
			return nil, fmt.Errorf("no text recovered from WordDocument stream")
		}
		return []domain.Segment{{Text: text}}, nil
	}
	return nil, fmt.Errorf("WordDocument stream not found")
}

const minDocRun = 8

func extractWordStreamText(stream []byte) string {
	single := printableRuns(stream, 1)
	wide := printableRuns(stream, 2)
	if len(wide) > len(single) {
		return wide
	}
	return single
}

// printableRuns scans the stream at the given byte stride (1 for cp-1252
// text, 2 for UTF-16LE) and keeps runs of at least minDocRun printable
// characters. Word's paragraph mark 0x0D maps to a newline.
func printableRuns(stream []byte, stride int) string {
	var out strings.Builder
	var run strings.Builder

	flush := func() {
		if run.Len() >= minDocRun {
			if out.Len() > 0 {
				out.WriteByte('\n')
			}
			out.WriteString(run.String())
		}
		run.Reset()
	}

	for i := 0; i+stride <= len(stream); i += stride {
		b := stream[i]
		if stride == 2 && stream[i+1] != 0 {
			flush()
			continue
		}
		switch {
		case b == 0x0d:
			run.WriteByte('\n')
		case b == 0x09:
			run.WriteByte('\t')
		case b >= 0x20 && b < 0x7f:
			run.WriteByte(b)
		default:
			flush()
		}
	}
	flush()
	return strings.TrimSpace(out.String())
}
