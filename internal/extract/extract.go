// Package extract converts uploaded documents into bounded plain text for use
// as answer-engine context.
package extract

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"
)

// MaxDocumentChars bounds extracted text length. This is a cost control on
// answer-engine context size, not a correctness bound.
const MaxDocumentChars = 8000

// maxReadBytes caps how much of an uploaded file is read before extraction.
const maxReadBytes = 4 << 20 // 4 MiB

// Extractor converts an uploaded file into plain text. Implementations return
// an empty string (not an error) when no text is recoverable.
type Extractor interface {
	Extract(ctx context.Context, filename string, r io.Reader) (string, error)
}

// TextExtractor extracts printable text from an uploaded file. Binary content
// that yields no recoverable text degrades to an empty result.
type TextExtractor struct{}

// NewTextExtractor creates a plain-text extractor.
func NewTextExtractor() *TextExtractor {
	return &TextExtractor{}
}

// Extract reads the file and returns its textual content truncated to
// MaxDocumentChars. Invalid UTF-8 sequences and control characters are
// dropped rather than failing the extraction.
func (e *TextExtractor) Extract(ctx context.Context, filename string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := io.ReadAll(io.LimitReader(r, maxReadBytes))
	if err != nil {
		slog.Error("extract.Extract: read failed", "error", err, "filename", filename)
		return "", fmt.Errorf("failed to read document %s: %w", filename, err)
	}

	text := sanitize(string(data))
	text = Truncate(text, MaxDocumentChars)
	slog.Debug("extract.Extract: document extracted", "filename", filename, "chars", len(text))
	return text, nil
}

// Truncate bounds s to at most max bytes without splitting a UTF-8 sequence.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := s[:max]
	for !utf8.ValidString(cut) && len(cut) > 0 {
		cut = cut[:len(cut)-1]
	}
	return cut
}

// sanitize drops non-printable characters while preserving line structure.
func sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n' || r == '\t':
			b.WriteRune(r)
		case r == '\r':
			// normalized away
		case r == utf8.RuneError:
			// dropped: undecodable byte
		case r >= 32:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
