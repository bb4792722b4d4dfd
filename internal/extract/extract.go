// Package extract turns document byte streams into bounded text chunks for
// scanning. Extractors are forward-only, non-restartable sequences and never
// fail outright: a parse error becomes a single diagnostic chunk so
// downstream scanning always receives text to work with.
package extract

import (
	"io"
	"iter"
	"strings"
	"unicode/utf8"
)

// Func produces successive text chunks from a byte source
type Func func(r io.Reader, chunkSize int) iter.Seq[string]

// ForType selects the extractor for a MIME type or file extension,
// defaulting to the plain-text extractor for unknown types.
func ForType(fileType string) Func {
	switch strings.TrimSpace(strings.ToLower(fileType)) {
	case "application/pdf", ".pdf", "pdf":
		return PDF
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/msword", ".docx", ".doc", "docx", "doc":
		return Document
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"application/vnd.ms-excel", ".xlsx", ".xls", "xlsx", "xls":
		return Spreadsheet
	case "text/csv", ".csv", "csv":
		return CSV
	default:
		return Plain
	}
}

// NeedsExtraction reports whether the type is a binary container whose raw
// bytes cannot be scanned as text.
func NeedsExtraction(fileType string) bool {
	switch strings.TrimSpace(strings.ToLower(fileType)) {
	case "application/pdf", ".pdf", "pdf",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/msword", ".docx", ".doc", "docx", "doc",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"application/vnd.ms-excel", ".xlsx", ".xls", "xlsx", "xls":
		return true
	default:
		return false
	}
}

// sliceFixed cuts a fully extracted text into fixed-size pieces. Used by the
// bounded-document extractors (docx, pdf) that cannot stream.
func sliceFixed(text string, chunkSize int, yield func(string) bool) {
	runes := []rune(text)
	for i := 0; i < len(runes); i += chunkSize {
		end := i + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		if !yield(string(runes[i:end])) {
			return
		}
	}
}

// cutPoint returns the largest index at or below limit that falls on a rune
// boundary, so a buffered cut never splits a multi-byte rune. Falls back to
// limit itself when the data is not UTF-8.
func cutPoint(s string, limit int) int {
	if limit >= len(s) {
		return len(s)
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	if cut == 0 {
		return limit
	}
	return cut
}

// decodePermissive decodes bytes as UTF-8, falling back to a permissive
// 8-bit decoding (each byte becomes its own rune) when the data is not
// valid UTF-8.
func decodePermissive(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	var b strings.Builder
	b.Grow(len(data))
	for _, c := range data {
		b.WriteRune(rune(c))
	}
	return b.String()
}
