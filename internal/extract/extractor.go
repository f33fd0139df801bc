// Package extract provides text extraction from document bytes fetched off
// remote shares.
package extract

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Extractor extracts plain text from document content.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns the text content of the given bytes. ext selects the
// format and should include the leading dot (e.g. ".pdf"). Plain-text
// formats are returned as-is (UTF-8 validated); PDF, DOCX, and XLSX are
// decoded from their binary containers.
func (e *Extractor) Extract(content []byte, ext string) (string, error) {
	switch strings.ToLower(ext) {
	case ".pdf":
		return extractPDF(content)
	case ".docx":
		return extractDOCX(content)
	case ".xlsx":
		return extractExcel(content)
	case ".txt", ".md", ".rst", ".py", ".js", ".html", ".css", "":
		return extractPlain(content)
	default:
		return "", fmt.Errorf("unsupported format: %s", ext)
	}
}

// Supported reports whether ext has an extractor.
func (e *Extractor) Supported(ext string) bool {
	switch strings.ToLower(ext) {
	case ".pdf", ".docx", ".xlsx", ".txt", ".md", ".rst", ".py", ".js", ".html", ".css", "":
		return true
	default:
		return false
	}
}

// extractPlain returns content as a string, replacing invalid UTF-8 sequences
// with the replacement character.
func extractPlain(content []byte) (string, error) {
	if !utf8.Valid(content) {
		return strings.ToValidUTF8(string(content), "�"), nil
	}
	return string(content), nil
}
