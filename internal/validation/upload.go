// Package validation checks uploaded documents before any parsing or provider
// call happens: file extension, size limits, PDF magic bytes and Markdown
// encoding. Messages are written for end users and are returned verbatim.
package validation

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

const (
	// MaxPDFSize is the default upload limit for audited policies (10MB)
	MaxPDFSize = 10 * 1024 * 1024
	// MaxMarkdownSize is the default upload limit for knowledge-base Markdown (5MB)
	MaxMarkdownSize = 5 * 1024 * 1024
)

var pdfMagic = []byte("%PDF-")

var markdownExtensions = map[string]bool{".md": true, ".markdown": true}

// ValidatePDF checks that an upload looks like a PDF within maxSize bytes
func ValidatePDF(filename string, data []byte, maxSize int64) error {
	if maxSize <= 0 {
		maxSize = MaxPDFSize
	}
	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return fmt.Errorf("only PDF files are supported")
	}
	if len(data) == 0 {
		return fmt.Errorf("uploaded file is empty")
	}
	if int64(len(data)) > maxSize {
		return fmt.Errorf("file exceeds maximum allowed size of %s", humanSize(maxSize))
	}
	// Readers accept the header anywhere in the first 1024 bytes.
	head := data[:min(len(data), 1024)]
	if !bytes.Contains(head, pdfMagic) {
		return fmt.Errorf("file is not a valid PDF document")
	}
	return nil
}

// ValidateMarkdown checks that an upload is UTF-8 Markdown within maxSize bytes
func ValidateMarkdown(filename string, data []byte, maxSize int64) error {
	if maxSize <= 0 {
		maxSize = MaxMarkdownSize
	}
	if !markdownExtensions[strings.ToLower(filepath.Ext(filename))] {
		return fmt.Errorf("only Markdown (.md) files are supported")
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("uploaded file is empty")
	}
	if int64(len(data)) > maxSize {
		return fmt.Errorf("file exceeds maximum allowed size of %s", humanSize(maxSize))
	}
	if !utf8.Valid(data) {
		return fmt.Errorf("markdown file must be UTF-8 encoded")
	}
	return nil
}

// SanitizeFilename strips any directory components from a client-supplied name.
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" {
		return ""
	}
	return name
}

func humanSize(n int64) string {
	const mb = 1024 * 1024
	if n >= mb && n%mb == 0 {
		return fmt.Sprintf("%dMB", n/mb)
	}
	return fmt.Sprintf("%d bytes", n)
}
