// Package extract turns uploaded documents into normalized plain text.
//
// Two failure modes are kept apart on purpose: ExtractionError means the
// document could not be parsed at all (corrupt, encrypted, image-only), while
// InsufficientContentError means parsing worked but produced too little text
// to audit.
package extract

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// ExtractionError reports a document that could not be parsed
type ExtractionError struct {
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("failed to extract text: %v", e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// InsufficientContentError reports a parsed document whose text is shorter than the minimum
type InsufficientContentError struct {
	Chars    int
	MinChars int
}

func (e *InsufficientContentError) Error() string {
	return fmt.Sprintf("extracted text too short: %d characters, need at least %d", e.Chars, e.MinChars)
}

// Normalize collapses every whitespace run to a single space and trims the ends.
func Normalize(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

// fromPages joins page texts, normalizes them and enforces the minimum length.
func fromPages(pages []string, minChars int) (string, error) {
	text := Normalize(strings.Join(pages, "\n"))
	if n := utf8.RuneCountInString(text); n < minChars {
		return "", &InsufficientContentError{Chars: n, MinChars: minChars}
	}
	return text, nil
}
