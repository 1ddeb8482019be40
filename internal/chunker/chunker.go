// Package chunker splits long text into bounded segments for embedding.
//
// Both chunkers return an iter.Seq, so a result can be ranged over more than
// once and always yields the same finite, ordered sequence. Empty input
// yields nothing.
package chunker

import (
	"iter"
	"strings"
	"unicode/utf8"
)

const paragraphBreak = "\n\n"

// Words groups whitespace-separated words into chunks of at most maxChars
// characters, counting one separator per word. Chunks do not overlap. A single
// word longer than maxChars becomes its own chunk.
func Words(text string, maxChars int) iter.Seq[string] {
	return func(yield func(string) bool) {
		words := strings.Fields(text)
		var current []string
		length := 0
		for _, w := range words {
			n := utf8.RuneCountInString(w) + 1
			if length+n > maxChars && len(current) > 0 {
				if !yield(strings.Join(current, " ")) {
					return
				}
				current, length = current[:0], 0
			}
			current = append(current, w)
			length += n
		}
		if len(current) > 0 {
			yield(strings.Join(current, " "))
		}
	}
}

// Chars splits text into chunks of at most size characters where each chunk
// after the first repeats up to overlap characters of its predecessor. A cut
// prefers the last paragraph break in the second half of the window; without
// one the chunk is cut at exactly size characters.
func Chars(text string, size, overlap int) iter.Seq[string] {
	if overlap >= size {
		overlap = size - 1
	}
	if overlap < 0 {
		overlap = 0
	}
	return func(yield func(string) bool) {
		if size <= 0 || strings.TrimSpace(text) == "" {
			return
		}
		runes := []rune(text)
		n := len(runes)
		start := 0
		for start < n {
			end := min(start+size, n)
			if end < n {
				end = paragraphCut(runes, start, end, size)
			}
			if !yield(string(runes[start:end])) || end == n {
				return
			}
			start = max(end-overlap, start+1)
		}
	}
}

// paragraphCut returns the position just after the last paragraph break in
// runes[start+size/2 : end], or end when there is none.
func paragraphCut(runes []rune, start, end, size int) int {
	lo := start + size/2
	for i := end - 2; i >= lo; i-- {
		if runes[i] == '\n' && runes[i+1] == '\n' {
			return i + len(paragraphBreak)
		}
	}
	return end
}

// Collect drains seq into a slice.
func Collect(seq iter.Seq[string]) []string {
	out := []string{}
	for s := range seq {
		out = append(out, s)
	}
	return out
}
