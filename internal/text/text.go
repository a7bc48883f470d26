// Package text provides the pure text stages of the ingestion pipeline:
// whitespace normalization, bounded truncation, and fixed-width chunking.
//
// Every extraction path runs its output through Normalize before the text is
// chunked, embedded, or stored, so a single chunk never contains runs of
// whitespace that would waste embedding input.
package text

import (
	"strings"
	"unicode"
)

// DefaultChunkSize is the fixed chunk width in runes used by ingestion.
const DefaultChunkSize = 1000

// Normalize collapses every run of whitespace (spaces, newlines, tabs) into a
// single space and trims both ends.
func Normalize(s string) string {
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s))

	inSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			inSpace = true
			continue
		}
		if inSpace && b.Len() > 0 {
			b.WriteByte(' ')
		}
		inSpace = false
		b.WriteRune(r)
	}

	return b.String()
}

// Truncate returns at most n runes of s. Rune-based so multi-byte text is
// never cut mid-character.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// Chunk splits s into ordered, non-overlapping slices of at most size runes.
// Empty input yields nil; concatenating the result reproduces s exactly.
// There is deliberately no merging or semantic boundary awareness;
// downstream retrieval compensates via top-k ranking.
func Chunk(s string, size int) []string {
	if s == "" || size <= 0 {
		return nil
	}

	runes := []rune(s)
	chunks := make([]string, 0, (len(runes)+size-1)/size)
	for i := 0; i < len(runes); i += size {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
	}
	return chunks
}
