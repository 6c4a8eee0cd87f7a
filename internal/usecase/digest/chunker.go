package digest

import (
	"unicode/utf8"

	"digestly/internal/domain/entity"
)

// SplitChunks splits text into consecutive chunks of at most size characters.
//
// Characters are Unicode code points; an invalid byte counts as one character,
// so joining the chunk texts always reproduces text byte for byte. Every chunk
// but the last holds exactly size characters. Empty text yields no chunks and
// a non-positive size yields a single chunk.
func SplitChunks(text string, size int) []entity.Chunk {
	if text == "" {
		return nil
	}
	if size <= 0 {
		return []entity.Chunk{{Index: 0, Total: 1, Text: text}}
	}

	parts := make([]string, 0, utf8.RuneCountInString(text)/size+1)
	start, count := 0, 0
	for i := 0; i < len(text); {
		_, width := utf8.DecodeRuneInString(text[i:])
		i += width
		count++
		if count == size {
			parts = append(parts, text[start:i])
			start, count = i, 0
		}
	}
	if start < len(text) {
		parts = append(parts, text[start:])
	}

	chunks := make([]entity.Chunk, len(parts))
	for i, p := range parts {
		chunks[i] = entity.Chunk{Index: i, Total: len(parts), Text: p}
	}
	return chunks
}
