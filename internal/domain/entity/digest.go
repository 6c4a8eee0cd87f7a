package entity

import "strings"

// DetailLevel selects the verbosity of the combined summary.
// Values outside the known set are preserved; the prompt set resolves them.
type DetailLevel string

const (
	DetailShort    DetailLevel = "short"
	DetailMedium   DetailLevel = "medium"
	DetailDetailed DetailLevel = "detailed"
)

// ParseDetailLevel normalizes a raw string. Empty input selects DetailShort,
// which is what the web client sends by default.
func ParseDetailLevel(s string) DetailLevel {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DetailShort
	}
	return DetailLevel(s)
}

// Known reports whether d is one of the recognized levels.
func (d DetailLevel) Known() bool {
	switch d {
	case DetailShort, DetailMedium, DetailDetailed:
		return true
	}
	return false
}

// Chunk is a contiguous slice of a SourceText.
// Index is zero-based; Total is the number of chunks in the sequence.
type Chunk struct {
	Index int
	Total int
	Text  string
}

// PartialSummary is the map-step output for exactly one Chunk.
type PartialSummary struct {
	Index int
	Text  string
}
