package entity

import (
	"fmt"
	"strings"
)

// Origin tags where a SourceText came from.
type Origin string

const (
	// OriginTranscript is the full spoken text of a video or recording.
	OriginTranscript Origin = "transcript"
	// OriginMetadata is a fallback made of a title, description and similar
	// fields when no transcript could be obtained.
	OriginMetadata Origin = "metadata"
	// OriginDocument is text extracted from a page or a file.
	OriginDocument Origin = "document"
)

// ParseOrigin converts a raw string into an Origin.
// An empty string selects OriginDocument.
func ParseOrigin(s string) (Origin, error) {
	switch o := Origin(strings.ToLower(strings.TrimSpace(s))); o {
	case "":
		return OriginDocument, nil
	case OriginTranscript, OriginMetadata, OriginDocument:
		return o, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidOrigin, s)
	}
}

// String implements fmt.Stringer.
func (o Origin) String() string {
	return string(o)
}

// SourceText is the material handed to the summarization pipeline.
// It is treated as immutable once constructed.
type SourceText struct {
	Content string `json:"content"`
	Origin  Origin `json:"origin"`
}

// NewSourceText builds a SourceText, defaulting an empty origin to document.
func NewSourceText(content string, origin Origin) SourceText {
	if origin == "" {
		origin = OriginDocument
	}
	return SourceText{Content: content, Origin: origin}
}

// IsBlank reports whether the content is empty or whitespace only.
func (s SourceText) IsBlank() bool {
	return strings.TrimSpace(s.Content) == ""
}

// IsFallback reports whether the material is incomplete (metadata only)
// rather than the full content.
func (s SourceText) IsFallback() bool {
	return s.Origin == OriginMetadata
}
