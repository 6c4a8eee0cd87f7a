package source

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"digestly/internal/domain/entity"

	"github.com/go-shiori/go-readability"
)

// FetchDocument downloads rawURL and extracts its readable text.
// Plain-text responses are used as they are.
func (f *Fetcher) FetchDocument(ctx context.Context, rawURL string) (entity.SourceText, error) {
	p, err := f.download(ctx, rawURL)
	if err != nil {
		return entity.SourceText{}, err
	}

	if p.contentType == "text/plain" {
		text := normalizeText(string(p.body))
		if text == "" {
			return entity.SourceText{}, ErrNoContent
		}
		return entity.NewSourceText(text, entity.OriginDocument), nil
	}

	article, err := readability.FromReader(bytes.NewReader(p.body), p.url)
	if err != nil {
		return entity.SourceText{}, fmt.Errorf("%w: %v", ErrNoContent, err)
	}

	text := normalizeText(article.TextContent)
	if text == "" {
		return entity.SourceText{}, ErrNoContent
	}
	if title := strings.TrimSpace(article.Title); title != "" && !strings.HasPrefix(text, title) {
		text = title + "\n\n" + text
	}
	return entity.NewSourceText(text, entity.OriginDocument), nil
}

// normalizeText trims every line and collapses runs of blank lines into one.
func normalizeText(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		out = append(out, line)
		blank = false
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
