package completion

import (
	"context"
	"strings"
	"unicode/utf8"

	"digestly/internal/usecase/digest"
)

// Echo is an offline backend that answers with the tail of the prompt,
// truncated to roughly MaxTokens. It is used by tests and dry runs.
type Echo struct{}

// Name implements Backend.
func (Echo) Name() string { return "echo" }

// Complete implements Backend.
func (Echo) Complete(ctx context.Context, req digest.CompletionRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	text := req.Prompt
	if i := strings.LastIndex(text, "\n\n"); i >= 0 {
		text = text[i+2:]
	}
	text = strings.TrimSpace(text)

	// about four characters per token
	if limit := req.MaxTokens * 4; req.MaxTokens > 0 && utf8.RuneCountInString(text) > limit {
		text = string([]rune(text)[:limit])
	}
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
