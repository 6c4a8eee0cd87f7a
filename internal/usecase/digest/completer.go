package digest

import "context"

// Completer is the text completion capability the pipeline is built on.
// Implementations live in internal/infra/completion.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// CompletionRequest is a single prompt sent to the completion service.
type CompletionRequest struct {
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// CompleterFunc adapts an ordinary function to the Completer interface.
type CompleterFunc func(ctx context.Context, req CompletionRequest) (string, error)

// Complete calls f(ctx, req).
func (f CompleterFunc) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	return f(ctx, req)
}
