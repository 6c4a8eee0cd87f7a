package completion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"digestly/internal/resilience/retry"
	"digestly/internal/usecase/digest"
)

// claudeDefaultMaxTokens is used when a request carries no token budget;
// the Messages API requires one.
const claudeDefaultMaxTokens = 1024

// ClaudeConfig configures the Anthropic client.
type ClaudeConfig struct {
	APIKey string
	// BaseURL is optional.
	BaseURL string
	Model   string
	// HTTPClient is optional.
	HTTPClient *http.Client
}

// Claude calls Anthropic's Messages API.
type Claude struct {
	client anthropic.Client
	model  string
}

// NewClaude creates a Claude backend. SDK retries are disabled; Guard retries instead.
func NewClaude(cfg ClaudeConfig) *Claude {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	model := cfg.Model
	if model == "" {
		model = string(anthropic.ModelClaudeSonnet4_5_20250929)
	}
	return &Claude{
		client: anthropic.NewClient(opts...),
		model:  model,
	}
}

// Name implements Backend.
func (c *Claude) Name() string { return "claude" }

// Complete implements Backend.
func (c *Claude) Complete(ctx context.Context, req digest.CompletionRequest) (string, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = claudeDefaultMaxTokens
	}

	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   int64(maxTokens),
		Temperature: anthropic.Float(req.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("claude api error: %w", &retry.HTTPError{StatusCode: apiErr.StatusCode, Message: http.StatusText(apiErr.StatusCode)})
		}
		return "", fmt.Errorf("claude api error: %w", err)
	}

	var b strings.Builder
	for _, block := range message.Content {
		if textBlock, ok := block.AsAny().(anthropic.TextBlock); ok {
			b.WriteString(textBlock.Text)
		}
	}
	content := strings.TrimSpace(b.String())
	if content == "" {
		return "", ErrEmptyResponse
	}
	return content, nil
}
