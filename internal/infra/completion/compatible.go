package completion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"digestly/internal/resilience/retry"
	"digestly/internal/usecase/digest"
)

// CompatibleConfig configures a client for an OpenAI-compatible endpoint.
type CompatibleConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	// HTTPClient is optional.
	HTTPClient *http.Client
}

// Compatible talks to any endpoint implementing the OpenAI chat completions
// API, such as the Gemini OpenAI-compatible endpoint.
type Compatible struct {
	client *openai.Client
	model  string
}

// NewCompatible creates a client for cfg.BaseURL.
func NewCompatible(cfg CompatibleConfig) *Compatible {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	if cfg.HTTPClient != nil {
		clientCfg.HTTPClient = cfg.HTTPClient
	}
	return &Compatible{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}
}

// Name implements Backend.
func (c *Compatible) Name() string { return "compatible" }

// Complete implements Backend.
func (c *Compatible) Complete(ctx context.Context, req digest.CompletionRequest) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		MaxTokens:   req.MaxTokens,
		Temperature: float32(req.Temperature),
	})
	if err != nil {
		return "", compatibleError(err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyResponse
	}
	return content, nil
}

func compatibleError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("compatible api error: %w", &retry.HTTPError{StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message})
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("compatible api error: %w", &retry.HTTPError{StatusCode: reqErr.HTTPStatusCode, Message: reqErr.Error()})
	}
	return fmt.Errorf("compatible api error: %w", err)
}
