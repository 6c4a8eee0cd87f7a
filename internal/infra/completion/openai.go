package completion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"digestly/internal/resilience/retry"
	"digestly/internal/usecase/digest"
)

// OpenAIConfig configures the official OpenAI client.
type OpenAIConfig struct {
	APIKey string
	// BaseURL is optional.
	BaseURL string
	Model   string
	// HTTPClient is optional.
	HTTPClient *http.Client
}

// OpenAI calls the OpenAI Chat Completions API.
type OpenAI struct {
	client openai.Client
	model  string
}

// NewOpenAI creates an OpenAI backend. SDK retries are disabled; Guard retries instead.
func NewOpenAI(cfg OpenAIConfig) *OpenAI {
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
	return &OpenAI{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
	}
}

// Name implements Backend.
func (o *OpenAI) Name() string { return "openai" }

// Complete implements Backend.
func (o *OpenAI) Complete(ctx context.Context, req digest.CompletionRequest) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(req.Prompt),
		},
		Temperature: openai.Float(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxTokens))
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("openai api error: %w", &retry.HTTPError{StatusCode: apiErr.StatusCode, Message: apiErr.Message})
		}
		return "", fmt.Errorf("openai api error: %w", err)
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
