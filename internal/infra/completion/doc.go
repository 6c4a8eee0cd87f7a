// Package completion implements the digest.Completer capability on top of
// hosted text-completion services.
//
// Three backends are available: an OpenAI-compatible endpoint (Gemini by
// default) via github.com/sashabaranov/go-openai, the official OpenAI API via
// github.com/openai/openai-go/v3 and Anthropic Claude via
// github.com/anthropics/anthropic-sdk-go. An offline Echo backend serves
// tests and dry runs.
//
// Every backend is wrapped by Guard, which applies a token-bucket rate limit,
// a per-call timeout, bounded retries of transient failures and a circuit
// breaker, and records Prometheus metrics for each call.
package completion
