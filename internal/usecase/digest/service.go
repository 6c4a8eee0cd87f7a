package digest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"

	"digestly/internal/domain/entity"
	"digestly/internal/observability/logging"
	"digestly/internal/observability/metrics"
	"digestly/internal/observability/tracing"
	"digestly/internal/repository"
	"digestly/internal/resilience/retry"
)

// DefaultMaxInputChars caps the length of a single source text.
const DefaultMaxInputChars = 500_000

// Config configures a Service.
type Config struct {
	ChunkSize      int
	MapConcurrency int
	// MaxInputChars rejects longer source texts with ErrInputTooLarge. Zero disables the check.
	MaxInputChars int
}

// SummarizeInput is the request for Service.Summarize.
type SummarizeInput struct {
	// CallerID identifies the session the source text is remembered for.
	// An empty CallerID summarizes without storing any context.
	CallerID string
	Source   entity.SourceText
	Detail   entity.DetailLevel
	// Label is recorded as the creation prompt (a URL or a short description).
	Label string
	// Publish marks the recorded summary as visible in the published listing.
	Publish bool
}

// SummaryResult is the response of Service.Summarize.
type SummaryResult struct {
	Summary string             `json:"summary"`
	Chunks  int                `json:"chunks"`
	Detail  entity.DetailLevel `json:"detail"`
	Origin  entity.Origin      `json:"origin"`
}

// Service provides summarization and follow-up question answering.
type Service struct {
	completer Completer
	prompts   *PromptStore
	pipeline  *Pipeline
	sessions  SessionStore
	creations repository.CreationRepository
	cfg       Config
}

// NewService creates a digest service. creations may be nil to disable the creations log.
func NewService(completer Completer, prompts *PromptStore, sessions SessionStore, creations repository.CreationRepository, cfg Config) *Service {
	if prompts == nil {
		prompts = NewPromptStore(DefaultPrompts())
	}
	return &Service{
		completer: completer,
		prompts:   prompts,
		pipeline: NewPipeline(completer, prompts, PipelineConfig{
			ChunkSize:      cfg.ChunkSize,
			MapConcurrency: cfg.MapConcurrency,
		}),
		sessions:  sessions,
		creations: creations,
		cfg:       cfg,
	}
}

// Summarize produces one summary for in.Source at the requested detail level
// and, on success, remembers the source text as the caller's session context.
func (s *Service) Summarize(ctx context.Context, in SummarizeInput) (*SummaryResult, error) {
	logger := logging.WithRequestID(ctx, slog.Default())
	// Metrics and spans only ever see a known level.
	detail, _ := s.prompts.Load().CombineFor(entity.ParseDetailLevel(string(in.Detail)))

	if in.Source.IsBlank() {
		metrics.RecordSummary(string(detail), false)
		return nil, ErrEmptyInput
	}
	if s.cfg.MaxInputChars > 0 && utf8.RuneCountInString(in.Source.Content) > s.cfg.MaxInputChars {
		metrics.RecordSummary(string(detail), false)
		return nil, fmt.Errorf("%w: limit is %d characters", ErrInputTooLarge, s.cfg.MaxInputChars)
	}

	start := time.Now()
	res, err := s.pipeline.Run(ctx, in.Source, detail)
	if err != nil {
		metrics.RecordSummary(string(detail), false)
		logger.Error("summarization failed",
			slog.String("caller_id", in.CallerID),
			slog.String("origin", in.Source.Origin.String()),
			slog.Any("error", err))
		return nil, err
	}

	if err := s.remember(ctx, logger, in.CallerID, in.Source); err != nil {
		metrics.RecordSummary(string(res.Detail), false)
		return nil, err
	}
	metrics.RecordSummary(string(res.Detail), true)

	logger.Info("summarization completed",
		slog.String("caller_id", in.CallerID),
		slog.String("origin", in.Source.Origin.String()),
		slog.String("detail", string(res.Detail)),
		slog.Int("chunks", res.Chunks),
		slog.Bool("publish", in.Publish),
		slog.Duration("duration", time.Since(start)))

	s.record(ctx, logger, &entity.Creation{
		UserID:  in.CallerID,
		Prompt:  creationPrompt(in, res.Detail),
		Content: res.Summary,
		Type:    entity.CreationSummary,
		Publish: in.Publish,
	})

	return &SummaryResult{
		Summary: res.Summary,
		Chunks:  res.Chunks,
		Detail:  res.Detail,
		Origin:  in.Source.Origin,
	}, nil
}

// Ask answers question using only the caller's most recently summarized text.
func (s *Service) Ask(ctx context.Context, callerID, question string) (string, error) {
	logger := logging.WithRequestID(ctx, slog.Default())
	question = strings.TrimSpace(question)
	if question == "" {
		metrics.RecordQuestion(false)
		return "", ErrEmptyQuestion
	}

	src, ok, err := s.lookup(ctx, callerID)
	if err != nil {
		metrics.RecordQuestion(false)
		return "", err
	}
	if !ok {
		metrics.RecordQuestion(false)
		return "", ErrNoContext
	}

	ctx, span := tracing.StartSpan(ctx, "digest.answer",
		attribute.Int("digest.context_chars", utf8.RuneCountInString(src.Content)))
	defer func() { tracing.EndSpan(span, err) }()

	prompts := s.prompts.Load()
	start := time.Now()
	answer, err := s.completer.Complete(ctx, CompletionRequest{
		Prompt:      prompts.answerPrompt(src.Content, question),
		MaxTokens:   prompts.AnswerMaxTokens,
		Temperature: prompts.AnswerTemperature,
	})
	metrics.RecordStageDuration(string(StageAnswer), time.Since(start))
	if err != nil {
		err = &CompletionError{Stage: StageAnswer, Chunk: -1, Err: err}
		metrics.RecordQuestion(false)
		logger.Error("question answering failed",
			slog.String("caller_id", callerID),
			slog.Any("error", err))
		return "", err
	}
	answer = strings.TrimSpace(answer)
	metrics.RecordQuestion(true)

	logger.Info("question answered",
		slog.String("caller_id", callerID),
		slog.Duration("duration", time.Since(start)))

	s.record(ctx, logger, &entity.Creation{
		UserID:  callerID,
		Prompt:  question,
		Content: answer,
		Type:    entity.CreationAnswer,
	})
	return answer, nil
}

// remember makes src the caller's session context. When the write fails the
// previous context is dropped, so a later Ask fails with ErrNoContext instead
// of answering from an older text. The error is returned only when the stale
// context could not be dropped either.
func (s *Service) remember(ctx context.Context, logger *slog.Logger, callerID string, src entity.SourceText) error {
	if callerID == "" || s.sessions == nil {
		return nil
	}
	putErr := s.sessions.Put(ctx, callerID, src)
	if putErr == nil {
		return nil
	}
	logger.Warn("failed to store session context, dropping the previous one",
		slog.String("caller_id", callerID),
		slog.Any("error", putErr))

	if err := s.sessions.Delete(ctx, callerID); err != nil {
		logger.Error("failed to drop stale session context",
			slog.String("caller_id", callerID),
			slog.Any("error", err))
		return fmt.Errorf("store session context: %w", errors.Join(putErr, err))
	}
	return nil
}

func (s *Service) lookup(ctx context.Context, callerID string) (entity.SourceText, bool, error) {
	if callerID == "" || s.sessions == nil {
		return entity.SourceText{}, false, nil
	}
	src, ok, err := s.sessions.Get(ctx, callerID)
	if err != nil {
		return entity.SourceText{}, false, fmt.Errorf("load session context: %w", err)
	}
	return src, ok, nil
}

// record stores a creation. Failures are logged and never fail the operation.
func (s *Service) record(ctx context.Context, logger *slog.Logger, c *entity.Creation) {
	if s.creations == nil || c.UserID == "" {
		return
	}
	err := retry.WithBackoff(ctx, retry.DBConfig(), func() error {
		return s.creations.Create(ctx, c)
	})
	if err != nil {
		var ve *entity.ValidationError
		level := slog.LevelWarn
		if errors.As(err, &ve) {
			level = slog.LevelError
		}
		logger.Log(ctx, level, "failed to record creation",
			slog.String("caller_id", c.UserID),
			slog.String("type", string(c.Type)),
			slog.Any("error", err))
	}
}

func creationPrompt(in SummarizeInput, detail entity.DetailLevel) string {
	if in.Label != "" {
		return in.Label
	}
	return fmt.Sprintf("%s summary of %s (%d characters)", detail, in.Source.Origin, utf8.RuneCountInString(in.Source.Content))
}
