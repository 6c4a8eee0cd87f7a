package digest

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"digestly/internal/domain/entity"
	"digestly/internal/observability/logging"
	"digestly/internal/observability/metrics"
	"digestly/internal/observability/tracing"
)

// Pipeline defaults.
const (
	DefaultChunkSize      = 7000
	DefaultMapConcurrency = 4
)

// PipelineConfig bounds the chunking and the map fan-out.
type PipelineConfig struct {
	// ChunkSize is the maximum chunk length in characters.
	ChunkSize int
	// MapConcurrency caps the number of map calls in flight.
	MapConcurrency int
}

// Result is the outcome of one pipeline run.
type Result struct {
	Summary string
	Chunks  int
	Detail  entity.DetailLevel
}

// Pipeline runs the map/reduce summarization over a Completer.
type Pipeline struct {
	completer Completer
	prompts   *PromptStore
	cfg       PipelineConfig
}

// NewPipeline creates a pipeline. Zero config values take the package defaults.
func NewPipeline(completer Completer, prompts *PromptStore, cfg PipelineConfig) *Pipeline {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.MapConcurrency <= 0 {
		cfg.MapConcurrency = DefaultMapConcurrency
	}
	if prompts == nil {
		prompts = NewPromptStore(DefaultPrompts())
	}
	return &Pipeline{completer: completer, prompts: prompts, cfg: cfg}
}

// Run splits src into chunks, summarizes each chunk independently and merges
// the partial summaries into one summary at the requested level.
// Any completion failure aborts the run; no partial output is returned.
func (p *Pipeline) Run(ctx context.Context, src entity.SourceText, level entity.DetailLevel) (*Result, error) {
	if src.IsBlank() {
		return nil, ErrEmptyInput
	}

	prompts := p.prompts.Load()
	resolved, combine := prompts.CombineFor(level)

	ctx, span := tracing.StartSpan(ctx, "digest.pipeline",
		attribute.String("digest.origin", src.Origin.String()),
		attribute.String("digest.detail", string(resolved)),
	)
	var err error
	defer func() { tracing.EndSpan(span, err) }()

	chunks := SplitChunks(src.Content, p.cfg.ChunkSize)
	metrics.RecordChunks(len(chunks))
	span.SetAttributes(attribute.Int("digest.chunks", len(chunks)))

	logger := logging.WithRequestID(ctx, slog.Default())
	logger.Debug("digest pipeline started",
		slog.Int("chunks", len(chunks)),
		slog.String("origin", src.Origin.String()),
		slog.String("detail", string(resolved)))

	partials, err := p.mapChunks(ctx, prompts, chunks, src.Origin)
	if err != nil {
		return nil, err
	}

	summary, err := p.combine(ctx, prompts, partials, combine, src.Origin)
	if err != nil {
		return nil, err
	}

	return &Result{Summary: summary, Chunks: len(chunks), Detail: resolved}, nil
}

// mapChunks summarizes every chunk with bounded concurrency.
// Results are stored by chunk index, so completion order does not matter.
func (p *Pipeline) mapChunks(ctx context.Context, prompts PromptSet, chunks []entity.Chunk, origin entity.Origin) ([]entity.PartialSummary, error) {
	start := time.Now()
	defer func() { metrics.RecordStageDuration(string(StageMap), time.Since(start)) }()

	partials := make([]entity.PartialSummary, len(chunks))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(p.cfg.MapConcurrency)

	for _, c := range chunks {
		eg.Go(func() error {
			text, err := p.completer.Complete(egCtx, CompletionRequest{
				Prompt:      prompts.mapPrompt(c, origin),
				MaxTokens:   prompts.MapMaxTokens,
				Temperature: prompts.MapTemperature,
			})
			if err != nil {
				return &CompletionError{Stage: StageMap, Chunk: c.Index, Err: err}
			}
			partials[c.Index] = entity.PartialSummary{Index: c.Index, Text: strings.TrimSpace(text)}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return partials, nil
}

func (p *Pipeline) combine(ctx context.Context, prompts PromptSet, partials []entity.PartialSummary, cp CombinePrompt, origin entity.Origin) (string, error) {
	start := time.Now()
	defer func() { metrics.RecordStageDuration(string(StageCombine), time.Since(start)) }()

	text, err := p.completer.Complete(ctx, CompletionRequest{
		Prompt:      prompts.combinePrompt(partials, cp.Instruction, origin),
		MaxTokens:   cp.MaxTokens,
		Temperature: prompts.CombineTemperature,
	})
	if err != nil {
		return "", &CompletionError{Stage: StageCombine, Chunk: -1, Err: err}
	}
	return strings.TrimSpace(text), nil
}
