package digest

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digestly/internal/domain/entity"
)

func TestPipeline_Run_FifteenThousandCharacters(t *testing.T) {
	text := strings.Repeat("a", 7000) + strings.Repeat("b", 7000) + strings.Repeat("c", 1000)
	fake := &fakeCompleter{fn: func(_ context.Context, req CompletionRequest) (string, error) {
		switch promptKind(req.Prompt) {
		case "map":
			switch mapChunkText(req.Prompt)[0] {
			case 'a':
				return "P1", nil
			case 'b':
				return "P2", nil
			default:
				return "P3", nil
			}
		case "combine":
			return "  final summary\n", nil
		}
		return "", errors.New("unexpected prompt")
	}}
	p := NewPipeline(fake, nil, PipelineConfig{ChunkSize: 7000, MapConcurrency: 3})

	res, err := p.Run(context.Background(), entity.NewSourceText(text, entity.OriginTranscript), entity.DetailShort)

	require.NoError(t, err)
	assert.Equal(t, "final summary", res.Summary)
	assert.Equal(t, 3, res.Chunks)
	assert.Equal(t, entity.DetailShort, res.Detail)

	require.Len(t, fake.Calls(), 4)
	maps := fake.callsOf("map")
	require.Len(t, maps, 3)
	gotSizes := map[int]bool{}
	for _, c := range maps {
		gotSizes[len(mapChunkText(c.Prompt))] = true
	}
	assert.Equal(t, map[int]bool{7000: true, 1000: true}, gotSizes)

	combines := fake.callsOf("combine")
	require.Len(t, combines, 1)
	prompt := combines[0].Prompt
	assert.Contains(t, prompt, defaultShortInstruction)
	i1, i2, i3 := strings.Index(prompt, "P1"), strings.Index(prompt, "P2"), strings.Index(prompt, "P3")
	require.True(t, i1 >= 0 && i2 >= 0 && i3 >= 0)
	assert.Less(t, i1, i2)
	assert.Less(t, i2, i3)
}

func TestPipeline_Run_EmptyInputIssuesNoCalls(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t "} {
		fake := &fakeCompleter{}
		p := NewPipeline(fake, nil, PipelineConfig{})

		res, err := p.Run(context.Background(), entity.NewSourceText(text, entity.OriginDocument), entity.DetailShort)

		assert.Nil(t, res)
		assert.ErrorIs(t, err, ErrEmptyInput)
		assert.Empty(t, fake.Calls())
	}
}

func TestPipeline_Run_MapIsIndependentOfCompletionOrder(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&b, "segment-%02d;", i)
	}
	text := b.String() // 40 segments of 11 characters

	rng := rand.New(rand.NewSource(1))
	delays := make([]time.Duration, 40)
	for i := range delays {
		delays[i] = time.Duration(rng.Intn(3)) * time.Millisecond
	}

	fake := &fakeCompleter{fn: func(_ context.Context, req CompletionRequest) (string, error) {
		if promptKind(req.Prompt) == "map" {
			var idx int
			_, _ = fmt.Sscanf(mapChunkText(req.Prompt), "segment-%02d;", &idx)
			time.Sleep(delays[idx])
		}
		return echoResponse(req)
	}}
	p := NewPipeline(fake, nil, PipelineConfig{ChunkSize: 11, MapConcurrency: 8})

	res, err := p.Run(context.Background(), entity.NewSourceText(text, entity.OriginDocument), entity.DetailMedium)
	require.NoError(t, err)
	assert.Equal(t, 40, res.Chunks)

	last := -1
	for i := 0; i < 40; i++ {
		part := fmt.Sprintf("### Part %d\nnotes[segment-%02d;]", i+1, i)
		pos := strings.Index(res.Summary, part)
		require.GreaterOrEqual(t, pos, 0, "missing %q", part)
		assert.Greater(t, pos, last)
		last = pos
	}
}

func TestPipeline_Run_DetailInstructionSelection(t *testing.T) {
	defaults := DefaultPrompts()
	tests := []struct {
		level       entity.DetailLevel
		wantLevel   entity.DetailLevel
		instruction string
		maxTokens   int
	}{
		{entity.DetailShort, entity.DetailShort, defaultShortInstruction, defaults.Combine[entity.DetailShort].MaxTokens},
		{entity.DetailMedium, entity.DetailMedium, defaultMediumInstruction, defaults.Combine[entity.DetailMedium].MaxTokens},
		{entity.DetailDetailed, entity.DetailDetailed, defaultDetailedInstruction, defaults.Combine[entity.DetailDetailed].MaxTokens},
		{entity.DetailLevel("verbose"), entity.DetailMedium, defaultMediumInstruction, defaults.Combine[entity.DetailMedium].MaxTokens},
	}

	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			fake := &fakeCompleter{}
			p := NewPipeline(fake, nil, PipelineConfig{})

			res, err := p.Run(context.Background(), entity.NewSourceText("some text", entity.OriginDocument), tt.level)
			require.NoError(t, err)
			assert.Equal(t, tt.wantLevel, res.Detail)

			combines := fake.callsOf("combine")
			require.Len(t, combines, 1)
			assert.Contains(t, combines[0].Prompt, tt.instruction)
			assert.Equal(t, tt.maxTokens, combines[0].MaxTokens)
		})
	}
}

func TestPipeline_Run_MetadataFallbackNote(t *testing.T) {
	tests := []struct {
		origin   entity.Origin
		wantNote bool
	}{
		{entity.OriginMetadata, true},
		{entity.OriginTranscript, false},
		{entity.OriginDocument, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.origin), func(t *testing.T) {
			fake := &fakeCompleter{}
			p := NewPipeline(fake, nil, PipelineConfig{})

			_, err := p.Run(context.Background(), entity.NewSourceText("Title: A talk", tt.origin), entity.DetailShort)
			require.NoError(t, err)

			combines := fake.callsOf("combine")
			require.Len(t, combines, 1)
			if tt.wantNote {
				assert.Contains(t, combines[0].Prompt, defaultFallbackNote)
			} else {
				assert.NotContains(t, combines[0].Prompt, defaultFallbackNote)
			}
		})
	}
}

func TestPipeline_Run_MapFailureAborts(t *testing.T) {
	upstream := errors.New("upstream unavailable")
	fake := &fakeCompleter{fn: func(_ context.Context, req CompletionRequest) (string, error) {
		if promptKind(req.Prompt) == "map" && strings.HasPrefix(mapChunkText(req.Prompt), "bbbb") {
			return "", upstream
		}
		return echoResponse(req)
	}}
	p := NewPipeline(fake, nil, PipelineConfig{ChunkSize: 4, MapConcurrency: 1})

	res, err := p.Run(context.Background(), entity.NewSourceText("aaaabbbbcccc", entity.OriginDocument), entity.DetailShort)

	assert.Nil(t, res)
	require.Error(t, err)
	var cerr *CompletionError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, StageMap, cerr.Stage)
	assert.Equal(t, 1, cerr.Chunk)
	assert.ErrorIs(t, err, upstream)
	assert.Contains(t, err.Error(), "chunk 2")
	assert.Empty(t, fake.callsOf("combine"))
}

func TestPipeline_Run_CombineFailure(t *testing.T) {
	upstream := errors.New("rate limited")
	fake := &fakeCompleter{fn: func(_ context.Context, req CompletionRequest) (string, error) {
		if promptKind(req.Prompt) == "combine" {
			return "", upstream
		}
		return echoResponse(req)
	}}
	p := NewPipeline(fake, nil, PipelineConfig{})

	res, err := p.Run(context.Background(), entity.NewSourceText("text", entity.OriginDocument), entity.DetailShort)

	assert.Nil(t, res)
	var cerr *CompletionError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, StageCombine, cerr.Stage)
	assert.ErrorIs(t, err, upstream)
}

func TestPipeline_Run_UsesReplacedPrompts(t *testing.T) {
	store := NewPromptStore(DefaultPrompts())
	override := DefaultPrompts()
	override.Combine[entity.DetailShort] = CombinePrompt{Instruction: "Three bullets only.", MaxTokens: 99}
	require.NoError(t, store.Replace(override))

	fake := &fakeCompleter{}
	p := NewPipeline(fake, store, PipelineConfig{})

	_, err := p.Run(context.Background(), entity.NewSourceText("text", entity.OriginDocument), entity.DetailShort)
	require.NoError(t, err)

	combines := fake.callsOf("combine")
	require.Len(t, combines, 1)
	assert.True(t, strings.HasPrefix(combines[0].Prompt, "Three bullets only."))
	assert.Equal(t, 99, combines[0].MaxTokens)
}
