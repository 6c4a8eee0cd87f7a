package digest

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"digestly/internal/domain/entity"
)

// CombinePrompt is the combine-step policy for one DetailLevel.
type CombinePrompt struct {
	Instruction string `yaml:"instruction"`
	MaxTokens   int    `yaml:"max_tokens"`
}

// PromptSet holds every instruction the pipeline sends to the completion
// service, keeping the prompt policy separate from the call plumbing.
type PromptSet struct {
	MapInstruction string  `yaml:"map_instruction"`
	MapMaxTokens   int     `yaml:"map_max_tokens"`
	MapTemperature float64 `yaml:"map_temperature"`

	// Combine is keyed by short, medium and detailed. Unknown levels use medium.
	Combine            map[entity.DetailLevel]CombinePrompt `yaml:"combine"`
	CombineTemperature float64                              `yaml:"combine_temperature"`

	// FallbackNote is added to the combine prompt when the source is metadata only.
	FallbackNote string `yaml:"fallback_note"`

	AnswerInstruction string  `yaml:"answer_instruction"`
	AnswerMaxTokens   int     `yaml:"answer_max_tokens"`
	AnswerTemperature float64 `yaml:"answer_temperature"`
}

const (
	defaultMapInstruction = "Rewrite the text below as concise bullet-point notes. " +
		"Keep facts, names, numbers, decisions and action items. " +
		"Do not repeat a point that is already listed in these notes and do not add anything that is not in the text."

	defaultShortInstruction = "Write a short summary: about 5 bullet points, " +
		"no more than roughly 120 words in total."

	defaultMediumInstruction = "Write a medium-length summary: 8 to 12 bullet points " +
		"covering the key ideas, important figures and any action items."

	defaultDetailedInstruction = "Write a detailed summary as a structured outline with section headings, " +
		"sub-bullets and concrete examples, between 300 and 600 words."

	defaultFallbackNote = "Only the title and description were available, not the full content. " +
		"Say clearly at the start that this summary is based on incomplete material (title and description only)."

	defaultAnswerInstruction = "You answer questions about the text below. " +
		"Use only information contained in the text. " +
		"If the text does not contain the answer, say that the information is not available in the text instead of guessing."
)

// DefaultPrompts returns the built-in prompt policy.
func DefaultPrompts() PromptSet {
	return PromptSet{
		MapInstruction: defaultMapInstruction,
		MapMaxTokens:   600,
		MapTemperature: 0.3,
		Combine: map[entity.DetailLevel]CombinePrompt{
			entity.DetailShort:    {Instruction: defaultShortInstruction, MaxTokens: 400},
			entity.DetailMedium:   {Instruction: defaultMediumInstruction, MaxTokens: 800},
			entity.DetailDetailed: {Instruction: defaultDetailedInstruction, MaxTokens: 1500},
		},
		CombineTemperature: 0.5,
		FallbackNote:       defaultFallbackNote,
		AnswerInstruction:  defaultAnswerInstruction,
		AnswerMaxTokens:    1000,
		AnswerTemperature:  0.5,
	}
}

// Validate checks that every instruction is present and token budgets are positive.
func (p PromptSet) Validate() error {
	var errs []error
	if strings.TrimSpace(p.MapInstruction) == "" {
		errs = append(errs, errors.New("map_instruction cannot be empty"))
	}
	if p.MapMaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("map_max_tokens must be positive, got %d", p.MapMaxTokens))
	}
	for _, level := range []entity.DetailLevel{entity.DetailShort, entity.DetailMedium, entity.DetailDetailed} {
		c, ok := p.Combine[level]
		if !ok || strings.TrimSpace(c.Instruction) == "" {
			errs = append(errs, fmt.Errorf("combine instruction for %q cannot be empty", level))
			continue
		}
		if c.MaxTokens <= 0 {
			errs = append(errs, fmt.Errorf("combine max_tokens for %q must be positive, got %d", level, c.MaxTokens))
		}
	}
	if strings.TrimSpace(p.FallbackNote) == "" {
		errs = append(errs, errors.New("fallback_note cannot be empty"))
	}
	if strings.TrimSpace(p.AnswerInstruction) == "" {
		errs = append(errs, errors.New("answer_instruction cannot be empty"))
	}
	if p.AnswerMaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("answer_max_tokens must be positive, got %d", p.AnswerMaxTokens))
	}
	return errors.Join(errs...)
}

// Merge returns a copy of p with every non-zero field of override applied.
// Combine entries are merged per level.
func (p PromptSet) Merge(override PromptSet) PromptSet {
	out := p
	out.Combine = make(map[entity.DetailLevel]CombinePrompt, len(p.Combine))
	for k, v := range p.Combine {
		out.Combine[k] = v
	}

	if override.MapInstruction != "" {
		out.MapInstruction = override.MapInstruction
	}
	if override.MapMaxTokens != 0 {
		out.MapMaxTokens = override.MapMaxTokens
	}
	if override.MapTemperature != 0 {
		out.MapTemperature = override.MapTemperature
	}
	for level, c := range override.Combine {
		merged := out.Combine[level]
		if c.Instruction != "" {
			merged.Instruction = c.Instruction
		}
		if c.MaxTokens != 0 {
			merged.MaxTokens = c.MaxTokens
		}
		out.Combine[level] = merged
	}
	if override.CombineTemperature != 0 {
		out.CombineTemperature = override.CombineTemperature
	}
	if override.FallbackNote != "" {
		out.FallbackNote = override.FallbackNote
	}
	if override.AnswerInstruction != "" {
		out.AnswerInstruction = override.AnswerInstruction
	}
	if override.AnswerMaxTokens != 0 {
		out.AnswerMaxTokens = override.AnswerMaxTokens
	}
	if override.AnswerTemperature != 0 {
		out.AnswerTemperature = override.AnswerTemperature
	}
	return out
}

// CombineFor resolves the combine policy for level.
// Unrecognized levels fall back to medium; the resolved level is returned.
func (p PromptSet) CombineFor(level entity.DetailLevel) (entity.DetailLevel, CombinePrompt) {
	if c, ok := p.Combine[level]; ok && level.Known() {
		return level, c
	}
	return entity.DetailMedium, p.Combine[entity.DetailMedium]
}

// materialName describes the source for prompt framing.
func materialName(origin entity.Origin) string {
	switch origin {
	case entity.OriginTranscript:
		return "video transcript"
	case entity.OriginMetadata:
		return "video title and description (no transcript was available)"
	default:
		return "document"
	}
}

func (p PromptSet) mapPrompt(chunk entity.Chunk, origin entity.Origin) string {
	var b strings.Builder
	b.WriteString(p.MapInstruction)
	fmt.Fprintf(&b, "\n\nThis is part %d of %d of a %s.", chunk.Index+1, chunk.Total, materialName(origin))
	b.WriteString("\n\nText:\n")
	b.WriteString(chunk.Text)
	return b.String()
}

func (p PromptSet) combinePrompt(partials []entity.PartialSummary, instruction string, origin entity.Origin) string {
	var b strings.Builder
	b.WriteString(instruction)
	if origin == entity.OriginMetadata {
		b.WriteString("\n")
		b.WriteString(p.FallbackNote)
	}
	fmt.Fprintf(&b, "\n\nThe notes below were taken from %d consecutive parts of the same %s, in order. ",
		len(partials), materialName(origin))
	b.WriteString("Merge them into one coherent summary: remove points repeated across parts, " +
		"keep a logical order and format the result as Markdown.")
	b.WriteString("\n\nNotes:")
	for _, ps := range partials {
		fmt.Fprintf(&b, "\n\n### Part %d\n%s", ps.Index+1, ps.Text)
	}
	return b.String()
}

func (p PromptSet) answerPrompt(text, question string) string {
	var b strings.Builder
	b.WriteString(p.AnswerInstruction)
	b.WriteString("\n\nText:\n")
	b.WriteString(text)
	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\n\nAnswer clearly and concisely:")
	return b.String()
}

// PromptStore holds the active PromptSet and allows swapping it at runtime.
// It is safe for concurrent use.
type PromptStore struct {
	current atomic.Pointer[PromptSet]
}

// NewPromptStore creates a store holding p.
func NewPromptStore(p PromptSet) *PromptStore {
	s := &PromptStore{}
	s.current.Store(&p)
	return s
}

// Load returns the active prompt set.
func (s *PromptStore) Load() PromptSet {
	return *s.current.Load()
}

// Replace validates p and makes it the active prompt set.
// In-flight pipeline runs keep the set they started with.
func (s *PromptStore) Replace(p PromptSet) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("invalid prompt set: %w", err)
	}
	s.current.Store(&p)
	return nil
}
