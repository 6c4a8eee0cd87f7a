package promptfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digestly/internal/domain/entity"
	"digestly/internal/usecase/digest"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestParse_MergesOntoDefaults(t *testing.T) {
	data := []byte(`
map_instruction: "Summarize this part in bullets."
combine:
  short:
    instruction: "Three bullets only."
  detailed:
    max_tokens: 2000
answer_temperature: 0.1
`)

	got, err := Parse(data)

	require.NoError(t, err)
	def := digest.DefaultPrompts()
	assert.Equal(t, "Summarize this part in bullets.", got.MapInstruction)
	assert.Equal(t, def.MapMaxTokens, got.MapMaxTokens)
	assert.Equal(t, "Three bullets only.", got.Combine[entity.DetailShort].Instruction)
	assert.Equal(t, def.Combine[entity.DetailShort].MaxTokens, got.Combine[entity.DetailShort].MaxTokens)
	assert.Equal(t, def.Combine[entity.DetailDetailed].Instruction, got.Combine[entity.DetailDetailed].Instruction)
	assert.Equal(t, 2000, got.Combine[entity.DetailDetailed].MaxTokens)
	assert.Equal(t, def.Combine[entity.DetailMedium], got.Combine[entity.DetailMedium])
	assert.InDelta(t, 0.1, got.AnswerTemperature, 1e-9)
}

func TestParse_Empty(t *testing.T) {
	got, err := Parse(nil)

	require.NoError(t, err)
	assert.Equal(t, digest.DefaultPrompts(), got)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		errMsg string
	}{
		{name: "unknown key", data: "map_instructions: typo\n", errMsg: "parse prompts file"},
		{name: "malformed", data: "map_instruction: [unclosed\n", errMsg: "parse prompts file"},
		{name: "invalid budget", data: "map_max_tokens: -5\n", errMsg: "map_max_tokens must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	writeFile(t, path, "fallback_note: \"Metadata only.\"\n")

	got, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "Metadata only.", got.FallbackNote)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))

	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
