package promptfile

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digestly/internal/usecase/digest"
)

func startWatcher(t *testing.T, path string, store *digest.PromptStore) {
	t.Helper()
	w, err := NewWatcher(path, store, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-done)
		assert.NoError(t, w.Close())
	})
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	writeFile(t, path, "map_instruction: first\n")
	initial, err := Load(path)
	require.NoError(t, err)
	store := digest.NewPromptStore(initial)

	startWatcher(t, path, store)
	writeFile(t, path, "map_instruction: second\n")

	require.Eventually(t, func() bool {
		return store.Load().MapInstruction == "second"
	}, 5*time.Second, 20*time.Millisecond)
}

func TestWatcher_KeepsPreviousOnInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	writeFile(t, path, "map_instruction: stable\n")
	initial, err := Load(path)
	require.NoError(t, err)
	store := digest.NewPromptStore(initial)

	startWatcher(t, path, store)
	writeFile(t, path, "answer_max_tokens: 0\nmap_max_tokens: -1\n")
	time.Sleep(3 * reloadDelay)
	assert.Equal(t, "stable", store.Load().MapInstruction)

	writeFile(t, path, "map_instruction: fixed\n")
	require.Eventually(t, func() bool {
		return store.Load().MapInstruction == "fixed"
	}, 5*time.Second, 20*time.Millisecond)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prompts.yaml")
	writeFile(t, path, "map_instruction: mine\n")
	initial, err := Load(path)
	require.NoError(t, err)
	store := digest.NewPromptStore(initial)

	startWatcher(t, path, store)
	writeFile(t, filepath.Join(dir, "other.yaml"), "map_instruction: theirs\n")
	time.Sleep(3 * reloadDelay)

	assert.Equal(t, "mine", store.Load().MapInstruction)
}
