package promptfile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"digestly/internal/usecase/digest"
)

// reloadDelay coalesces the burst of events a single save produces.
const reloadDelay = 200 * time.Millisecond

// Watcher reloads a prompts file into a PromptStore whenever it changes.
// The parent directory is watched so editors that replace the file by
// rename are picked up too.
type Watcher struct {
	path    string
	store   *digest.PromptStore
	watcher *fsnotify.Watcher
	logger  *slog.Logger
}

// NewWatcher starts watching path. Call Run to process events and Close
// when done.
func NewWatcher(path string, store *digest.PromptStore, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve prompts path: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("add watch path: %w", err)
	}

	return &Watcher{
		path:    abs,
		store:   store,
		watcher: fw,
		logger:  logger.With(slog.String("prompts_file", abs)),
	}, nil
}

// Run blocks until ctx is done. A file that fails to load or validate is
// logged and the previous prompts stay active.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info("prompt watcher started")

	timer := time.NewTimer(reloadDelay)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("prompt watcher stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			timer.Reset(reloadDelay)

		case <-timer.C:
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			w.logger.Error("prompt watcher error", slog.Any("error", err))
		}
	}
}

func (w *Watcher) reload() {
	prompts, err := Load(w.path)
	if err != nil {
		w.logger.Warn("prompts file rejected, keeping previous prompts", slog.Any("error", err))
		return
	}
	if err := w.store.Replace(prompts); err != nil {
		w.logger.Warn("prompts file rejected, keeping previous prompts", slog.Any("error", err))
		return
	}
	w.logger.Info("prompts reloaded")
}

// Close stops watching the file system.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
