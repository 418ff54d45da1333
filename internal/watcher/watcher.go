// Package watcher re-runs an action when a file on disk changes.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce collapses editor save bursts into one change
const DefaultDebounce = 500 * time.Millisecond

// ChangeFunc handles a settled change to the watched file
type ChangeFunc func(ctx context.Context, path string) error

// Watcher watches a single file for changes
type Watcher struct {
	path     string
	onChange ChangeFunc
	debounce time.Duration
	logger   *zap.Logger

	// serializes onChange so a slow handler never overlaps the next run
	run sync.Mutex
}

// New creates a new file watcher
func New(path string, onChange ChangeFunc, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		path:     path,
		onChange: onChange,
		debounce: DefaultDebounce,
		logger:   logger,
	}
}

// WithDebounce sets the debounce duration
func (w *Watcher) WithDebounce(d time.Duration) *Watcher {
	w.debounce = d
	return w
}

// Watch starts watching the file for changes.
// It blocks until the context is cancelled or the watcher fails.
func (w *Watcher) Watch(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fw.Close()

	absPath, err := filepath.Abs(w.path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", w.path, err)
	}

	// Watch the directory so files replaced by editors are still seen
	dir := filepath.Dir(absPath)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w.logger.Info("watching file", zap.String("path", absPath), zap.Duration("debounce", w.debounce))

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != absPath {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				w.fire(ctx, absPath)
			})

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", zap.Error(err))

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (w *Watcher) fire(ctx context.Context, path string) {
	if ctx.Err() != nil {
		return
	}

	w.run.Lock()
	defer w.run.Unlock()

	w.logger.Info("file changed", zap.String("path", path))
	if err := w.onChange(ctx, path); err != nil {
		w.logger.Warn("change handler failed", zap.String("path", path), zap.Error(err))
	}
}
