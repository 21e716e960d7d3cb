package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches the configuration file for changes and reloads the store.
// Rapid successive writes (editors, config management agents) are debounced
// into a single reload.
type Watcher struct {
	path     string
	store    *Store
	debounce time.Duration
	logger   *slog.Logger
}

// NewWatcher creates a watcher that reloads store from path on change.
func NewWatcher(path string, store *Store, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		path:     path,
		store:    store,
		debounce: 200 * time.Millisecond,
		logger:   logger.With("component", "config.watcher"),
	}
}

// Watch blocks until ctx is cancelled, reloading the store whenever the
// configuration file changes. A failed reload keeps the previous snapshot and
// is logged; the watcher keeps running.
func (w *Watcher) Watch(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer fsw.Close()

	// Watch the directory rather than the file: editors replace files by
	// rename, which drops a direct file watch.
	dir := filepath.Dir(w.path)
	if err := fsw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %q: %w", dir, err)
	}

	w.logger.Info("config watcher started", "path", w.path, "debounce", w.debounce)

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("config watcher stopped")
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			if err := w.store.ReloadFromFile(w.path); err != nil {
				w.logger.Error("config reload failed, keeping previous snapshot",
					"path", w.path,
					"error", err,
				)
				continue
			}
			w.logger.Info("config reloaded", "path", w.path)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("config watcher error", "error", err)
		}
	}
}
