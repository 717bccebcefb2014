package chart

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"buildtrend/src/logger"
)

// Watch calls onChange each time the file at path is written or replaced,
// until ctx is cancelled. The parent directory is watched so that the
// store's rename-into-place saves are seen. Errors from onChange are logged
// and watching continues.
func Watch(ctx context.Context, path string, log logger.Logger, onChange func() error) error {
	if log == nil {
		log = logger.NewSilentLogger()
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}
	log.Info("[Chart] Watching %s for changes", abs)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			log.Debug("[Chart] %s: %s", event.Op, event.Name)
			if err := onChange(); err != nil {
				log.Error("[Chart] Re-render failed: %v", err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error("[Chart] Watcher error: %v", err)
		}
	}
}
