package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/agiangrant/vlist/logger"
)

// settle gives editors that write in several steps time to finish.
const settle = 50 * time.Millisecond

// Watch reloads path whenever it is written, created or renamed into place
// and calls fn with the result. It blocks until ctx is done. fn receives
// the load error, if any, alongside the defaults-backed config.
func Watch(ctx context.Context, path string, log logger.Logger, fn func(Config, error)) error {
	log = logger.With(logger.OrDiscard(log), "component", "config-watch", "path", path)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	defer watcher.Close()

	// watch the directory so atomic renames over the file are seen
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}
	target := filepath.Clean(path)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(settle):
			}
			drain(watcher, target)

			cfg, err := Load(path)
			if err != nil {
				log.Warn("config reload failed", "error", err)
			} else {
				log.Info("config reloaded")
			}
			fn(cfg, err)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("config watcher error", "error", err)
		}
	}
}

// drain discards events for target that queued up while settling.
func drain(w *fsnotify.Watcher, target string) {
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
		default:
			return
		}
	}
}
