package store

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const configDebounce = 150 * time.Millisecond

// WatchConfig reports config.json after it changes on disk (e.g. `retroquest login` in
// another terminal). The directory is watched rather than the file because saves
// replace it by rename. The channel closes when ctx is done.
func WatchConfig(ctx context.Context) (<-chan *Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	out := make(chan *Config, 1)
	go func() {
		defer watcher.Close()

		var (
			mu     sync.Mutex
			timer  *time.Timer
			closed bool
		)
		defer func() {
			mu.Lock()
			closed = true
			if timer != nil {
				timer.Stop()
			}
			mu.Unlock()
			close(out)
		}()

		emit := func() {
			mu.Lock()
			defer mu.Unlock()
			if closed {
				return
			}
			cfg, err := loadConfigFile(path)
			if err != nil {
				// Half-written or hand-edited; the next event will try again.
				slog.Debug("config reload skipped", "path", path, "err", err)
				return
			}
			// Keep only the newest config for a slow reader.
			select {
			case <-out:
			default:
			}
			out <- cfg
		}

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(ev.Name) != filepath.Base(path) {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				mu.Lock()
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(configDebounce, emit)
				mu.Unlock()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("config watcher error", "err", err)
			}
		}
	}()
	return out, nil
}
