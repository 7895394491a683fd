package heartbeat

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/hpungsan/carryover/internal/logging"
)

// DefaultDebounce collapses bursts of filesystem events into one check.
const DefaultDebounce = 250 * time.Millisecond

// Follow watches dirs (non-recursively) and calls fn once per debounced
// burst of filesystem events until ctx is cancelled. Directories that do
// not exist are skipped; at least one must be watchable.
func Follow(ctx context.Context, dirs []string, debounce time.Duration, logger *slog.Logger, fn func(context.Context)) error {
	logger = logging.OrDiscard(logger)
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	watched := 0
	for _, dir := range dirs {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			logger.Debug("skipping unwatchable dir", "dir", dir)
			continue
		}
		if err := watcher.Add(dir); err != nil {
			logger.Warn("watch failed", "dir", dir, "error", err)
			continue
		}
		watched++
	}
	if watched == 0 {
		return fmt.Errorf("no watchable directories among %v", dirs)
	}

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
				continue
			}
			logger.Debug("event received", "name", event.Name, "op", event.Op.String())
			timer.Reset(debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("fsnotify error", "error", err)
		case <-timer.C:
			fn(ctx)
		}
	}
}
