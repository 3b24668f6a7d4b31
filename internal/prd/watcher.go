package prd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Iron-Ham/ralphui/internal/logging"
)

// ChangeKind describes what happened to the PRD file.
type ChangeKind int

const (
	// Modified means the file was created or written.
	Modified ChangeKind = iota
	// Removed means the file was removed or renamed away.
	Removed
)

// String returns "modified" or "removed".
func (k ChangeKind) String() string {
	if k == Removed {
		return "removed"
	}
	return "modified"
}

// DefaultDebounce coalesces the bursts of events editors produce on save.
const DefaultDebounce = 100 * time.Millisecond

// Watcher reports changes to one PRD file. It watches the parent directory so
// that the file may be created after the watcher starts.
type Watcher struct {
	path     string
	debounce time.Duration
	logger   *logging.Logger
}

// NewWatcher creates a Watcher for path. A zero debounce uses DefaultDebounce.
func NewWatcher(path string, debounce time.Duration, logger *logging.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		path:     filepath.Clean(path),
		debounce: debounce,
		logger:   logging.OrNop(logger).WithComponent("prd-watcher"),
	}
}

// Watch streams changes until ctx is cancelled. The returned channel is
// closed when watching stops. Changes are dropped, not queued, when the
// consumer falls behind; the next change carries the latest state anyway.
func (w *Watcher) Watch(ctx context.Context) (<-chan ChangeKind, error) {
	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("prd: ensure directory: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("prd: create watcher: %w", err)
	}
	var closeOnce sync.Once
	closeWatcher := func() {
		closeOnce.Do(func() {
			if err := fsw.Close(); err != nil {
				w.logger.Warn("failed to close watcher", "error", err)
			}
		})
	}
	if err := fsw.Add(dir); err != nil {
		closeWatcher()
		return nil, fmt.Errorf("prd: watch %s: %w", dir, err)
	}

	changes := make(chan ChangeKind, 1)
	go func() {
		defer close(changes)
		defer closeWatcher()

		send := func(k ChangeKind) {
			select {
			case changes <- k:
			default:
			}
		}

		timer := time.NewTimer(w.debounce)
		if !timer.Stop() {
			<-timer.C
		}
		defer timer.Stop()
		var pending ChangeKind
		armed := false

		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				w.logger.Warn("watch error", "error", err)
			case evt, ok := <-fsw.Events:
				if !ok {
					return
				}
				if filepath.Clean(evt.Name) != w.path {
					continue
				}
				switch {
				case evt.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
					pending = Removed
				case evt.Op&(fsnotify.Create|fsnotify.Write) != 0:
					pending = Modified
				default:
					continue
				}
				if armed && !timer.Stop() {
					<-timer.C
				}
				timer.Reset(w.debounce)
				armed = true
			case <-timer.C:
				armed = false
				w.logger.Debug("PRD changed", "path", w.path, "change", pending.String())
				send(pending)
			}
		}
	}()

	return changes, nil
}
