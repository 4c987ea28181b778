package adapter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	m "github.com/mouse-blink/weave/internal/model"
)

// DefaultDebounce is the quiet period after the last change before a rebuild.
const DefaultDebounce = 500 * time.Millisecond

const watchTick = 100 * time.Millisecond

// Watcher reports batches of filesystem changes.
type Watcher interface {
	// Watch blocks until ctx is done. onChange receives the changed paths
	// once no new event arrived for the debounce period.
	Watch(ctx context.Context, roots []m.Path, onChange func(changed []m.Path)) error
}

// FSWatcher watches directory trees with fsnotify.
type FSWatcher struct {
	debounce time.Duration
	exclude  []string
	log      *zap.Logger
}

// NewFSWatcher creates a watcher. Events under any exclude directory are ignored.
func NewFSWatcher(debounce time.Duration, log *zap.Logger, exclude ...m.Path) *FSWatcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	if log == nil {
		log = zap.NewNop()
	}

	w := &FSWatcher{debounce: debounce, log: log}
	for _, p := range exclude {
		if p != "" {
			w.exclude = append(w.exclude, filepath.Clean(string(p)))
		}
	}

	return w
}

// Watch runs the event loop.
func (w *FSWatcher) Watch(ctx context.Context, roots []m.Path, onChange func(changed []m.Path)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	defer func() {
		if err := watcher.Close(); err != nil {
			w.log.Error("closing watcher", zap.Error(err))
		}
	}()

	for _, root := range roots {
		if err := w.addTree(watcher, string(root)); err != nil {
			return err
		}
	}

	ticker := time.NewTicker(watchTick)
	defer ticker.Stop()

	pending := make(map[string]struct{})

	var last time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if w.excluded(event.Name) || event.Op == fsnotify.Chmod {
				continue
			}

			w.log.Debug("watch event", zap.String("path", event.Name), zap.String("op", event.Op.String()))

			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(watcher, event.Name); err != nil {
						w.log.Warn("watching new directory", zap.String("path", event.Name), zap.Error(err))
					}
				}
			}

			pending[event.Name] = struct{}{}
			last = time.Now()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			w.log.Error("watcher error", zap.Error(err))

		case <-ticker.C:
			if len(pending) == 0 || time.Since(last) < w.debounce {
				continue
			}

			changed := make([]m.Path, 0, len(pending))
			for p := range pending {
				changed = append(changed, m.Path(p))
			}

			sort.Slice(changed, func(i, j int) bool { return changed[i] < changed[j] })
			pending = make(map[string]struct{})

			onChange(changed)
		}
	}
}

// addTree watches dir and every directory below it; fsnotify is not recursive.
func (w *FSWatcher) addTree(watcher *fsnotify.Watcher, dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() {
			return nil
		}

		if w.excluded(path) || (path != dir && isHidden(info.Name())) {
			return filepath.SkipDir
		}

		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}

		return nil
	})
}

func (w *FSWatcher) excluded(path string) bool {
	path = filepath.Clean(path)

	for _, ex := range w.exclude {
		if path == ex || strings.HasPrefix(path, ex+string(filepath.Separator)) {
			return true
		}
	}

	return false
}
