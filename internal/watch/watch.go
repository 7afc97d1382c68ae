// Package watch rebuilds documents when their sources change.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// RebuildFunc is called once per settled burst of changes.
type RebuildFunc func(ctx context.Context) error

// Watcher monitors a source tree and triggers debounced rebuilds.
type Watcher struct {
	root     string
	debounce time.Duration
	rebuild  RebuildFunc
	ignore   []string
	watcher  *fsnotify.Watcher
	log      *slog.Logger
}

// New creates a Watcher for every directory under root. Directories listed
// in ignore, such as an output root inside the source tree, are neither
// watched nor allowed to trigger rebuilds.
func New(root string, debounce time.Duration, rebuild RebuildFunc, logger *slog.Logger, ignore ...string) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve source root: %w", err)
	}
	ignored := make([]string, 0, len(ignore))
	for _, p := range ignore {
		a, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolve ignored path: %w", err)
		}
		ignored = append(ignored, a)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	w := &Watcher{root: abs, debounce: debounce, rebuild: rebuild, ignore: ignored, watcher: watcher, log: logger}
	if err := w.addTree(abs); err != nil {
		watcher.Close()
		return nil, err
	}
	return w, nil
}

// Watching lists the directories currently watched.
func (w *Watcher) Watching() []string {
	return w.watcher.WatchList()
}

// Run blocks until ctx is done, calling the rebuild function after each
// burst of relevant events has been quiet for the debounce interval.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()
	w.log.Info("watching for changes", "root", w.root, "debounce", w.debounce)

	// Reset discards any stale expiry on Go 1.23+ timers, so no draining.
	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.log.Debug("change detected", "file", event.Name, "op", event.Op.String())
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						w.log.Warn("cannot watch new directory", "dir", event.Name, "error", err)
					}
				}
			}
			timer.Reset(w.debounce)
		case <-timer.C:
			if err := w.rebuild(ctx); err != nil {
				w.log.Error("rebuild failed", "error", err)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod || w.ignored(event.Name) {
		return false
	}
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if strings.HasPrefix(part, ".") {
			return false
		}
	}
	base := filepath.Base(event.Name)
	return !strings.HasSuffix(base, "~") && !strings.HasSuffix(base, ".swp")
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && (strings.HasPrefix(d.Name(), ".") || w.ignored(path)) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// ignored reports whether path is one of the ignored directories or lies
// below one.
func (w *Watcher) ignored(path string) bool {
	for _, dir := range w.ignore {
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			continue
		}
		if rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))) {
			return true
		}
	}
	return false
}
