// Package watch triggers rebuilds when source files change.
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

// DefaultDebounce is used when a non-positive debounce is given.
const DefaultDebounce = 100 * time.Millisecond

// Watcher watches a set of directory trees.
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration
	ignore   []string
}

// New starts watching every directory under each of dirs. Paths under any of
// ignore (typically the build's output directory) never trigger a change.
// Directories named node_modules or starting with a dot are skipped.
func New(dirs []string, debounce time.Duration, ignore ...string) (*Watcher, error) {
	if len(dirs) == 0 {
		return nil, fmt.Errorf("watch: no directories given")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	w := &Watcher{fsw: fsw, debounce: debounce}
	for _, p := range ignore {
		if abs, err := filepath.Abs(p); err == nil {
			w.ignore = append(w.ignore, abs)
		}
	}
	for _, d := range dirs {
		if err := w.addTree(d); err != nil {
			fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

// Run calls onChange once per burst of file events, after debounce has
// passed without further events. It blocks until ctx is cancelled and then
// releases the watcher.
func (w *Watcher) Run(ctx context.Context, onChange func()) error {
	defer w.fsw.Close()

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			// New directories are watched too so files created inside them count.
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						slog.Warn("watch: add directory", "path", event.Name, "err", err)
					}
				}
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			slog.Info("watch: sources changed")
			onChange()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			slog.Error("watch: watcher error", "err", err)
		}
	}
}

// Watch is New followed by Run.
func Watch(ctx context.Context, dirs []string, debounce time.Duration, onChange func(), ignore ...string) error {
	w, err := New(dirs, debounce, ignore...)
	if err != nil {
		return err
	}
	return w.Run(ctx, onChange)
}

func (w *Watcher) relevant(e fsnotify.Event) bool {
	if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) &&
		!e.Has(fsnotify.Remove) && !e.Has(fsnotify.Rename) {
		return false
	}
	return !w.ignored(e.Name)
}

func (w *Watcher) ignored(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	for _, p := range w.ignore {
		if abs == p || strings.HasPrefix(abs, p+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (w *Watcher) addTree(root string) error {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if path != root && (name == "node_modules" || strings.HasPrefix(name, ".")) {
			return filepath.SkipDir
		}
		if w.ignored(path) {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
	if err != nil {
		return fmt.Errorf("watch: %s: %w", root, err)
	}
	slog.Debug("watch: watching", "root", root)
	return nil
}
