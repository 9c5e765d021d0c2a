// Package watch reports debounced file system changes under a directory tree.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for activity to settle.
const DefaultDebounce = 200 * time.Millisecond

// Event lists the paths that changed during one debounce window.
type Event struct {
	Paths []string
}

// Watcher wraps fsnotify and sends change events.
type Watcher struct {
	fsw      *fsnotify.Watcher
	Changes  chan Event
	Errors   chan error
	debounce time.Duration
	root     string
	only     string // When set, only events for this path count
	ignored  []string
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before an Event is sent.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithIgnored replaces the directory names skipped while walking.
func WithIgnored(names ...string) Option {
	return func(w *Watcher) { w.ignored = names }
}

// New creates a watcher for path. A directory is watched recursively; a file
// is watched through its parent directory.
func New(path string, opts ...Option) (*Watcher, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	w := &Watcher{
		fsw:      fsw,
		Changes:  make(chan Event, 1),
		Errors:   make(chan error, 1),
		debounce: DefaultDebounce,
		ignored:  []string{".git", "node_modules"},
	}
	for _, opt := range opts {
		opt(w)
	}

	if !info.IsDir() {
		w.only = filepath.Clean(path)
		err = fsw.Add(filepath.Dir(w.only))
	} else {
		w.root = filepath.Clean(path)
		err = w.addTree(w.root)
	}
	if err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) skip(name string) bool {
	return slices.Contains(w.ignored, filepath.Base(name))
}

// addTree adds dir and every non-ignored directory below it.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != dir && w.skip(p) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(p); err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
		return nil
	})
}

// relevant reports whether ev should trigger a change notification.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	if w.only != "" {
		return filepath.Clean(ev.Name) == w.only
	}
	for dir := filepath.Clean(ev.Name); dir != w.root; {
		if w.skip(dir) {
			return false
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return true
}

// Start forwards debounced events until ctx is done or the watcher is closed.
// Changes and Errors are closed when it returns.
func (w *Watcher) Start(ctx context.Context) {
	go w.run(ctx)
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.Changes)
	defer close(w.Errors)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	pending := map[string]struct{}{}
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Has(fsnotify.Create) && w.only == "" {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() && !w.skip(ev.Name) {
					if err := w.addTree(ev.Name); err != nil {
						w.report(err)
					}
				}
			}
			if !w.relevant(ev) {
				continue
			}
			pending[ev.Name] = struct{}{}
			timer.Reset(w.debounce)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.report(err)
		case <-timer.C:
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			slices.Sort(paths)
			clear(pending)
			select {
			case w.Changes <- Event{Paths: paths}:
			case <-ctx.Done():
				return
			}
		}
	}
}

// report delivers err without blocking the event loop.
func (w *Watcher) report(err error) {
	select {
	case w.Errors <- err:
	default:
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
