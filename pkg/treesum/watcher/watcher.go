// Package watcher reports filesystem changes below a snapshot root so the
// snapshot can be rebuilt.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jamesainslie/treesum/pkg/treesum/logging"
	"github.com/jamesainslie/treesum/pkg/treesum/snapshot"
)

// Filter reports whether a root-relative path should be ignored.
// ignore.Matcher's Match method satisfies it.
type Filter func(path []string, isDir bool) bool

// Watcher watches a directory tree. fsnotify is not recursive, so every
// directory gets its own watch and new directories are added as they
// appear.
type Watcher struct {
	root    string
	filter  Filter
	watcher *fsnotify.Watcher
	paths   map[string]bool
	mu      sync.RWMutex
	closed  bool
}

// New creates a Watcher for root and adds watches for every directory
// the filter keeps. Symlinks are not followed.
func New(root string, filter Filter) (*Watcher, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, &fs.PathError{Op: "watch", Path: absRoot, Err: fs.ErrInvalid}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		root:    absRoot,
		filter:  filter,
		watcher: fsw,
		paths:   make(map[string]bool),
	}

	if err := w.addTree(absRoot); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// Root returns the absolute watched root.
func (w *Watcher) Root() string {
	return w.root
}

// Watched returns the number of directories being watched.
func (w *Watcher) Watched() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.paths)
}

// addTree watches dir and every directory below it.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == dir {
				return walkErr
			}
			return nil //nolint:nilerr // unreadable subtrees are simply not watched
		}
		if d.Type()&fs.ModeSymlink != 0 || !d.IsDir() {
			return nil
		}
		if path != w.root && w.ignored(path, true) {
			return filepath.SkipDir
		}
		if err := w.addWatch(path); err != nil && path == dir {
			return err
		}
		return nil
	})
}

func (w *Watcher) addWatch(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed || w.paths[path] {
		return nil
	}

	if err := w.watcher.Add(path); err != nil {
		logging.Get("watcher").Warn("failed to add watch", "path", path, "error", err)
		return err
	}

	w.paths[path] = true
	return nil
}

// removeTree drops watches on path and everything below it.
func (w *Watcher) removeTree(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for p := range w.paths {
		if p == path || isSubPath(p, path) {
			_ = w.watcher.Remove(p)
			delete(w.paths, p)
		}
	}
}

func (w *Watcher) ignored(path string, isDir bool) bool {
	if w.filter == nil {
		return false
	}
	rel, err := filepath.Rel(w.root, path)
	if err != nil || rel == "." {
		return false
	}
	return w.filter(snapshot.SplitPath(filepath.ToSlash(rel)), isDir)
}

// Run delivers relevant events to onChange until ctx is cancelled or the
// watcher is closed. Events for ignored paths are dropped.
func (w *Watcher) Run(ctx context.Context, onChange func(path string, op fsnotify.Op)) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if w.handleEvent(event) && onChange != nil {
				onChange(event.Name, event.Op)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Get("watcher").Error("watcher error", "error", err)
		}
	}
}

// RunDebounced calls fn once the tree has been quiet for the given period
// after one or more changes. fn runs on the calling goroutine, and
// changes arriving while it runs schedule another call.
func (w *Watcher) RunDebounced(ctx context.Context, quiet time.Duration, fn func(ctx context.Context)) {
	changed := make(chan struct{}, 1)

	runCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		w.Run(runCtx, func(string, fsnotify.Op) {
			select {
			case changed <- struct{}{}:
			default:
			}
		})
	}()

	timer := time.NewTimer(quiet)
	timer.Stop()
	pending := false

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-changed:
			pending = true
			timer.Reset(quiet)
		case <-timer.C:
			if pending {
				pending = false
				fn(ctx)
			}
		}
	}
}

// handleEvent keeps the watch set in sync and reports whether the event
// is relevant.
func (w *Watcher) handleEvent(event fsnotify.Event) bool {
	switch {
	case event.Op.Has(fsnotify.Create):
		info, err := os.Lstat(event.Name)
		if err != nil {
			// Already gone; the following remove event is what matters.
			return false
		}
		isDir := info.IsDir()
		if w.ignored(event.Name, isDir) {
			return false
		}
		if isDir && info.Mode()&fs.ModeSymlink == 0 {
			_ = w.addTree(event.Name)
		}
		return true

	case event.Op.Has(fsnotify.Remove), event.Op.Has(fsnotify.Rename):
		w.mu.RLock()
		wasDir := w.paths[event.Name]
		w.mu.RUnlock()
		if wasDir {
			w.removeTree(event.Name)
		}
		return !w.ignored(event.Name, wasDir)

	case event.Op.Has(fsnotify.Write):
		return !w.ignored(event.Name, false)
	}

	return false
}

// Close closes the watcher and releases resources.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}

	w.closed = true
	w.paths = make(map[string]bool)
	return w.watcher.Close()
}

// isSubPath checks if path is under parent directory.
func isSubPath(path, parent string) bool {
	return strings.HasPrefix(path, parent+string(filepath.Separator))
}
