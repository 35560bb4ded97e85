package fs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/fwojciec/papershelf"
)

// DefaultDebounce is how long the watcher waits for a burst of events to settle.
const DefaultDebounce = 300 * time.Millisecond

// Ensure Watcher implements papershelf.WorkspaceWatcher at compile time.
var _ papershelf.WorkspaceWatcher = (*Watcher)(nil)

// Watcher reports changes to the set of PDFs under a workspace root.
// Directories created after the watcher starts are watched as well.
type Watcher struct {
	root     string
	excludes *excluder
	fsw      *fsnotify.Watcher

	// Debounce is the quiet period after the last relevant event before
	// onChange is called.
	Debounce time.Duration
}

// NewWatcher starts watching root and its subdirectories, skipping paths
// matching any of the exclude glob patterns. Call Close when done.
func NewWatcher(root string, excludes []string) (*Watcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	ex, err := newExcluder(abs, excludes)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	w := &Watcher{
		root:     abs,
		excludes: ex,
		fsw:      fsw,
		Debounce: DefaultDebounce,
	}
	if err := w.addTree(abs); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Watch calls onChange after each burst of events that may change the set
// of workspace PDFs. It returns nil when ctx is done.
func (w *Watcher) Watch(ctx context.Context, onChange func()) error {
	timer := time.NewTimer(w.Debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if w.relevant(ev) {
				timer.Reset(w.Debounce)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			// Dropped events leave the view unknown; rescan.
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				timer.Reset(w.Debounce)
				continue
			}
			return fmt.Errorf("watch %s: %w", w.root, err)
		case <-timer.C:
			onChange()
		}
	}
}

// relevant reports whether ev may change the workspace scan. New
// directories are added to the watch list.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	if w.excludes.match(ev.Name) {
		return false
	}

	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			_ = w.addTree(ev.Name)
			return true
		}
	}
	if isPDF(ev.Name) {
		return true
	}
	// A removed or renamed directory may have held PDFs.
	return ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if w.excludes.match(path) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}
