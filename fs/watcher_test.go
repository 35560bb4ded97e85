package fs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fwojciec/papershelf/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startWatcher runs a watcher over root and returns a channel receiving
// one value per onChange call.
func startWatcher(t *testing.T, root string, excludes []string) <-chan struct{} {
	t.Helper()

	w, err := fs.NewWatcher(root, excludes)
	require.NoError(t, err)
	w.Debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	changes := make(chan struct{}, 16)
	done := make(chan error, 1)
	go func() {
		done <- w.Watch(ctx, func() { changes <- struct{}{} })
	}()

	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-done)
		assert.NoError(t, w.Close())
	})
	return changes
}

func waitChange(t *testing.T, changes <-chan struct{}) {
	t.Helper()
	select {
	case <-changes:
	case <-time.After(5 * time.Second):
		t.Fatal("expected a change notification")
	}
}

func assertNoChange(t *testing.T, changes <-chan struct{}) {
	t.Helper()
	select {
	case <-changes:
		t.Fatal("unexpected change notification")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_Watch(t *testing.T) {
	t.Parallel()

	t.Run("notifies when a PDF is added", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		changes := startWatcher(t, root, nil)

		require.NoError(t, os.WriteFile(filepath.Join(root, "paper.pdf"), []byte("%PDF"), 0o644))

		waitChange(t, changes)
	})

	t.Run("notifies when a PDF is removed", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		path := filepath.Join(root, "paper.pdf")
		require.NoError(t, os.WriteFile(path, []byte("%PDF"), 0o644))
		changes := startWatcher(t, root, nil)

		require.NoError(t, os.Remove(path))

		waitChange(t, changes)
	})

	t.Run("coalesces a burst of events", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		changes := startWatcher(t, root, nil)

		for _, name := range []string{"a.pdf", "b.pdf", "c.pdf"} {
			require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte("%PDF"), 0o644))
		}

		waitChange(t, changes)
		assertNoChange(t, changes)
	})

	t.Run("ignores non-PDF files", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		changes := startWatcher(t, root, nil)

		require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("hi"), 0o644))

		assertNoChange(t, changes)
	})

	t.Run("watches directories created later", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		changes := startWatcher(t, root, nil)

		sub := filepath.Join(root, "papers")
		require.NoError(t, os.Mkdir(sub, 0o755))
		waitChange(t, changes)

		require.NoError(t, os.WriteFile(filepath.Join(sub, "new.pdf"), []byte("%PDF"), 0o644))
		waitChange(t, changes)
	})

	t.Run("ignores excluded directories", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(root, "node_modules"), 0o755))
		changes := startWatcher(t, root, fs.DefaultExcludes)

		require.NoError(t, os.WriteFile(filepath.Join(root, "node_modules", "x.pdf"), []byte("%PDF"), 0o644))

		assertNoChange(t, changes)
	})
}

func TestNewWatcher(t *testing.T) {
	t.Parallel()

	_, err := fs.NewWatcher(filepath.Join(t.TempDir(), "missing"), nil)

	assert.Error(t, err)
}
