package mock

import (
	"context"

	"github.com/fwojciec/papershelf"
)

// Compile-time interface verification.
var (
	_ papershelf.WorkspaceScanner = (*WorkspaceScanner)(nil)
	_ papershelf.WorkspaceWatcher = (*WorkspaceWatcher)(nil)
	_ papershelf.PageCounter      = (*PageCounter)(nil)
)

// WorkspaceScanner is a mock implementation of papershelf.WorkspaceScanner.
type WorkspaceScanner struct {
	ScanWorkspaceFn func(ctx context.Context) ([]*papershelf.WorkspaceFile, error)
}

func (s *WorkspaceScanner) ScanWorkspace(ctx context.Context) ([]*papershelf.WorkspaceFile, error) {
	return s.ScanWorkspaceFn(ctx)
}

// WorkspaceWatcher is a mock implementation of papershelf.WorkspaceWatcher.
type WorkspaceWatcher struct {
	WatchFn func(ctx context.Context, onChange func()) error
}

func (w *WorkspaceWatcher) Watch(ctx context.Context, onChange func()) error {
	return w.WatchFn(ctx, onChange)
}

// PageCounter is a mock implementation of papershelf.PageCounter.
type PageCounter struct {
	CountPagesFn func(path string) (int, error)
}

func (c *PageCounter) CountPages(path string) (int, error) {
	return c.CountPagesFn(path)
}
