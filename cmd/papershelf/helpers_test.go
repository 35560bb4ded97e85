package main_test

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/fwojciec/papershelf"
	"github.com/fwojciec/papershelf/auth"
	main "github.com/fwojciec/papershelf/cmd/papershelf"
	"github.com/fwojciec/papershelf/library"
	"github.com/fwojciec/papershelf/mock"
)

// syncBuffer is a bytes.Buffer safe for concurrent writers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type testEnv struct {
	deps   *main.Dependencies
	store  *mock.StateStore
	stdout *syncBuffer
	stderr *syncBuffer
}

func listing(docs ...*papershelf.DocumentRecord) func(context.Context) ([]*papershelf.DocumentRecord, error) {
	return func(context.Context) ([]*papershelf.DocumentRecord, error) {
		return docs, nil
	}
}

// newTestEnv wires a dashboard over docs and a workspace holding files.
func newTestEnv(t *testing.T, docs *mock.DocumentService, files ...*papershelf.WorkspaceFile) *testEnv {
	t.Helper()

	store := mock.NewMemoryStateStore()
	scanner := &mock.WorkspaceScanner{
		ScanWorkspaceFn: func(context.Context) ([]*papershelf.WorkspaceFile, error) {
			return files, nil
		},
	}
	dashboard := library.NewDashboard(docs, scanner, store)
	dashboard.Simulator = &library.Simulator{
		Interval: time.Hour,
		Duration: time.Hour,
		Rand:     func() float64 { return 0.5 },
	}
	t.Cleanup(func() { _ = dashboard.Close() })

	provider := auth.NewProvider(store, &mock.AuthService{})

	env := &testEnv{
		store:  store,
		stdout: &syncBuffer{},
		stderr: &syncBuffer{},
	}
	env.deps = &main.Dependencies{
		Ctx:       context.Background(),
		Stdout:    env.stdout,
		Stderr:    env.stderr,
		Logger:    slog.New(slog.DiscardHandler),
		Session:   provider,
		Documents: docs,
		Dashboard: dashboard,
		Open:      func(string) error { return nil },
	}
	return env
}
