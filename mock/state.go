package mock

import (
	"context"
	"sync"

	"github.com/fwojciec/papershelf"
)

var _ papershelf.StateStore = (*StateStore)(nil)

// StateStore is a mock implementation of papershelf.StateStore.
type StateStore struct {
	GetFn    func(ctx context.Context, key string) ([]byte, error)
	PutFn    func(ctx context.Context, key string, value []byte) error
	DeleteFn func(ctx context.Context, key string) error
}

func (s *StateStore) Get(ctx context.Context, key string) ([]byte, error) {
	return s.GetFn(ctx, key)
}

func (s *StateStore) Put(ctx context.Context, key string, value []byte) error {
	return s.PutFn(ctx, key, value)
}

func (s *StateStore) Delete(ctx context.Context, key string) error {
	return s.DeleteFn(ctx, key)
}

// NewMemoryStateStore returns a StateStore backed by a map.
func NewMemoryStateStore() *StateStore {
	var mu sync.Mutex
	values := make(map[string][]byte)
	return &StateStore{
		GetFn: func(_ context.Context, key string) ([]byte, error) {
			mu.Lock()
			defer mu.Unlock()
			v, ok := values[key]
			if !ok {
				return nil, papershelf.Errorf(papershelf.ENOTFOUND, "state %q not found", key)
			}
			return append([]byte(nil), v...), nil
		},
		PutFn: func(_ context.Context, key string, value []byte) error {
			mu.Lock()
			defer mu.Unlock()
			values[key] = append([]byte(nil), value...)
			return nil
		},
		DeleteFn: func(_ context.Context, key string) error {
			mu.Lock()
			defer mu.Unlock()
			delete(values, key)
			return nil
		},
	}
}
