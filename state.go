package papershelf

import "context"

// StateStore persists opaque values by key.
type StateStore interface {
	// Get returns the value stored under key.
	// Returns ENOTFOUND if nothing has been stored.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores value under key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
