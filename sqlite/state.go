package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/papershelf"
)

// Compile-time interface verification.
var _ papershelf.StateStore = (*StateStore)(nil)

// StateStore implements papershelf.StateStore using SQLite.
type StateStore struct {
	db *DB
}

// NewStateStore creates a new StateStore.
func NewStateStore(db *DB) *StateStore {
	return &StateStore{db: db}
}

// checksum returns the xxHash of value as a fixed-width hex string.
func checksum(value []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(value))
}

// Get returns the value stored under key.
// Returns ENOTFOUND if no value is stored.
func (s *StateStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT value FROM state WHERE key = ?
	`, key).Scan(&value)

	if err == sql.ErrNoRows {
		return nil, papershelf.Errorf(papershelf.ENOTFOUND, "state %q not found", key)
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Put stores value under key, replacing any previous value.
// Writing an identical value leaves updated_at unchanged.
func (s *StateStore) Put(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return papershelf.Errorf(papershelf.EINVALID, "state key required")
	}
	if value == nil {
		value = []byte{}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO state (key, value, checksum, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			checksum = excluded.checksum,
			updated_at = excluded.updated_at
		WHERE state.checksum != excluded.checksum
	`, key, value, checksum(value), time.Now().UTC().Format(time.RFC3339Nano))

	return err
}

// Delete removes the value stored under key. Deleting a missing key is not an error.
func (s *StateStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM state WHERE key = ?`, key)
	return err
}

// UpdatedAt returns when the value under key last changed.
// Returns ENOTFOUND if no value is stored.
func (s *StateStore) UpdatedAt(ctx context.Context, key string) (time.Time, error) {
	var updatedAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT updated_at FROM state WHERE key = ?
	`, key).Scan(&updatedAt)

	if err == sql.ErrNoRows {
		return time.Time{}, papershelf.Errorf(papershelf.ENOTFOUND, "state %q not found", key)
	}
	if err != nil {
		return time.Time{}, err
	}

	t, err := time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return t, nil
}
