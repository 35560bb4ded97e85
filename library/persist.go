package library

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fwojciec/papershelf"
)

// SnapshotKey is the StateStore key of the dashboard snapshot.
const SnapshotKey = "dashboard"

// SaveSnapshot writes snap to store.
func SaveSnapshot(ctx context.Context, store papershelf.StateStore, snap papershelf.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return store.Put(ctx, SnapshotKey, data)
}

// LoadSnapshot returns the last saved snapshot, or nil if none was saved.
// Malformed fields in the stored record are replaced by empty defaults.
func LoadSnapshot(ctx context.Context, store papershelf.StateStore) (*papershelf.Snapshot, error) {
	data, err := store.Get(ctx, SnapshotKey)
	if papershelf.ErrorCode(err) == papershelf.ENOTFOUND {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return papershelf.DecodeSnapshot(data), nil
}

// MergeUploads combines the stored upload list with the uploads a process
// owns. own replaces any stored entry for the same path. Stored entries the
// process started itself (IDs in mine) but no longer owns are dropped, as
// are stale entries. Other entries are kept unchanged, in stored order.
func MergeUploads(stored, own []papershelf.UploadEntry, mine map[string]bool, now time.Time) []papershelf.UploadEntry {
	ownByPath := make(map[string]papershelf.UploadEntry, len(own))
	for _, e := range own {
		ownByPath[e.Path] = e
	}

	out := make([]papershelf.UploadEntry, 0, len(stored)+len(own))
	placed := make(map[string]bool, len(own))
	for _, s := range stored {
		if e, ok := ownByPath[s.Path]; ok {
			if !placed[s.Path] {
				out = append(out, e)
				placed[s.Path] = true
			}
			continue
		}
		if mine[s.ID] || s.Stale(now) {
			continue
		}
		out = append(out, s)
	}
	for _, e := range own {
		if !placed[e.Path] {
			out = append(out, e)
		}
	}
	return out
}
