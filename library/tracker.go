package library

import (
	"slices"
	"time"

	"github.com/fwojciec/papershelf"
	"github.com/google/uuid"
)

// Tracker records in-flight uploads keyed by source path, in the order they
// began. It is not safe for concurrent use; Dashboard serializes access.
type Tracker struct {
	order   []string
	entries map[string]*papershelf.UploadEntry
}

// NewTracker returns an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{entries: make(map[string]*papershelf.UploadEntry)}
}

// Begin starts tracking an upload of path with zero progress.
// An existing entry for path is replaced and becomes the most recent.
func (t *Tracker) Begin(path string, now time.Time) papershelf.UploadEntry {
	t.remove(path)
	e := &papershelf.UploadEntry{
		Path:      path,
		ID:        "upload-" + uuid.New().String(),
		StartTime: now,
	}
	t.entries[path] = e
	t.order = append(t.order, path)
	return *e
}

// UpdateProgress sets the progress of the upload of path, clamped to
// [0, MaxUploadProgress]. Progress never decreases. Returns false if no
// upload of path is tracked.
func (t *Tracker) UpdateProgress(path string, value float64) bool {
	e, ok := t.entries[path]
	if !ok {
		return false
	}
	value = min(max(value, 0), papershelf.MaxUploadProgress)
	if value > e.Progress {
		e.Progress = value
	}
	return true
}

// End stops tracking the upload of path. Returns false if it was not tracked.
func (t *Tracker) End(path string) bool {
	return t.remove(path)
}

// Restore replaces the tracked uploads with entries, discarding those that
// are stale at now. It returns the entries that were kept, in order.
func (t *Tracker) Restore(entries []papershelf.UploadEntry, now time.Time) []papershelf.UploadEntry {
	t.order = nil
	t.entries = make(map[string]*papershelf.UploadEntry)
	for _, e := range entries {
		if e.Path == "" || e.Stale(now) {
			continue
		}
		if e.ID == "" {
			e.ID = "upload-" + uuid.New().String()
		}
		e.Progress = min(max(e.Progress, 0), papershelf.MaxUploadProgress)
		t.remove(e.Path)
		t.entries[e.Path] = &e
		t.order = append(t.order, e.Path)
	}
	return t.Entries()
}

// Get returns the upload of path, if tracked.
func (t *Tracker) Get(path string) (papershelf.UploadEntry, bool) {
	e, ok := t.entries[path]
	if !ok {
		return papershelf.UploadEntry{}, false
	}
	return *e, true
}

// Entries returns the tracked uploads in the order they began.
func (t *Tracker) Entries() []papershelf.UploadEntry {
	out := make([]papershelf.UploadEntry, 0, len(t.order))
	for _, path := range t.order {
		out = append(out, *t.entries[path])
	}
	return out
}

// Len returns the number of tracked uploads.
func (t *Tracker) Len() int {
	return len(t.order)
}

func (t *Tracker) remove(path string) bool {
	if _, ok := t.entries[path]; !ok {
		return false
	}
	delete(t.entries, path)
	t.order = slices.DeleteFunc(t.order, func(p string) bool { return p == path })
	return true
}
