package library

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fwojciec/papershelf"
	"golang.org/x/sync/errgroup"
)

// Dashboard owns the library view state: backend documents, workspace files
// and in-flight uploads. Every mutation recomputes the merged view, persists
// the snapshot and notifies OnChange before returning.
//
// Dashboard is safe for concurrent use. Network calls run outside its lock.
type Dashboard struct {
	Documents papershelf.DocumentService
	Scanner   papershelf.WorkspaceScanner
	Store     papershelf.StateStore
	Simulator *Simulator
	Logger    *slog.Logger
	Now       func() time.Time

	// OnChange receives the recomputed view after every mutation. It is
	// called with the dashboard locked and must not call back into it.
	OnChange func([]papershelf.LibraryEntry)

	mu            sync.Mutex
	opened        bool
	authenticated bool
	documents     []*papershelf.DocumentRecord
	files         []*papershelf.WorkspaceFile
	tracker       *Tracker
	entries       []papershelf.LibraryEntry
	simulations   map[string]context.CancelFunc

	// mine holds the IDs of uploads started by this dashboard. Uploads
	// restored from the store belong to whichever process started them.
	mine map[string]bool

	// docsGen advances whenever the document list changes, so a refresh
	// that started before the change does not apply its older list.
	docsGen uint64

	ctx    context.Context
	cancel context.CancelFunc
}

// NewDashboard returns a Dashboard with an empty library.
func NewDashboard(documents papershelf.DocumentService, scanner papershelf.WorkspaceScanner, store papershelf.StateStore) *Dashboard {
	ctx, cancel := context.WithCancel(context.Background())
	return &Dashboard{
		Documents:   documents,
		Scanner:     scanner,
		Store:       store,
		Simulator:   NewSimulator(),
		Logger:      slog.New(slog.DiscardHandler),
		Now:         time.Now,
		tracker:     NewTracker(),
		simulations: make(map[string]context.CancelFunc),
		mine:        make(map[string]bool),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Open restores the last saved state, resumes simulation of uploads that
// are still fresh, and refreshes documents and workspace files.
func (d *Dashboard) Open(ctx context.Context) error {
	snap, err := LoadSnapshot(ctx, d.Store)

	d.mu.Lock()
	if err != nil {
		// Saving now would replace the unread state with an empty one.
		d.Logger.Warn("restore dashboard, changes will not be saved", "err", err)
	} else {
		d.opened = true
	}
	if snap != nil {
		now := d.Now()
		d.authenticated = snap.IsAuthenticated
		d.documents = snap.Documents
		d.files = snap.WorkspaceFiles
		kept := d.tracker.Restore(snap.Uploads, now)
		if evicted := len(snap.Uploads) - len(kept); evicted > 0 {
			d.Logger.Debug("discarded stale uploads", "count", evicted)
		}
		for _, e := range kept {
			d.simulateLocked(e, now.Sub(e.StartTime))
		}
	}
	d.commitLocked(ctx)
	d.mu.Unlock()

	return d.Refresh(ctx)
}

// Close stops all progress simulations and saves the current state.
// Uploads still in flight stay in the snapshot so a later Open can resume them.
// A dashboard that was never opened saves nothing.
func (d *Dashboard) Close() error {
	d.cancel()

	d.mu.Lock()
	defer d.mu.Unlock()
	clear(d.simulations)
	if !d.opened {
		return nil
	}
	return d.saveLocked(context.Background())
}

// Refresh fetches documents from the backend and rescans the workspace
// concurrently, then applies whichever results succeeded.
func (d *Dashboard) Refresh(ctx context.Context) error {
	d.mu.Lock()
	gen := d.docsGen
	d.mu.Unlock()

	var (
		g       errgroup.Group
		docs    []*papershelf.DocumentRecord
		files   []*papershelf.WorkspaceFile
		docsErr error
		scanErr error
	)
	g.Go(func() error {
		docs, docsErr = d.Documents.ListDocuments(ctx)
		return docsErr
	})
	g.Go(func() error {
		files, scanErr = d.Scanner.ScanWorkspace(ctx)
		return scanErr
	})
	err := g.Wait()

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.docsGen == gen {
		d.applyDocumentsLocked(docs, docsErr)
	} else {
		d.Logger.Debug("discarding superseded document list")
	}
	if scanErr == nil {
		d.files = files
	}
	d.commitLocked(ctx)
	return err
}

// RequestUpload uploads the PDF at path. The upload is tracked with
// simulated progress until the backend resolves it. A failed upload is
// removed from the view and its error returned; it is not retried.
func (d *Dashboard) RequestUpload(ctx context.Context, path string) (*papershelf.DocumentRecord, error) {
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return nil, papershelf.Errorf(papershelf.EINVALID, "only PDF files can be uploaded: %s", path)
	}

	d.mu.Lock()
	entry := d.tracker.Begin(path, d.Now())
	d.mine[entry.ID] = true
	d.commitLocked(ctx)
	d.simulateLocked(entry, 0)
	d.mu.Unlock()

	doc, err := d.Documents.UploadDocument(ctx, path)

	d.mu.Lock()
	d.endUploadLocked(path, entry.ID)
	if err == nil {
		d.upsertDocumentLocked(doc)
		d.authenticated = true
	} else if papershelf.ErrorCode(err) == papershelf.EUNAUTHORIZED {
		d.authenticated = false
	}
	d.commitLocked(ctx)
	d.mu.Unlock()

	if err != nil {
		return nil, err
	}

	if err := d.Refresh(ctx); err != nil {
		d.Logger.Warn("refresh after upload", "err", err)
	}
	return doc, nil
}

// RequestDelete deletes the document with the given ID from the backend
// and removes it from the view.
func (d *Dashboard) RequestDelete(ctx context.Context, id string) error {
	if err := d.Documents.DeleteDocument(ctx, id); err != nil {
		return err
	}

	d.mu.Lock()
	d.documents = slices.DeleteFunc(slices.Clone(d.documents), func(doc *papershelf.DocumentRecord) bool {
		return doc.ID == id
	})
	d.docsGen++
	d.commitLocked(ctx)
	d.mu.Unlock()

	if err := d.Refresh(ctx); err != nil {
		d.Logger.Warn("refresh after delete", "err", err)
	}
	return nil
}

// ClearLibrary deletes every document of the user from the backend.
func (d *Dashboard) ClearLibrary(ctx context.Context) (*papershelf.ClearResult, error) {
	result, err := d.Documents.ClearDocuments(ctx)
	if err != nil {
		return nil, err
	}

	if err := d.Refresh(ctx); err != nil {
		d.Logger.Warn("refresh after clear", "err", err)
	}
	return result, nil
}

// RequestOpen rescans the workspace and resolves ref, a file path or a
// library entry ID, to the local file backing it.
// Returns ENOTFOUND if no entry in the view has a local file for ref.
func (d *Dashboard) RequestOpen(ctx context.Context, ref string) (string, error) {
	files, err := d.Scanner.ScanWorkspace(ctx)
	if err != nil {
		return "", err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.files = files
	d.commitLocked(ctx)

	for _, e := range d.entries {
		if e.FilePath == "" {
			continue
		}
		if e.FilePath == ref || e.ID == ref {
			return e.FilePath, nil
		}
	}
	return "", papershelf.Errorf(papershelf.ENOTFOUND, "no local file for %q", ref)
}

// SetAuthenticated records whether the user holds valid credentials.
// Signing out also forgets the documents fetched for the previous user.
func (d *Dashboard) SetAuthenticated(ctx context.Context, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.authenticated = ok
	if !ok {
		d.documents = nil
		d.docsGen++
	}
	d.commitLocked(ctx)
}

// Authenticated reports whether the last backend interaction was authorized.
func (d *Dashboard) Authenticated() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.authenticated
}

// Entries returns the current merged library view.
func (d *Dashboard) Entries() []papershelf.LibraryEntry {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.entries)
}

// Uploads returns the uploads currently in flight, in the order they began.
func (d *Dashboard) Uploads() []papershelf.UploadEntry {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tracker.Entries()
}

// Snapshot returns the state that would be persisted now.
func (d *Dashboard) Snapshot() papershelf.Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snapshotLocked()
}

// updateProgress applies simulated progress to the upload identified by
// path and id. It reports false once that upload is no longer tracked or
// the dashboard is closed.
func (d *Dashboard) updateProgress(path, id string, progress float64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ctx.Err() != nil {
		return false
	}
	if e, ok := d.tracker.Get(path); !ok || e.ID != id {
		return false
	}
	d.tracker.UpdateProgress(path, progress)
	d.commitLocked(d.ctx)
	return true
}

func (d *Dashboard) simulateLocked(e papershelf.UploadEntry, elapsed time.Duration) {
	if cancel, ok := d.simulations[e.Path]; ok {
		cancel()
	}
	ctx, cancel := context.WithCancel(d.ctx)
	d.simulations[e.Path] = cancel
	id := e.ID
	d.Simulator.Start(ctx, e.Path, e.Progress, elapsed, func(path string, progress float64) bool {
		return d.updateProgress(path, id, progress)
	})
}

func (d *Dashboard) endUploadLocked(path, id string) {
	if e, ok := d.tracker.Get(path); !ok || e.ID != id {
		return
	}
	d.stopUploadLocked(path)
}

func (d *Dashboard) stopUploadLocked(path string) {
	if cancel, ok := d.simulations[path]; ok {
		cancel()
		delete(d.simulations, path)
	}
	d.tracker.End(path)
}

// dropFinishedUploadsLocked forgets restored uploads that their owner has
// since finished or that went stale. saved is the stored upload list.
func (d *Dashboard) dropFinishedUploadsLocked(saved []papershelf.UploadEntry) {
	now := d.Now()
	for _, e := range d.tracker.Entries() {
		if d.mine[e.ID] {
			continue
		}
		stillSaved := slices.ContainsFunc(saved, func(s papershelf.UploadEntry) bool {
			return s.Path == e.Path && (s.ID == e.ID || s.ID == "") && !s.Stale(now)
		})
		if !stillSaved {
			d.stopUploadLocked(e.Path)
		}
	}
}

func (d *Dashboard) ownUploadsLocked() []papershelf.UploadEntry {
	return slices.DeleteFunc(d.tracker.Entries(), func(e papershelf.UploadEntry) bool {
		return !d.mine[e.ID]
	})
}

func (d *Dashboard) applyDocumentsLocked(docs []*papershelf.DocumentRecord, err error) {
	switch {
	case err == nil:
		d.documents = docs
		d.docsGen++
		d.authenticated = true
	case papershelf.ErrorCode(err) == papershelf.EUNAUTHORIZED:
		d.authenticated = false
	}
}

func (d *Dashboard) upsertDocumentLocked(doc *papershelf.DocumentRecord) {
	docs := slices.Clone(d.documents)
	if i := slices.IndexFunc(docs, func(x *papershelf.DocumentRecord) bool { return x.ID == doc.ID }); i >= 0 {
		docs[i] = doc
	} else {
		docs = append(docs, doc)
	}
	d.documents = docs
	d.docsGen++
}

func (d *Dashboard) snapshotLocked() papershelf.Snapshot {
	return papershelf.Snapshot{
		IsAuthenticated: d.authenticated,
		Documents:       d.documents,
		WorkspaceFiles:  d.files,
		Uploads:         d.tracker.Entries(),
	}
}

// saveLocked persists the view. Several processes may share the store, so
// the stored uploads are re-read first: uploads started here replace theirs,
// and uploads started elsewhere are written back only as that process left
// them.
func (d *Dashboard) saveLocked(ctx context.Context) error {
	stored, err := LoadSnapshot(ctx, d.Store)
	if err != nil {
		return fmt.Errorf("reload snapshot: %w", err)
	}
	var saved []papershelf.UploadEntry
	if stored != nil {
		saved = stored.Uploads
	}
	d.dropFinishedUploadsLocked(saved)

	snap := d.snapshotLocked()
	snap.Uploads = MergeUploads(saved, d.ownUploadsLocked(), d.mine, d.Now())
	return SaveSnapshot(ctx, d.Store, snap)
}

// commitLocked persists the snapshot, recomputes the view and notifies
// OnChange. Nothing is persisted before a successful Open, and nothing at
// all happens after Close.
func (d *Dashboard) commitLocked(ctx context.Context) {
	if d.ctx.Err() != nil {
		return
	}
	if d.opened {
		if err := d.saveLocked(context.WithoutCancel(ctx)); err != nil {
			d.Logger.Warn("save dashboard", "err", err)
		}
	}

	d.entries = Merge(d.documents, d.files, d.tracker.Entries())
	if d.OnChange != nil {
		d.OnChange(slices.Clone(d.entries))
	}
}
