// Package library reconciles the document library view. It merges documents
// confirmed by the backend, PDFs discovered in the workspace and uploads in
// flight into one ordered list, tracks upload progress, and owns the
// dashboard state that is persisted across restarts.
package library

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/papershelf"
)

// Merge combines backend documents, workspace files and in-flight uploads
// into a single de-duplicated library view.
//
// Uploads come first, most recent first. Documents follow in input order,
// except processing documents already represented by an upload. Workspace
// files come last and are dropped when any document or upload matches them.
// Merge never fails; empty inputs produce an empty view.
func Merge(docs []*papershelf.DocumentRecord, files []*papershelf.WorkspaceFile, uploads []papershelf.UploadEntry) []papershelf.LibraryEntry {
	entries := make([]papershelf.LibraryEntry, 0, len(docs)+len(files)+len(uploads))

	for i := len(uploads) - 1; i >= 0; i-- {
		entries = append(entries, uploadEntry(uploads[i]))
	}

	for _, doc := range docs {
		if doc == nil {
			continue
		}
		if doc.Status == papershelf.StatusProcessing && matchesUpload(DocumentRef(doc), uploads) {
			continue
		}
		entries = append(entries, documentEntry(doc, files))
	}

	for _, f := range files {
		if f == nil {
			continue
		}
		if matchesDocument(WorkspaceRef(f), docs) || fileMatchesUpload(f, uploads) {
			continue
		}
		entries = append(entries, workspaceEntry(f))
	}

	return entries
}

// WorkspaceEntryID returns the stable library entry ID of the workspace file at path.
func WorkspaceEntryID(path string) string {
	return fmt.Sprintf("workspace-%016x", xxhash.Sum64String(path))
}

func uploadEntry(u papershelf.UploadEntry) papershelf.LibraryEntry {
	progress := u.Progress
	return papershelf.LibraryEntry{
		ID:       u.ID,
		Title:    UploadRef(u).Title,
		Kind:     papershelf.KindUploading,
		Status:   papershelf.StatusUploading,
		FilePath: u.Path,
		Progress: &progress,
	}
}

func documentEntry(doc *papershelf.DocumentRecord, files []*papershelf.WorkspaceFile) papershelf.LibraryEntry {
	entry := papershelf.LibraryEntry{
		ID:     doc.ID,
		Title:  doc.DisplayTitle(),
		Kind:   papershelf.KindUploaded,
		Status: doc.Status,
	}
	ref := DocumentRef(doc)
	for _, f := range files {
		if f != nil && SameFile(ref, WorkspaceRef(f)) {
			entry.FilePath = f.Path
			break
		}
	}
	return entry
}

func workspaceEntry(f *papershelf.WorkspaceFile) papershelf.LibraryEntry {
	return papershelf.LibraryEntry{
		ID:       WorkspaceEntryID(f.Path),
		Title:    f.Title,
		Kind:     papershelf.KindWorkspace,
		Status:   papershelf.StatusNotUploaded,
		FilePath: f.Path,
	}
}

func matchesUpload(ref Ref, uploads []papershelf.UploadEntry) bool {
	for _, u := range uploads {
		if SameFile(ref, UploadRef(u)) {
			return true
		}
	}
	return false
}

func matchesDocument(ref Ref, docs []*papershelf.DocumentRecord) bool {
	for _, doc := range docs {
		if doc != nil && SameFile(ref, DocumentRef(doc)) {
			return true
		}
	}
	return false
}

func fileMatchesUpload(f *papershelf.WorkspaceFile, uploads []papershelf.UploadEntry) bool {
	ref := WorkspaceRef(f)
	for _, u := range uploads {
		if u.Path == f.Path || SameFile(ref, UploadRef(u)) {
			return true
		}
	}
	return false
}
