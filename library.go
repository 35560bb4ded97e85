package papershelf

// EntryKind identifies where a library entry comes from.
type EntryKind string

// EntryKind constants.
const (
	KindUploaded  EntryKind = "uploaded"
	KindWorkspace EntryKind = "workspace"
	KindUploading EntryKind = "uploading"
)

// StatusNotUploaded is the status of a workspace file the backend has not seen.
const StatusNotUploaded DocumentStatus = "not-uploaded"

// LibraryEntry is one row of the reconciled library view.
// Entries are always derived from their sources and never persisted.
type LibraryEntry struct {
	ID       string         `json:"id"`
	Title    string         `json:"title"`
	Kind     EntryKind      `json:"kind"`
	Status   DocumentStatus `json:"status"`
	FilePath string         `json:"filePath,omitempty"`
	Progress *float64       `json:"progress,omitempty"`
}
