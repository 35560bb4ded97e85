package papershelf

import (
	"context"
	"time"
)

// DocumentStatus is the backend processing status of a document.
type DocumentStatus string

// DocumentStatus constants reported by the backend.
const (
	StatusUploading  DocumentStatus = "uploading"
	StatusUploaded   DocumentStatus = "uploaded"
	StatusProcessing DocumentStatus = "processing"
	StatusCompleted  DocumentStatus = "completed"
	StatusFailed     DocumentStatus = "failed"
)

// DocumentRecord represents a document confirmed by the backend.
type DocumentRecord struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Filename      string         `json:"filename"`
	Status        DocumentStatus `json:"status"`
	FileSize      int64          `json:"fileSize"`
	UploadDate    time.Time      `json:"uploadDate"`
	ProcessedDate *time.Time     `json:"processedDate,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// Validate returns an error if the document contains invalid fields.
func (d *DocumentRecord) Validate() error {
	if d.ID == "" {
		return Errorf(EINVALID, "document ID required")
	}
	if d.Filename == "" && d.Title == "" {
		return Errorf(EINVALID, "document filename or title required")
	}
	return nil
}

// DisplayTitle returns the title, falling back to the filename.
func (d *DocumentRecord) DisplayTitle() string {
	if d.Title != "" {
		return d.Title
	}
	return d.Filename
}

// ClearResult reports the outcome of clearing the whole library.
type ClearResult struct {
	DeletedCount int      `json:"deletedCount"`
	TotalCount   int      `json:"totalCount"`
	Failed       []string `json:"failed,omitempty"`
}

// SearchHit is a single chunk returned by a semantic search.
type SearchHit struct {
	DocumentID    string  `json:"documentId"`
	DocumentTitle string  `json:"documentTitle"`
	Content       string  `json:"content"`
	SectionTitle  string  `json:"sectionTitle,omitempty"`
	PageNumber    int     `json:"pageNumber,omitempty"`
	Similarity    float64 `json:"similarity"`
}

// SearchResult is the answer to a semantic query over the library.
type SearchResult struct {
	Query  string      `json:"query"`
	Answer string      `json:"answer"`
	Hits   []SearchHit `json:"hits"`
}

// DocumentService represents the backend document service.
type DocumentService interface {
	// ListDocuments returns all documents confirmed for the current user.
	ListDocuments(ctx context.Context) ([]*DocumentRecord, error)

	// UploadDocument uploads the PDF at path.
	// Returns EUNAUTHORIZED, EREJECTED or ENETWORK on failure.
	UploadDocument(ctx context.Context, path string) (*DocumentRecord, error)

	// DeleteDocument permanently removes a document.
	// Returns ENOTFOUND if the document does not exist.
	DeleteDocument(ctx context.Context, id string) error

	// ClearDocuments removes every document of the current user.
	ClearDocuments(ctx context.Context) (*ClearResult, error)

	// SearchDocuments runs a semantic query over completed documents.
	SearchDocuments(ctx context.Context, query string, topK int) (*SearchResult, error)
}
