package mock

import (
	"context"

	"github.com/fwojciec/papershelf"
)

var _ papershelf.DocumentService = (*DocumentService)(nil)

// DocumentService is a mock implementation of papershelf.DocumentService.
type DocumentService struct {
	ListDocumentsFn   func(ctx context.Context) ([]*papershelf.DocumentRecord, error)
	UploadDocumentFn  func(ctx context.Context, path string) (*papershelf.DocumentRecord, error)
	DeleteDocumentFn  func(ctx context.Context, id string) error
	ClearDocumentsFn  func(ctx context.Context) (*papershelf.ClearResult, error)
	SearchDocumentsFn func(ctx context.Context, query string, topK int) (*papershelf.SearchResult, error)
}

func (s *DocumentService) ListDocuments(ctx context.Context) ([]*papershelf.DocumentRecord, error) {
	return s.ListDocumentsFn(ctx)
}

func (s *DocumentService) UploadDocument(ctx context.Context, path string) (*papershelf.DocumentRecord, error) {
	return s.UploadDocumentFn(ctx, path)
}

func (s *DocumentService) DeleteDocument(ctx context.Context, id string) error {
	return s.DeleteDocumentFn(ctx, id)
}

func (s *DocumentService) ClearDocuments(ctx context.Context) (*papershelf.ClearResult, error) {
	return s.ClearDocumentsFn(ctx)
}

func (s *DocumentService) SearchDocuments(ctx context.Context, query string, topK int) (*papershelf.SearchResult, error) {
	return s.SearchDocumentsFn(ctx, query, topK)
}
