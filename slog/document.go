// Package slog provides logging decorators for papershelf services.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/papershelf"
)

// Ensure LoggingDocumentService implements papershelf.DocumentService.
var _ papershelf.DocumentService = (*LoggingDocumentService)(nil)

// LoggingDocumentService wraps a DocumentService with logging.
type LoggingDocumentService struct {
	next   papershelf.DocumentService
	logger *slog.Logger
}

// NewLoggingDocumentService creates a new LoggingDocumentService.
func NewLoggingDocumentService(next papershelf.DocumentService, logger *slog.Logger) *LoggingDocumentService {
	return &LoggingDocumentService{next: next, logger: logger}
}

func (s *LoggingDocumentService) ListDocuments(ctx context.Context) (docs []*papershelf.DocumentRecord, err error) {
	defer func(begin time.Time) {
		s.logger.Debug("list documents",
			"count", len(docs),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.ListDocuments(ctx)
}

func (s *LoggingDocumentService) UploadDocument(ctx context.Context, path string) (doc *papershelf.DocumentRecord, err error) {
	defer func(begin time.Time) {
		attrs := []any{"path", path, "duration", time.Since(begin), "err", err}
		if doc != nil {
			attrs = append(attrs, "id", doc.ID, "status", doc.Status)
		}
		s.logger.Info("upload document", attrs...)
	}(time.Now())
	return s.next.UploadDocument(ctx, path)
}

func (s *LoggingDocumentService) DeleteDocument(ctx context.Context, id string) (err error) {
	defer func(begin time.Time) {
		s.logger.Info("delete document",
			"id", id,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.DeleteDocument(ctx, id)
}

func (s *LoggingDocumentService) ClearDocuments(ctx context.Context) (result *papershelf.ClearResult, err error) {
	defer func(begin time.Time) {
		var deleted, failed int
		if result != nil {
			deleted, failed = result.DeletedCount, len(result.Failed)
		}
		s.logger.Info("clear documents",
			"deleted", deleted,
			"failed", failed,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.ClearDocuments(ctx)
}

func (s *LoggingDocumentService) SearchDocuments(ctx context.Context, query string, topK int) (result *papershelf.SearchResult, err error) {
	defer func(begin time.Time) {
		var hits int
		if result != nil {
			hits = len(result.Hits)
		}
		s.logger.Debug("search documents",
			"query", query,
			"top_k", topK,
			"count", hits,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.SearchDocuments(ctx, query, topK)
}
