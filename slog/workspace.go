package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/papershelf"
)

// Ensure LoggingWorkspaceScanner implements papershelf.WorkspaceScanner.
var _ papershelf.WorkspaceScanner = (*LoggingWorkspaceScanner)(nil)

// LoggingWorkspaceScanner wraps a WorkspaceScanner with debug logging.
type LoggingWorkspaceScanner struct {
	next   papershelf.WorkspaceScanner
	logger *slog.Logger
}

// NewLoggingWorkspaceScanner creates a new LoggingWorkspaceScanner.
func NewLoggingWorkspaceScanner(next papershelf.WorkspaceScanner, logger *slog.Logger) *LoggingWorkspaceScanner {
	return &LoggingWorkspaceScanner{next: next, logger: logger}
}

// ScanWorkspace delegates to the wrapped scanner and logs the operation.
func (s *LoggingWorkspaceScanner) ScanWorkspace(ctx context.Context) (files []*papershelf.WorkspaceFile, err error) {
	defer func(begin time.Time) {
		s.logger.Debug("workspace scan",
			"count", len(files),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.ScanWorkspace(ctx)
}
