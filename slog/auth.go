package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/papershelf"
)

// Ensure LoggingAuthService implements papershelf.AuthService.
var _ papershelf.AuthService = (*LoggingAuthService)(nil)

// LoggingAuthService wraps an AuthService with logging. Secrets are never logged.
type LoggingAuthService struct {
	next   papershelf.AuthService
	logger *slog.Logger
}

// NewLoggingAuthService creates a new LoggingAuthService.
func NewLoggingAuthService(next papershelf.AuthService, logger *slog.Logger) *LoggingAuthService {
	return &LoggingAuthService{next: next, logger: logger}
}

func (s *LoggingAuthService) Login(ctx context.Context, email, password string) (creds *papershelf.Credentials, err error) {
	defer func(begin time.Time) {
		s.logger.Info("login",
			"email", email,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Login(ctx, email, password)
}

func (s *LoggingAuthService) Refresh(ctx context.Context, refreshToken string) (token string, err error) {
	defer func(begin time.Time) {
		s.logger.Debug("refresh token",
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Refresh(ctx, refreshToken)
}
