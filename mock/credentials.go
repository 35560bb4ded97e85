package mock

import (
	"context"

	"github.com/fwojciec/papershelf"
)

// Compile-time interface verification.
var (
	_ papershelf.CredentialProvider = (*CredentialProvider)(nil)
	_ papershelf.AuthService        = (*AuthService)(nil)
)

// CredentialProvider is a mock implementation of papershelf.CredentialProvider.
type CredentialProvider struct {
	StoredCredentialsFn  func(ctx context.Context) (*papershelf.Credentials, error)
	RefreshCredentialsFn func(ctx context.Context) (*papershelf.Credentials, error)
}

func (p *CredentialProvider) StoredCredentials(ctx context.Context) (*papershelf.Credentials, error) {
	return p.StoredCredentialsFn(ctx)
}

func (p *CredentialProvider) RefreshCredentials(ctx context.Context) (*papershelf.Credentials, error) {
	return p.RefreshCredentialsFn(ctx)
}

// AuthService is a mock implementation of papershelf.AuthService.
type AuthService struct {
	LoginFn   func(ctx context.Context, email, password string) (*papershelf.Credentials, error)
	RefreshFn func(ctx context.Context, refreshToken string) (string, error)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*papershelf.Credentials, error) {
	return s.LoginFn(ctx, email, password)
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	return s.RefreshFn(ctx, refreshToken)
}
