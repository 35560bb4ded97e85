// Package auth manages the signed-in user's credentials. It stores them in a
// papershelf.StateStore and refreshes the access token through an
// papershelf.AuthService when it is about to expire or is rejected.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fwojciec/papershelf"
	"github.com/fwojciec/papershelf/jwt"
)

// CredentialsKey is the StateStore key of the stored credentials.
const CredentialsKey = "credentials"

// DefaultRefreshWindow is how long before expiry an access token is refreshed.
const DefaultRefreshWindow = 30 * time.Second

// Ensure Provider implements papershelf.CredentialProvider at compile time.
var _ papershelf.CredentialProvider = (*Provider)(nil)

// Provider supplies stored credentials and refreshes them on demand.
// It is safe for concurrent use; concurrent refreshes are serialized.
type Provider struct {
	Store  papershelf.StateStore
	Auth   papershelf.AuthService
	Logger *slog.Logger
	Now    func() time.Time

	// RefreshWindow is how long before expiry StoredCredentials refreshes
	// the access token proactively.
	RefreshWindow time.Duration

	mu sync.Mutex
}

// NewProvider creates a new Provider.
func NewProvider(store papershelf.StateStore, auth papershelf.AuthService) *Provider {
	return &Provider{
		Store:         store,
		Auth:          auth,
		Logger:        slog.New(slog.DiscardHandler),
		Now:           time.Now,
		RefreshWindow: DefaultRefreshWindow,
	}
}

// Login signs in with email and password and stores the issued credentials.
func (p *Provider) Login(ctx context.Context, email, password string) (*papershelf.Credentials, error) {
	creds, err := p.Auth.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.save(ctx, creds); err != nil {
		return nil, err
	}
	return creds, nil
}

// Logout forgets the stored credentials.
func (p *Provider) Logout(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Store.Delete(ctx, CredentialsKey)
}

// StoredCredentials returns the stored credentials, refreshing the access
// token first when it expires within RefreshWindow. Returns nil when no
// user is signed in or the session can no longer be refreshed.
func (p *Provider) StoredCredentials(ctx context.Context) (*papershelf.Credentials, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	creds, err := p.load(ctx)
	if err != nil || creds == nil {
		return nil, err
	}
	if !jwt.ExpiresWithin(creds.AccessToken, p.Now(), p.RefreshWindow) {
		return creds, nil
	}

	p.Logger.Debug("access token expiring, refreshing", "email", creds.Email)
	return p.refresh(ctx, creds)
}

// RefreshCredentials obtains a new access token using the stored refresh
// token. Returns nil when no user is signed in or the refresh token was
// rejected, in which case the stored credentials are removed.
func (p *Provider) RefreshCredentials(ctx context.Context) (*papershelf.Credentials, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	creds, err := p.load(ctx)
	if err != nil || creds == nil {
		return nil, err
	}
	return p.refresh(ctx, creds)
}

func (p *Provider) refresh(ctx context.Context, creds *papershelf.Credentials) (*papershelf.Credentials, error) {
	token, err := p.Auth.Refresh(ctx, creds.RefreshToken)
	if papershelf.ErrorCode(err) == papershelf.EUNAUTHORIZED {
		p.Logger.Info("session expired", "email", creds.Email, "err", err)
		if err := p.Store.Delete(ctx, CredentialsKey); err != nil {
			return nil, err
		}
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	refreshed := *creds
	refreshed.AccessToken = token
	if err := p.save(ctx, &refreshed); err != nil {
		return nil, err
	}
	return &refreshed, nil
}

func (p *Provider) load(ctx context.Context) (*papershelf.Credentials, error) {
	data, err := p.Store.Get(ctx, CredentialsKey)
	if papershelf.ErrorCode(err) == papershelf.ENOTFOUND {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var creds papershelf.Credentials
	if err := json.Unmarshal(data, &creds); err != nil || creds.AccessToken == "" {
		p.Logger.Warn("discarding unreadable credentials", "err", err)
		return nil, nil
	}
	return &creds, nil
}

func (p *Provider) save(ctx context.Context, creds *papershelf.Credentials) error {
	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}
	return p.Store.Put(ctx, CredentialsKey, data)
}
