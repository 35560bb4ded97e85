package papershelf

import "context"

// Credentials holds the tokens issued by the authentication service.
type Credentials struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	Email        string `json:"email,omitempty"`
}

// CredentialProvider supplies credentials for backend requests.
// A nil result with a nil error means no usable credentials exist; callers
// must treat it as terminal and not retry.
type CredentialProvider interface {
	StoredCredentials(ctx context.Context) (*Credentials, error)
	RefreshCredentials(ctx context.Context) (*Credentials, error)
}

// AuthService represents the remote authentication service.
type AuthService interface {
	// Login exchanges an email and password for credentials.
	// Returns EUNAUTHORIZED if the credentials are rejected.
	Login(ctx context.Context, email, password string) (*Credentials, error)

	// Refresh exchanges a refresh token for a new access token.
	// Returns EUNAUTHORIZED if the refresh token is expired or revoked.
	Refresh(ctx context.Context, refreshToken string) (accessToken string, err error)
}
