package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/fwojciec/papershelf"
)

// Ensure AuthService implements papershelf.AuthService at compile time.
var _ papershelf.AuthService = (*AuthService)(nil)

// AuthService exchanges user credentials and refresh tokens for access
// tokens with the authentication service.
type AuthService struct {
	client *Client
}

// NewAuthService creates a new AuthService.
func NewAuthService(client *Client) *AuthService {
	return &AuthService{client: client}
}

// Login exchanges email and password for an access and refresh token pair.
func (s *AuthService) Login(ctx context.Context, email, password string) (*papershelf.Credentials, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, papershelf.Errorf(papershelf.EINVALID, "email and password required")
	}

	payload := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{Email: email, Password: password}

	req, err := s.client.newJSONRequest(ctx, http.MethodPost, "/api/auth/login", payload)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, responseError(resp, nil)
	}

	var out struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		User         struct {
			Email string `json:"email"`
		} `json:"user"`
	}
	if err := decodeJSON(resp, &out); err != nil {
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, papershelf.Errorf(papershelf.EINTERNAL, "login response has no access token")
	}

	return &papershelf.Credentials{
		AccessToken:  out.AccessToken,
		RefreshToken: out.RefreshToken,
		Email:        firstNonEmpty(out.User.Email, email),
	}, nil
}

// Refresh exchanges refreshToken for a new access token.
// An expired, revoked or malformed refresh token yields EUNAUTHORIZED.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", papershelf.Errorf(papershelf.EUNAUTHORIZED, "no refresh token")
	}

	req, err := s.client.newJSONRequest(ctx, http.MethodPost, "/api/auth/refresh", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+refreshToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", responseError(resp, map[int]string{
			http.StatusUnprocessableEntity: papershelf.EUNAUTHORIZED,
		})
	}

	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := decodeJSON(resp, &out); err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", papershelf.Errorf(papershelf.EINTERNAL, "refresh response has no access token")
	}
	return out.AccessToken, nil
}
