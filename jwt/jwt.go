// Package jwt inspects JSON Web Tokens issued by the authentication service.
// Tokens are never verified here; the backend remains the authority.
package jwt

import (
	"encoding/json"
	"time"

	"github.com/fwojciec/papershelf"
	"github.com/golang-jwt/jwt"
)

// ExpiresAt returns the expiry time recorded in the token's "exp" claim.
// The zero time and false are returned when the token has no expiry.
// Returns EINVALID if the token cannot be decoded.
func ExpiresAt(token string) (time.Time, bool, error) {
	claims := jwt.MapClaims{}
	if _, _, err := (&jwt.Parser{}).ParseUnverified(token, claims); err != nil {
		return time.Time{}, false, papershelf.Errorf(papershelf.EINVALID, "malformed token: %v", err)
	}

	var exp int64
	switch v := claims["exp"].(type) {
	case float64:
		exp = int64(v)
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return time.Time{}, false, papershelf.Errorf(papershelf.EINVALID, "malformed exp claim: %v", err)
		}
		exp = n
	case nil:
		return time.Time{}, false, nil
	default:
		return time.Time{}, false, papershelf.Errorf(papershelf.EINVALID, "malformed exp claim: %v", v)
	}
	return time.Unix(exp, 0), true, nil
}

// ExpiresWithin reports whether token expires before now+window.
// Tokens without an expiry never expire; undecodable tokens always do.
func ExpiresWithin(token string, now time.Time, window time.Duration) bool {
	exp, ok, err := ExpiresAt(token)
	if err != nil {
		return true
	}
	if !ok {
		return false
	}
	return exp.Before(now.Add(window))
}
