package auth

import (
	"errors"
	"strings"
)

var ErrUnauthenticated = errors.New("invalid or expired token")

// Identity is the authenticated caller
type Identity struct {
	UserID string
	Email  string
	Name   string
}

// Authenticator resolves bearer tokens, trying the OIDC verifier first and
// the legacy HMAC secret second. Either may be absent.
type Authenticator struct {
	Verifier Verifier
	Secret   string
}

// Configured reports whether any verification method is available
func (a *Authenticator) Configured() bool {
	return a.Verifier != nil || a.Secret != ""
}

// Authenticate validates a raw token
func (a *Authenticator) Authenticate(token string) (*Identity, error) {
	if a.Verifier != nil {
		id, err := a.Verifier.Verify(token)
		if err == nil {
			return id, nil
		}
		if a.Secret == "" {
			return nil, ErrUnauthenticated
		}
	}
	if a.Secret != "" {
		claims, err := ValidateLegacyToken(token, a.Secret)
		if err != nil {
			return nil, ErrUnauthenticated
		}
		return &Identity{UserID: claims.UserID, Email: claims.Email}, nil
	}
	return nil, ErrUnauthenticated
}

// BearerToken extracts the token of an "Authorization: Bearer <token>" header
func BearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
