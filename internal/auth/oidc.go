package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"github.com/devagent/orchestrator/internal/config"
)

// Verifier checks tokens issued by an external identity provider
type Verifier interface {
	Verify(token string) (*Identity, error)
}

// OIDCVerifier accepts asymmetric-signed tokens of one issuer, checked
// against the issuer's published key set
type OIDCVerifier struct {
	keys     jwt.Keyfunc
	issuer   string
	audience string
}

type oidcClaims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

var signingMethods = []string{"RS256", "RS384", "RS512", "ES256", "ES384", "PS256"}

var discoveryClient = &http.Client{Timeout: 10 * time.Second}

// NewOIDCVerifier discovers the issuer's JWKS endpoint. The key set is
// refreshed in the background until ctx is done.
func NewOIDCVerifier(ctx context.Context, cfg config.ZitadelConfig) (*OIDCVerifier, error) {
	issuer := strings.TrimSuffix(cfg.Issuer, "/")
	if issuer == "" {
		return nil, fmt.Errorf("oidc issuer is required")
	}

	jwksURL, err := DiscoverJWKS(ctx, issuer)
	if err != nil {
		return nil, err
	}
	jwks, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("load key set %s: %w", jwksURL, err)
	}
	return NewOIDCVerifierWithKeys(jwks.Keyfunc, issuer, cfg.ClientID), nil
}

// NewOIDCVerifierWithKeys uses keys to resolve signing keys. An empty
// audience is not checked.
func NewOIDCVerifierWithKeys(keys jwt.Keyfunc, issuer, audience string) *OIDCVerifier {
	return &OIDCVerifier{keys: keys, issuer: strings.TrimSuffix(issuer, "/"), audience: audience}
}

// DiscoverJWKS reads jwks_uri from the issuer's openid-configuration
func DiscoverJWKS(ctx context.Context, issuer string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, issuer+"/.well-known/openid-configuration", nil)
	if err != nil {
		return "", fmt.Errorf("oidc discovery: %w", err)
	}
	resp, err := discoveryClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("oidc discovery: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("oidc discovery: status %d", resp.StatusCode)
	}
	var doc struct {
		JWKSURI string `json:"jwks_uri"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return "", fmt.Errorf("oidc discovery: %w", err)
	}
	if doc.JWKSURI == "" {
		return "", fmt.Errorf("oidc discovery: no jwks_uri")
	}
	return doc.JWKSURI, nil
}

// Verify returns the identity carried by a valid token. The subject
// becomes the owner id of everything the caller creates.
func (v *OIDCVerifier) Verify(token string) (*Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods(signingMethods),
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	var claims oidcClaims
	if _, err := jwt.ParseWithClaims(token, &claims, v.keys, opts...); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: no subject", ErrUnauthenticated)
	}
	return &Identity{UserID: claims.Subject, Email: claims.Email, Name: claims.Name}, nil
}
