// Package oidc verifies bearer tokens against an OpenID Connect issuer, for
// deployments whose identity provider publishes a discovery document and JWKS
// instead of sharing an HMAC secret.
package oidc

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/policy-auditor/policy-auditor/internal/auth"
	"github.com/policy-auditor/policy-auditor/internal/config"
)

// Verifier validates ID/access tokens issued by an OIDC provider
type Verifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewVerifier performs issuer discovery and builds a verifier for cfg.ClientID.
func NewVerifier(ctx context.Context, cfg *config.OIDCConfig) (*Verifier, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("OIDC is not enabled")
	}
	if cfg.IssuerURL == "" {
		return nil, fmt.Errorf("OIDC issuer URL is required")
	}
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("OIDC client ID is required")
	}

	provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}
	return &Verifier{verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID})}, nil
}

// newWithKeySet builds a Verifier without discovery.
func newWithKeySet(issuer, clientID string, keys oidc.KeySet, algs ...string) *Verifier {
	return &Verifier{verifier: oidc.NewVerifier(issuer, keys, &oidc.Config{
		ClientID:             clientID,
		SupportedSigningAlgs: algs,
	})}
}

// Verify implements auth.Verifier
func (v *Verifier) Verify(ctx context.Context, rawToken string) (*auth.Identity, error) {
	idToken, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", auth.ErrInvalidToken, err)
	}

	var claims struct {
		Email string `json:"email"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%w: failed to parse claims: %v", auth.ErrInvalidToken, err)
	}
	if idToken.Subject == "" {
		return nil, fmt.Errorf("%w: missing sub claim", auth.ErrInvalidToken)
	}
	return &auth.Identity{UserID: idToken.Subject, Email: claims.Email}, nil
}
