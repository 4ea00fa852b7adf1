package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/HelieAriane/Clanimo/internal/config"
)

// ErrInvalidCredential is returned for any bearer token that fails
// verification. Clients never see the underlying reason.
var ErrInvalidCredential = errors.New("invalid credential")

// IdentityClaims is what the verifier extracts from a valid token. Subject is
// the opaque identity string that keys every table.
type IdentityClaims struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
}

// IdentityVerifier validates a bearer token and returns the identity it
// asserts. The server never mints credentials; the issuer owns identity.
type IdentityVerifier interface {
	Verify(ctx context.Context, rawToken string) (IdentityClaims, error)
}

// NewIdentityVerifier selects the verifier from config. The stub verifier is
// only reachable when AUTH_STUB is set.
func NewIdentityVerifier(ctx context.Context, cfg config.AuthConfig) (IdentityVerifier, error) {
	if cfg.Stub {
		return &StubVerifier{}, nil
	}
	return NewOIDCVerifier(ctx, cfg)
}

// OIDCVerifier checks ID tokens against the configured issuer's published
// keys, via discovery.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

func NewOIDCVerifier(ctx context.Context, cfg config.AuthConfig) (*OIDCVerifier, error) {
	if strings.TrimSpace(cfg.IssuerURL) == "" {
		return nil, errors.New("issuer url is required")
	}

	provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("discovering oidc provider: %w", err)
	}

	oidcConfig := &oidc.Config{ClientID: cfg.ClientID}
	if cfg.ClientID == "" {
		oidcConfig.SkipClientIDCheck = true
	}

	return &OIDCVerifier{verifier: provider.Verifier(oidcConfig)}, nil
}

func (v *OIDCVerifier) Verify(ctx context.Context, rawToken string) (IdentityClaims, error) {
	idToken, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return IdentityClaims{}, ErrInvalidCredential
	}

	var claims struct {
		Subject       string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return IdentityClaims{}, ErrInvalidCredential
	}
	if claims.Subject == "" {
		return IdentityClaims{}, ErrInvalidCredential
	}

	return IdentityClaims{
		Subject:       claims.Subject,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		Name:          claims.Name,
	}, nil
}

// StubVerifier accepts "stub:<uid>" tokens. Local development only; Load
// refuses to run without an issuer unless AUTH_STUB is set explicitly.
type StubVerifier struct{}

func (v *StubVerifier) Verify(_ context.Context, rawToken string) (IdentityClaims, error) {
	uid, ok := strings.CutPrefix(rawToken, "stub:")
	if !ok || uid == "" {
		return IdentityClaims{}, ErrInvalidCredential
	}
	return IdentityClaims{Subject: uid}, nil
}
