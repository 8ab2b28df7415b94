package auth

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/safar/cafe-pos/internal/models"
)

// OIDCAuthenticator accepts ID tokens from an external identity provider.
// The café role is read from roleClaim, which may hold a string or a list
// of strings; admin wins when both roles are listed.
type OIDCAuthenticator struct {
	verifier  *oidc.IDTokenVerifier
	roleClaim string
}

func NewOIDCAuthenticator(ctx context.Context, issuer, clientID, roleClaim string) (*OIDCAuthenticator, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("discover oidc provider: %w", err)
	}

	verifier := provider.Verifier(&oidc.Config{ClientID: clientID})
	return NewOIDCAuthenticatorWithVerifier(verifier, roleClaim), nil
}

func NewOIDCAuthenticatorWithVerifier(verifier *oidc.IDTokenVerifier, roleClaim string) *OIDCAuthenticator {
	if roleClaim == "" {
		roleClaim = "role"
	}
	return &OIDCAuthenticator{verifier: verifier, roleClaim: roleClaim}
}

func (a *OIDCAuthenticator) Authenticate(ctx context.Context, token string) (Identity, error) {
	idToken, err := a.verifier.Verify(ctx, token)
	if err != nil {
		return Identity{}, errInvalidToken(fmt.Errorf("id token: %w", err))
	}

	var claims map[string]any
	if err := idToken.Claims(&claims); err != nil {
		return Identity{}, errInvalidToken(fmt.Errorf("id token claims: %w", err))
	}

	role := roleFromClaim(claims[a.roleClaim])
	if role == "" {
		return Identity{}, errInvalidToken(fmt.Errorf("id token: no cafe role in claim %q", a.roleClaim))
	}

	username := stringClaim(claims, "preferred_username")
	if username == "" {
		username = stringClaim(claims, "email")
	}
	if username == "" {
		username = idToken.Subject
	}

	name := stringClaim(claims, "name")
	if name == "" {
		name = username
	}

	return Identity{Username: username, Name: name, Role: role}, nil
}

func roleFromClaim(v any) string {
	switch value := v.(type) {
	case string:
		if models.ValidRole(value) {
			return value
		}
	case []any:
		role := ""
		for _, item := range value {
			s, ok := item.(string)
			if !ok {
				continue
			}
			if s == models.RoleAdmin {
				return models.RoleAdmin
			}
			if s == models.RoleStaff {
				role = models.RoleStaff
			}
		}
		return role
	}
	return ""
}

func stringClaim(claims map[string]any, key string) string {
	s, _ := claims[key].(string)
	return s
}
