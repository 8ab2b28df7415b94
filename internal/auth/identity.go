// Package auth issues and validates the bearer tokens that identify café
// staff. Credentials are checked by a CredentialVerifier; tokens are
// checked by one or more Authenticators combined in a Gate.
package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/safar/cafe-pos/internal/apperr"
	"github.com/safar/cafe-pos/internal/models"
)

type Identity struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

func (i Identity) IsAdmin() bool {
	return i.Role == models.RoleAdmin
}

type CredentialVerifier interface {
	Verify(ctx context.Context, username, password string) (Identity, error)
}

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (Identity, error)
}

func errInvalidCredentials() error {
	return apperr.Authentication("invalid username or password")
}

// errInvalidToken keeps the verifier's reason as the cause for logs.
func errInvalidToken(cause error) error {
	return &apperr.Error{Kind: apperr.KindAuthentication, Message: "invalid or expired token", Err: cause}
}

// Gate tries each authenticator in order and accepts the first identity
// any of them vouches for. A failure that is not a rejected token, such as
// an unreachable key endpoint, stops the search and is returned as is.
type Gate struct {
	authenticators []Authenticator
}

func NewGate(authenticators ...Authenticator) *Gate {
	return &Gate{authenticators: authenticators}
}

func (g *Gate) Authenticate(ctx context.Context, token string) (Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, apperr.Authentication("token required")
	}

	var causes []error
	for _, a := range g.authenticators {
		identity, err := a.Authenticate(ctx, token)
		if err == nil {
			return identity, nil
		}
		if apperr.KindOf(err) != apperr.KindAuthentication {
			return Identity{}, err
		}
		if cause := errors.Unwrap(err); cause != nil {
			causes = append(causes, cause)
		}
	}

	return Identity{}, errInvalidToken(errors.Join(causes...))
}
