// Package local verifies credentials without a network round trip: any
// well-formed email with a non-empty password is accepted.
package local

import (
	"context"
	"fmt"

	"github.com/dejobratic/errorfix/internal/auth/domain"
)

type Authenticator struct{}

func NewAuthenticator() *Authenticator {
	return &Authenticator{}
}

// Authenticate synthesizes a user for creds. The session token is the user
// id, which the API accepts in opaque auth mode.
func (a *Authenticator) Authenticate(ctx context.Context, creds domain.Credentials) (domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return domain.Session{}, fmt.Errorf("%w: %w", domain.ErrAuthService, err)
	}
	if err := creds.Validate(); err != nil {
		return domain.Session{}, err
	}

	user := domain.NewUser(creds.Email)
	return domain.Session{User: &user, Token: user.ID}, nil
}
