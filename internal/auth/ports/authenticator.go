package ports

import (
	"context"

	"github.com/dejobratic/errorfix/internal/auth/domain"
)

// Authenticator verifies credentials and returns the resulting session.
// Implementations return domain.ErrAuthService (wrapped) for rejections and
// service failures.
type Authenticator interface {
	Authenticate(ctx context.Context, creds domain.Credentials) (domain.Session, error)
}
