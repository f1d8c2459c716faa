package ports

import (
	"context"

	"github.com/dejobratic/errorfix/internal/purchase/domain"
)

// Submitter sends one purchase request. idempotencyKey identifies the attempt;
// a repeated key must not charge twice.
type Submitter interface {
	Submit(ctx context.Context, req domain.Request, bearer, idempotencyKey string) (domain.Receipt, error)
}

// CredentialSource yields the bearer credential of the current session.
type CredentialSource interface {
	BearerToken() (string, bool)
}
