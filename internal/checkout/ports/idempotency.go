package ports

import (
	"context"
	"time"
)

// ReservationTTL bounds how long a reserved key blocks retries when the
// request holding it never saves or releases it.
const ReservationTTL = time.Minute

// StoredResponse is the response replayed for a reused Idempotency-Key.
// A zero StatusCode marks a key reserved by a purchase still in flight.
type StoredResponse struct {
	StatusCode    int
	Body          []byte
	TransactionID string
}

func (r StoredResponse) Pending() bool {
	return r.StatusCode == 0
}

// IdempotencyStore lets clients retry a purchase without charging twice.
// Get returns nil, nil for an unknown key and a pending response for a
// reserved one. Reserve claims a free key and reports false when a live
// response or reservation holds it. Save replaces a reservation but keeps
// the first response stored for a key. Release drops a reservation that
// ended without a response.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (*StoredResponse, error)
	Reserve(ctx context.Context, key string) (bool, error)
	Save(ctx context.Context, key string, response StoredResponse) error
	Release(ctx context.Context, key string) error
}
