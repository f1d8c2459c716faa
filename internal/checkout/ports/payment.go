package ports

import "context"

// Charge is a request to move money for a transaction.
type Charge struct {
	TransactionID string
	AmountCents   int64
	CardNumber    string
}

// PaymentProcessor charges a card. A refused charge is returned as
// *domain.DeclinedError.
type PaymentProcessor interface {
	Charge(ctx context.Context, charge Charge) error
}
