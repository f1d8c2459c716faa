package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Status captures the lifecycle of a purchase transaction.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

var (
	ErrNoItems               = errors.New("no items in cart")
	ErrMissingPaymentDetails = errors.New("missing payment details or total amount")
	ErrPaymentDeclined       = errors.New("payment declined")
)

// Transaction is one charge attempt for a cart.
type Transaction struct {
	ID            string    `json:"id"`
	Customer      string    `json:"customer"`
	AmountCents   int64     `json:"amountCents"`
	ItemCount     int       `json:"itemCount"`
	Status        Status    `json:"status"`
	FailureReason string    `json:"failureReason,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Validate ensures the transaction adheres to business constraints.
func (t Transaction) Validate() error {
	if strings.TrimSpace(t.Customer) == "" {
		return errors.New("customer is required")
	}
	if t.AmountCents <= 0 {
		return errors.New("amount must be positive")
	}
	if t.ItemCount <= 0 {
		return errors.New("item count must be positive")
	}
	return nil
}

// IsTerminal reports whether the transaction reached a final state.
func (t Transaction) IsTerminal() bool {
	return t.Status == StatusCompleted || t.Status == StatusFailed
}

// Amount returns the charged amount in currency units.
func (t Transaction) Amount() decimal.Decimal {
	return decimal.New(t.AmountCents, -2)
}

// ToCents converts a currency amount to whole cents, rounding half away from zero.
func ToCents(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// DeclinedError is a charge refused by the payment processor.
type DeclinedError struct {
	Reason string
}

func (e *DeclinedError) Error() string {
	return e.Reason
}

func (e *DeclinedError) Unwrap() error {
	return ErrPaymentDeclined
}
