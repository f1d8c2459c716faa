package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the phase of the current purchase attempt.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusProcessing Status = "processing"
	StatusComplete   Status = "complete"
	StatusFailed     Status = "failed"
)

// User-facing failure messages.
const (
	MessageGenericFailure = "Payment processing failed. Please try again."
	MessageTimeout        = "Payment request timed out. Please try again."
	MessageUnauthorized   = "Authentication required. Please log in to complete your purchase."
	MessageInProgress     = "A purchase is already being processed."
)

var (
	ErrAlreadyProcessing = errors.New("purchase already processing")
	ErrTimeout           = errors.New("purchase timed out")
	ErrTransport         = errors.New("purchase transport failure")
	ErrPurchaseRejected  = errors.New("purchase rejected")
	ErrNotAuthenticated  = errors.New("not authenticated")
)

// State is the observable projection of the workflow. Error is empty unless
// Status is StatusFailed.
type State struct {
	Status        Status
	Error         string
	TransactionID string
}

func (s State) IsProcessing() bool { return s.Status == StatusProcessing }
func (s State) IsComplete() bool   { return s.Status == StatusComplete }

// LineItem is one cart line as submitted to the purchase endpoint.
type LineItem struct {
	ID            int64           `json:"id" validate:"required"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	Image         string          `json:"image,omitempty"`
	Quantity      int             `json:"quantity" validate:"gte=1"`
	SelectedSize  string          `json:"selectedSize,omitempty"`
	SelectedColor string          `json:"selectedColor,omitempty"`
}

// PaymentDetails are the mock card fields collected at checkout.
type PaymentDetails struct {
	CardNumber     string `json:"cardNumber" validate:"required"`
	CardholderName string `json:"cardholderName,omitempty"`
	ExpiryDate     string `json:"expiryDate,omitempty"`
	CVV            string `json:"cvv,omitempty"`
}

// Customer identifies who is buying.
type Customer struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Request is the purchase submission payload.
type Request struct {
	Items          []LineItem      `json:"items"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	User           Customer        `json:"user"`
	PaymentDetails *PaymentDetails `json:"paymentDetails"`
}

// Receipt is the accepted-purchase response.
type Receipt struct {
	Success       bool            `json:"success"`
	TransactionID string          `json:"transactionId"`
	Timestamp     time.Time       `json:"timestamp"`
	Amount        decimal.Decimal `json:"amount"`
	ItemCount     int             `json:"itemCount"`
}

// RejectedError is a non-2xx answer from the purchase endpoint.
type RejectedError struct {
	StatusCode int
	Message    string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("purchase rejected with status %d", e.StatusCode)
	}
	return fmt.Sprintf("purchase rejected with status %d: %s", e.StatusCode, e.Message)
}

func (e *RejectedError) Unwrap() error {
	return ErrPurchaseRejected
}

// FailureMessage maps a submission error to the text shown to the shopper.
func FailureMessage(err error) string {
	var rejected *RejectedError
	switch {
	case errors.Is(err, ErrAlreadyProcessing):
		return MessageInProgress
	case errors.Is(err, ErrTimeout):
		return MessageTimeout
	case errors.Is(err, ErrNotAuthenticated):
		return MessageUnauthorized
	case errors.As(err, &rejected):
		if rejected.StatusCode == 401 && rejected.Message == "" {
			return MessageUnauthorized
		}
		if rejected.Message != "" {
			return rejected.Message
		}
		return MessageGenericFailure
	default:
		return MessageGenericFailure
	}
}
