package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/dejobratic/errorfix/internal/purchase/domain"
)

func TestFailureMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "server message wins",
			err:  &domain.RejectedError{StatusCode: 402, Message: "Card declined"},
			want: "Card declined",
		},
		{
			name: "rejection without message is generic",
			err:  &domain.RejectedError{StatusCode: 500},
			want: domain.MessageGenericFailure,
		},
		{
			name: "unauthorized without message asks to log in",
			err:  &domain.RejectedError{StatusCode: 401},
			want: domain.MessageUnauthorized,
		},
		{
			name: "wrapped timeout",
			err:  fmt.Errorf("submit: %w", domain.ErrTimeout),
			want: domain.MessageTimeout,
		},
		{
			name: "transport failure is generic",
			err:  fmt.Errorf("%w: connection reset", domain.ErrTransport),
			want: domain.MessageGenericFailure,
		},
		{
			name: "missing session",
			err:  domain.ErrNotAuthenticated,
			want: domain.MessageUnauthorized,
		},
		{
			name: "already processing",
			err:  domain.ErrAlreadyProcessing,
			want: domain.MessageInProgress,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := domain.FailureMessage(tt.err); got != tt.want {
				t.Errorf("FailureMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRejectedErrorUnwrap(t *testing.T) {
	err := fmt.Errorf("submit: %w", &domain.RejectedError{StatusCode: 400, Message: "No items in cart"})

	if !errors.Is(err, domain.ErrPurchaseRejected) {
		t.Error("expected rejection to match ErrPurchaseRejected")
	}
}
