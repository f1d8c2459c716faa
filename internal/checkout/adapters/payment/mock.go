// Package payment holds payment processors. Only a simulated processor
// exists; no real gateway is integrated.
package payment

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/dejobratic/errorfix/internal/checkout/domain"
	"github.com/dejobratic/errorfix/internal/checkout/ports"
)

const (
	DefaultDelay   = 1500 * time.Millisecond
	DeclinedReason = "Card declined"
)

// DefaultDeclinedCards are test card numbers that are always refused.
var DefaultDeclinedCards = []string{"4000000000000002"}

// MockProcessor approves every charge after a fixed delay unless the card
// is on the declined list.
type MockProcessor struct {
	delay    time.Duration
	declined map[string]struct{}
	logger   *slog.Logger
}

func NewMockProcessor(delay time.Duration, declinedCards []string, logger *slog.Logger) *MockProcessor {
	declined := make(map[string]struct{}, len(declinedCards))
	for _, card := range declinedCards {
		declined[normalizeCard(card)] = struct{}{}
	}
	return &MockProcessor{delay: delay, declined: declined, logger: logger}
}

func (p *MockProcessor) Charge(ctx context.Context, charge ports.Charge) error {
	if p.delay > 0 {
		timer := time.NewTimer(p.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	if _, ok := p.declined[normalizeCard(charge.CardNumber)]; ok {
		p.logger.InfoContext(ctx, "charge declined", "transaction_id", charge.TransactionID)
		return &domain.DeclinedError{Reason: DeclinedReason}
	}

	p.logger.DebugContext(ctx, "charge approved",
		"transaction_id", charge.TransactionID,
		"amount_cents", charge.AmountCents,
	)
	return nil
}

func normalizeCard(card string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(card)
}
