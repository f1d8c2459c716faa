// Package app holds the purchase workflow: the Idle -> Processing ->
// Complete | Failed state machine around a single purchase submission.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dejobratic/errorfix/internal/observe"
	"github.com/dejobratic/errorfix/internal/purchase/domain"
	"github.com/dejobratic/errorfix/internal/purchase/ports"
	"github.com/dejobratic/errorfix/internal/result"
)

const DefaultTimeout = 15 * time.Second

type Option func(*Workflow)

// WithTimeout bounds every submission. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(w *Workflow) {
		if d > 0 {
			w.timeout = d
		}
	}
}

// WithIdempotencyKeys overrides how attempt keys are generated.
func WithIdempotencyKeys(next func() string) Option {
	return func(w *Workflow) {
		w.newKey = next
	}
}

// Workflow runs at most one purchase at a time.
type Workflow struct {
	mu         sync.Mutex
	state      domain.State
	generation uint64

	submitter ports.Submitter
	creds     ports.CredentialSource
	timeout   time.Duration
	newKey    func() string
	logger    *slog.Logger
	subject   observe.Subject[domain.State]
}

func NewWorkflow(submitter ports.Submitter, creds ports.CredentialSource, logger *slog.Logger, opts ...Option) *Workflow {
	if logger == nil {
		logger = slog.Default()
	}
	w := &Workflow{
		state:     domain.State{Status: domain.StatusIdle},
		submitter: submitter,
		creds:     creds,
		timeout:   DefaultTimeout,
		newKey:    uuid.NewString,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// MakePurchase submits req once. Non-empty items and a signed-in session are
// the caller's responsibility. The cart is not touched.
func (w *Workflow) MakePurchase(ctx context.Context, req domain.Request) result.Result {
	w.mu.Lock()
	if w.state.IsProcessing() {
		w.mu.Unlock()
		return result.Fail(domain.ErrAlreadyProcessing, domain.MessageInProgress)
	}
	w.generation++
	gen := w.generation
	w.state = domain.State{Status: domain.StatusProcessing}
	w.mu.Unlock()
	w.subject.Notify(domain.State{Status: domain.StatusProcessing})

	receipt, err := w.submit(ctx, req)
	if err != nil {
		message := domain.FailureMessage(err)
		w.logger.ErrorContext(ctx, "purchase failed", "error", err)
		w.commit(gen, domain.State{Status: domain.StatusFailed, Error: message})
		return result.Fail(err, message)
	}

	w.logger.InfoContext(ctx, "purchase completed",
		"transaction_id", receipt.TransactionID,
		"item_count", receipt.ItemCount,
	)
	w.commit(gen, domain.State{Status: domain.StatusComplete, TransactionID: receipt.TransactionID})
	return result.OK()
}

// ResetPurchaseState returns to Idle and clears any error. An attempt still in
// flight finishes without touching the reset state.
func (w *Workflow) ResetPurchaseState() {
	w.mu.Lock()
	w.generation++
	w.state = domain.State{Status: domain.StatusIdle}
	w.mu.Unlock()
	w.subject.Notify(domain.State{Status: domain.StatusIdle})
}

func (w *Workflow) State() domain.State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *Workflow) Subscribe(fn func(domain.State)) func() {
	return w.subject.Subscribe(fn)
}

func (w *Workflow) submit(ctx context.Context, req domain.Request) (domain.Receipt, error) {
	bearer, ok := w.creds.BearerToken()
	if !ok {
		return domain.Receipt{}, domain.ErrNotAuthenticated
	}

	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	receipt, err := w.submitter.Submit(ctx, req, bearer, w.newKey())
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return domain.Receipt{}, fmt.Errorf("%w after %s: %w", domain.ErrTimeout, w.timeout, err)
		}
		return domain.Receipt{}, err
	}
	return receipt, nil
}

func (w *Workflow) commit(gen uint64, next domain.State) {
	w.mu.Lock()
	if gen != w.generation {
		w.mu.Unlock()
		return
	}
	w.state = next
	w.mu.Unlock()
	w.subject.Notify(next)
}
