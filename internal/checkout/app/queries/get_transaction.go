package queries

import (
	"context"
	"errors"
	"strings"

	"github.com/dejobratic/errorfix/internal/checkout/domain"
	"github.com/dejobratic/errorfix/internal/checkout/ports"
)

type GetTransactionQuery struct {
	TransactionID string
	// Customer, when set, hides transactions owned by someone else.
	Customer string
}

func (q GetTransactionQuery) Validate() error {
	if strings.TrimSpace(q.TransactionID) == "" {
		return errors.New("transaction_id is required")
	}
	return nil
}

type GetTransactionQueryHandler struct {
	repo ports.TransactionRepository
}

func NewGetTransactionQueryHandler(repo ports.TransactionRepository) *GetTransactionQueryHandler {
	return &GetTransactionQueryHandler{repo: repo}
}

func (h *GetTransactionQueryHandler) Handle(ctx context.Context, query GetTransactionQuery) (*domain.Transaction, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	txn, err := h.repo.GetByID(ctx, query.TransactionID)
	if err != nil {
		return nil, err
	}

	if query.Customer != "" && txn.Customer != query.Customer {
		return nil, ports.ErrNotFound
	}

	return txn, nil
}
