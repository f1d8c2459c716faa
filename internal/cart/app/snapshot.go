package app

import (
	"encoding/json"
	"fmt"

	"github.com/dejobratic/errorfix/internal/cart/domain"
)

// snapshotVersion is the version stamped on persisted cart snapshots.
const snapshotVersion = 0

type persistedState struct {
	Items []domain.CartLine `json:"items"`
}

type persistedCart struct {
	State   persistedState `json:"state"`
	Version int            `json:"version"`
}

func encodeCart(c *domain.Cart) ([]byte, error) {
	payload := persistedCart{
		State:   persistedState{Items: c.Lines()},
		Version: snapshotVersion,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode cart snapshot: %w", err)
	}
	return data, nil
}

func decodeCart(data []byte) (*domain.Cart, error) {
	var payload persistedCart
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode cart snapshot: %w", err)
	}
	if payload.Version != snapshotVersion {
		return nil, fmt.Errorf("decode cart snapshot: unsupported version %d", payload.Version)
	}
	return domain.New(payload.State.Items...), nil
}
