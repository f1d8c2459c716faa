package app

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dejobratic/errorfix/internal/auth/domain"
)

type persistedSession struct {
	User            *domain.User `json:"user"`
	IsAuthenticated bool         `json:"isAuthenticated"`
	Token           string       `json:"token,omitempty"`
	ExpiresAt       string       `json:"expiresAt,omitempty"`
}

type persistedEnvelope struct {
	State   persistedSession `json:"state"`
	Version int              `json:"version"`
}

func encodeSession(session domain.Session) ([]byte, error) {
	state := persistedSession{
		User:            session.User,
		IsAuthenticated: session.IsAuthenticated(),
		Token:           session.Token,
	}
	if !session.ExpiresAt.IsZero() {
		state.ExpiresAt = session.ExpiresAt.UTC().Format(time.RFC3339)
	}

	data, err := json.Marshal(persistedEnvelope{State: state})
	if err != nil {
		return nil, fmt.Errorf("encode session snapshot: %w", err)
	}
	return data, nil
}

func decodeSession(data []byte) (domain.Session, error) {
	var envelope persistedEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return domain.Session{}, fmt.Errorf("decode session snapshot: %w", err)
	}

	state := envelope.State
	if !state.IsAuthenticated || state.User == nil {
		return domain.Session{}, nil
	}

	session := domain.Session{User: state.User, Token: state.Token}
	if state.ExpiresAt != "" {
		expiresAt, err := time.Parse(time.RFC3339, state.ExpiresAt)
		if err != nil {
			return domain.Session{}, fmt.Errorf("decode session snapshot: %w", err)
		}
		session.ExpiresAt = expiresAt
	}
	return session, nil
}
