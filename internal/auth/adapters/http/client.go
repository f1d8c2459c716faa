package http

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dejobratic/errorfix/internal/auth/domain"
)

// Client verifies credentials against the login endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a Client for the API at baseURL. The caller owns
// httpClient and its transport instrumentation.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

func (c *Client) Authenticate(ctx context.Context, creds domain.Credentials) (domain.Session, error) {
	body, err := json.Marshal(loginRequest{Email: creds.Email, Password: creds.Password})
	if err != nil {
		return domain.Session{}, fmt.Errorf("%w: encode request: %w", domain.ErrAuthService, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+LoginPath, bytes.NewReader(body))
	if err != nil {
		return domain.Session{}, fmt.Errorf("%w: build request: %w", domain.ErrAuthService, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Basic "+basicCredential(creds))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Session{}, fmt.Errorf("%w: %w", domain.ErrAuthService, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.Session{}, fmt.Errorf("%w: read response: %w", domain.ErrAuthService, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var payload errorResponse
		_ = json.Unmarshal(raw, &payload)
		message := payload.Message
		if message == "" {
			message = payload.Error
		}
		return domain.Session{}, &domain.RejectedError{
			StatusCode: resp.StatusCode,
			Code:       payload.Code,
			Message:    message,
		}
	}

	var payload loginResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return domain.Session{}, fmt.Errorf("%w: decode response: %w", domain.ErrAuthService, err)
	}
	if payload.User == nil || payload.User.ID == "" {
		return domain.Session{}, fmt.Errorf("%w: response has no user", domain.ErrAuthService)
	}

	session := domain.Session{User: payload.User, Token: payload.Token}
	if session.Token == "" {
		session.Token = payload.User.ID
	}
	if payload.ExpiresAt != "" {
		if expiresAt, err := time.Parse(time.RFC3339, payload.ExpiresAt); err == nil {
			session.ExpiresAt = expiresAt
		}
	}
	return session, nil
}

func basicCredential(creds domain.Credentials) string {
	return base64.StdEncoding.EncodeToString([]byte(creds.Email + ":" + creds.Password))
}
