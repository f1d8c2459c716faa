package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dejobratic/errorfix/internal/purchase/domain"
)

const PurchasePath = "/api/checkout/purchase"

// Client submits purchases to the checkout API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

type rejection struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Submit posts req once. Non-2xx answers become *domain.RejectedError with the
// body's error field, falling back to its message field. Network and decoding
// failures wrap domain.ErrTransport.
func (c *Client) Submit(ctx context.Context, req domain.Request, bearer, idempotencyKey string) (domain.Receipt, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("%w: encode request: %w", domain.ErrTransport, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+PurchasePath, bytes.NewReader(body))
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("%w: build request: %w", domain.ErrTransport, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+bearer)
	if idempotencyKey != "" {
		httpReq.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("%w: %w", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("%w: read response: %w", domain.ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var payload rejection
		_ = json.Unmarshal(raw, &payload)
		message := payload.Error
		if message == "" {
			message = payload.Message
		}
		return domain.Receipt{}, &domain.RejectedError{StatusCode: resp.StatusCode, Message: message}
	}

	var receipt domain.Receipt
	if err := json.Unmarshal(raw, &receipt); err != nil {
		return domain.Receipt{}, fmt.Errorf("%w: decode response: %w", domain.ErrTransport, err)
	}
	if !receipt.Success {
		return domain.Receipt{}, &domain.RejectedError{StatusCode: resp.StatusCode}
	}
	return receipt, nil
}
