package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/dejobratic/errorfix/internal/catalog/domain"
	"github.com/dejobratic/errorfix/internal/catalog/ports"
)

// ErrUnavailable is returned when the catalog API fails or the breaker is open.
var ErrUnavailable = errors.New("catalog unavailable")

type BreakerSettings struct {
	// ConsecutiveFailures trips the breaker.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
}

func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{ConsecutiveFailures: 5, OpenTimeout: 30 * time.Second}
}

type response struct {
	status int
	body   []byte
}

// Client reads the catalog over HTTP and implements ports.ProductRepository.
// Server errors and transport failures count against a circuit breaker; 4xx
// answers do not.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[response]
}

func NewClient(baseURL string, httpClient *http.Client, settings BreakerSettings, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	if settings.ConsecutiveFailures == 0 {
		settings.ConsecutiveFailures = DefaultBreakerSettings().ConsecutiveFailures
	}

	breaker := gobreaker.NewCircuitBreaker[response](gobreaker.Settings{
		Name:        "catalog",
		MaxRequests: 1,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		breaker:    breaker,
	}
}

func (c *Client) List(ctx context.Context, filter ports.ListFilter) ([]domain.Product, error) {
	query := url.Values{}
	if filter.Category != "" {
		query.Set("category", filter.Category)
	}
	if filter.FeaturedOnly {
		query.Set("featured", "true")
	}
	target := c.baseURL + ProductsPath
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	resp, err := c.get(ctx, target)
	if err != nil {
		return nil, err
	}
	if resp.status != http.StatusOK {
		return nil, fmt.Errorf("%w: list products returned %d", ErrUnavailable, resp.status)
	}

	var payload listResponse
	if err := json.Unmarshal(resp.body, &payload); err != nil {
		return nil, fmt.Errorf("decode product list: %w", err)
	}
	if !payload.Success {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, payload.Message)
	}
	return payload.Products, nil
}

func (c *Client) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	resp, err := c.get(ctx, c.baseURL+ProductsPath+"/"+strconv.FormatInt(id, 10))
	if err != nil {
		return nil, err
	}

	switch resp.status {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ports.ErrNotFound
	default:
		var payload errorResponse
		_ = json.Unmarshal(resp.body, &payload)
		return nil, fmt.Errorf("%w: get product %d returned %d %s", ErrUnavailable, id, resp.status, payload.Code)
	}

	var product domain.Product
	if err := json.Unmarshal(resp.body, &product); err != nil {
		return nil, fmt.Errorf("decode product: %w", err)
	}
	return &product, nil
}

func (c *Client) get(ctx context.Context, target string) (response, error) {
	resp, err := c.breaker.Execute(func() (response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return response{}, err
		}
		req.Header.Set("Accept", "application/json")

		httpResp, err := c.httpClient.Do(req)
		if err != nil {
			return response{}, err
		}
		defer httpResp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(httpResp.Body, 4<<20))
		if err != nil {
			return response{}, err
		}
		if httpResp.StatusCode >= http.StatusInternalServerError {
			return response{}, fmt.Errorf("server returned %d", httpResp.StatusCode)
		}
		return response{status: httpResp.StatusCode, body: body}, nil
	})
	if err != nil {
		return response{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return resp, nil
}
