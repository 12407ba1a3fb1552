package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// ErrUpstreamSearch is returned when the search endpoint responds with a
// non-success status or a body that cannot be decoded. Search failures are
// fatal for the tile request and are never retried.
var ErrUpstreamSearch = errors.New("search endpoint failure")

// Client executes catalog searches. One round trip per tile request.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a search client with the given request timeout.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger: slog.Default(),
	}
}

// WithLogger sets a custom logger for the client.
func (c *Client) WithLogger(logger *slog.Logger) *Client {
	c.logger = logger
	return c
}

// Search performs one GET against the endpoint with the query's parameters.
// The caller's Authorization header is forwarded verbatim.
func (c *Client) Search(ctx context.Context, endpoint string, q Query) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid endpoint %q: %v", ErrUpstreamSearch, endpoint, err)
	}
	req.URL.RawQuery = q.Values().Encode()
	req.Header.Set("Accept", "application/json")
	if q.Authorization != "" {
		req.Header.Set("Authorization", q.Authorization)
	}

	c.logger.DebugContext(ctx, "executing catalog search",
		slog.String("url", req.URL.String()),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.ErrorContext(ctx, "search request failed",
			slog.String("url", req.URL.String()),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: %v", ErrUpstreamSearch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		c.logger.ErrorContext(ctx, "search endpoint returned non-success status",
			slog.Int("status_code", resp.StatusCode),
			slog.String("response_body", string(snippet)),
		)
		return nil, fmt.Errorf("%w: status %d", ErrUpstreamSearch, resp.StatusCode)
	}

	var result Response
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		c.logger.ErrorContext(ctx, "failed to decode search response",
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: malformed response: %v", ErrUpstreamSearch, err)
	}

	c.logger.InfoContext(ctx, "catalog search completed",
		slog.String("url", req.URL.String()),
		slog.Int("feature_count", len(result.Features)),
	)

	return &result, nil
}
