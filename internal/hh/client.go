// Package hh implements the rate-limited client for the hh.ru listing API.
package hh

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/hhdata/vacancy-ingest/internal/config"
	"github.com/hhdata/vacancy-ingest/internal/metrics"
)

// ErrNoData signals that a call produced no usable payload. The cause has
// already been logged; callers skip the page or endpoint and continue.
var ErrNoData = errors.New("no data")

// ErrRateLimited wraps ErrNoData when the 429 retry budget is exhausted.
var ErrRateLimited = fmt.Errorf("rate limit attempts exhausted: %w", ErrNoData)

// Doer abstracts the HTTP transport so tests can substitute a mock.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client issues GET requests against the hh.ru API, paying a fixed
// inter-request delay after every attempt that reached the server and a
// longer cooldown on 429 responses.
type Client struct {
	httpClient Doer
	cfg        config.APIConfig
	logger     *zap.Logger

	// pause is swapped out in tests to observe delays without sleeping.
	pause func(ctx context.Context, d time.Duration)
}

// NewClient builds a Client from the API configuration.
func NewClient(cfg config.APIConfig, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout()},
		cfg:        cfg,
		logger:     logger,
		pause:      sleepCtx,
	}
}

// SetHTTPClient replaces the underlying transport, primarily for tests.
func (c *Client) SetHTTPClient(d Doer) {
	c.httpClient = d
}

// Get fetches one endpoint with the given query parameters and returns the
// raw JSON body. Outcomes other than a parseable 200 response are classified,
// logged and collapsed into ErrNoData; only context cancellation propagates
// as-is.
func (c *Client) Get(ctx context.Context, endpoint string, query url.Values) (json.RawMessage, error) {
	fullURL := c.cfg.BaseURL + endpoint
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	for attempt := 1; ; attempt++ {
		body, status, err := c.do(ctx, fullURL)
		if err != nil {
			return nil, c.classifyTransport(endpoint, fullURL, err)
		}

		// The attempt reached the server: the inter-request delay is owed
		// regardless of the status code.
		c.pause(ctx, c.cfg.Delay())
		metrics.ObserveRequest(endpoint, status)

		switch {
		case status == http.StatusOK:
			if !json.Valid(body) {
				c.logger.Error("malformed response body",
					zap.String("endpoint", endpoint),
					zap.String("url", fullURL))
				return nil, fmt.Errorf("malformed body: %w", ErrNoData)
			}
			return json.RawMessage(body), nil

		case status == http.StatusTooManyRequests:
			if attempt >= c.cfg.RateLimitAttempts {
				c.logger.Error("rate limited, attempts exhausted",
					zap.String("endpoint", endpoint),
					zap.Int("attempts", attempt))
				return nil, ErrRateLimited
			}
			c.logger.Warn("rate limited, cooling down",
				zap.String("endpoint", endpoint),
				zap.Int("attempt", attempt),
				zap.Duration("cooldown", c.cfg.Cooldown()))
			metrics.ObserveCooldown(c.cfg.Cooldown())
			c.pause(ctx, c.cfg.Cooldown())
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}

		case status >= 400 && status < 500:
			c.logger.Error("client request rejected",
				zap.String("endpoint", endpoint),
				zap.String("url", fullURL),
				zap.String("params", query.Encode()),
				zap.Int("status", status))
			return nil, fmt.Errorf("status %d: %w", status, ErrNoData)

		case status >= 500:
			c.logger.Error("server error",
				zap.String("endpoint", endpoint),
				zap.Int("status", status))
			return nil, fmt.Errorf("status %d: %w", status, ErrNoData)

		default:
			c.logger.Error("unexpected status",
				zap.String("endpoint", endpoint),
				zap.Int("status", status))
			return nil, fmt.Errorf("status %d: %w", status, ErrNoData)
		}
	}
}

func (c *Client) do(ctx context.Context, fullURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("HH-User-Agent", c.cfg.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read body: %w", err)
	}
	return body, resp.StatusCode, nil
}

// classifyTransport logs transport-level failures; all of them collapse into
// ErrNoData except context cancellation, which the caller must see directly.
func (c *Client) classifyTransport(endpoint, fullURL string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var netErr net.Error
	switch {
	case errors.As(err, &netErr) && netErr.Timeout():
		c.logger.Error("request timed out",
			zap.String("endpoint", endpoint),
			zap.String("url", fullURL),
			zap.Error(err))
	case errors.Is(err, net.ErrClosed):
		c.logger.Error("connection failed",
			zap.String("endpoint", endpoint),
			zap.Error(err))
	default:
		c.logger.Error("transport failure",
			zap.String("endpoint", endpoint),
			zap.String("url", fullURL),
			zap.Error(err))
	}
	return fmt.Errorf("transport: %w", ErrNoData)
}

// sleepCtx pauses for d or until the context finishes, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
