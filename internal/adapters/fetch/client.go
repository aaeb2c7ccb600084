// Package fetch talks to measurement archives: a timeout/retry/backoff HTTP
// client, plus the measurement sources (plain and encrypted-proxy) that the
// scanner's fallback chains draw from.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/okian/squigscan/pkg/logger"
	"github.com/okian/squigscan/pkg/metrics"
)

// Client wraps http.Client with the two timeout classes a scan uses:
// catalog listings get the long timeout and retry with exponential backoff;
// measurement files get the short timeout and never retry, so one slow file
// cannot stall a long device list.
type Client struct {
	http               *http.Client
	catalogTimeout     time.Duration
	measurementTimeout time.Duration
	retries            int
	backoffBase        time.Duration
	userAgent          string
	logger             logger.Logger
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithTimeouts sets the catalog and measurement timeouts.
func WithTimeouts(catalog, measurement time.Duration) Option {
	return func(c *Client) {
		if catalog > 0 {
			c.catalogTimeout = catalog
		}
		if measurement > 0 {
			c.measurementTimeout = measurement
		}
	}
}

// WithRetry sets the catalog retry count and backoff base.
func WithRetry(retries int, backoffBase time.Duration) Option {
	return func(c *Client) {
		if retries >= 0 {
			c.retries = retries
		}
		if backoffBase > 0 {
			c.backoffBase = backoffBase
		}
	}
}

// WithUserAgent sets the User-Agent header on every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithHTTPClient replaces the underlying http.Client (tests).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// NewClient creates a Client with defaults.
func NewClient(opts ...Option) *Client {
	c := &Client{
		http:               &http.Client{},
		catalogTimeout:     20 * time.Second,
		measurementTimeout: 8 * time.Second,
		retries:            3,
		backoffBase:        500 * time.Millisecond,
		userAgent:          "squigscan/1.0",
		logger:             logger.Get().Named("fetch"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetCatalog fetches a catalog document, retrying with exponential backoff
// up to the configured attempt count.
func (c *Client) GetCatalog(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			metrics.RecordCatalogRetry()
			backoff := c.backoffBase * time.Duration(1<<(attempt-1))
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
			case <-time.After(backoff):
			}
		}
		metrics.RecordCatalogFetch()
		body, err := c.get(ctx, url, c.catalogTimeout)
		if err == nil {
			return body, nil
		}
		lastErr = err
		c.logger.Debug(ctx, "catalog fetch attempt failed",
			logger.String("url", url), logger.Int("attempt", attempt), logger.Error(err))
	}
	return nil, lastErr
}

// GetMeasurement fetches a measurement file. No retry: a timeout is treated
// as the file being absent.
func (c *Client) GetMeasurement(ctx context.Context, url string) (string, error) {
	start := time.Now()
	body, err := c.get(ctx, url, c.measurementTimeout)
	metrics.RecordFetchLatency(time.Since(start).Seconds())
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// PostForm issues a url-encoded POST with the measurement timeout; the
// encrypted proxy path rides on this.
func (c *Client) PostForm(ctx context.Context, url, form string) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.measurementTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, strings.NewReader(form))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)
	return c.do(req)
}

func (c *Client) get(ctx context.Context, url string, timeout time.Duration) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrUnavailable, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck // drain for connection reuse
		return nil, fmt.Errorf("%w: %s returned %d", ErrUnavailable, req.URL, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}
	return body, nil
}
