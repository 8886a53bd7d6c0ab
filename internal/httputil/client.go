// Package httputil provides the retrying, rate-limited HTTP client
// shared by the Galaxy and PyPI clients.
//
// Transport failures and server errors are retried with exponential
// backoff and jitter; client errors fail fast unless the caller lists
// the status code as acceptable (the Galaxy API uses 404 to mean "no
// such collection", which is a domain answer, not a transport fault).
package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"slices"
	"time"

	"golang.org/x/time/rate"
)

// Common errors.
var (
	ErrNotFound     = errors.New("httputil: resource not found")
	ErrForbidden    = errors.New("httputil: access forbidden")
	ErrUnauthorized = errors.New("httputil: unauthorized")
	ErrServerError  = errors.New("httputil: server error")
)

// Options configures the client.
type Options struct {
	// MaxRetries is the number of retries after the first attempt.
	// Default: 10 (the config default for max_retries).
	MaxRetries int

	// RetryBackoff is the initial backoff duration. Default: 1s.
	RetryBackoff time.Duration

	// RetryMaxBackoff caps the backoff. Default: 30s.
	RetryMaxBackoff time.Duration

	// Timeout for individual requests. Default: 30s.
	Timeout time.Duration

	// RequestsPerMinute rate-limits outgoing requests; 0 disables the
	// limiter.
	RequestsPerMinute int

	// UserAgent is sent with every request.
	UserAgent string
}

// DefaultOptions returns options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		MaxRetries:      10,
		RetryBackoff:    time.Second,
		RetryMaxBackoff: 30 * time.Second,
		Timeout:         30 * time.Second,
		UserAgent:       "relcore",
	}
}

// Client is a retrying GET client.
type Client struct {
	client  *http.Client
	limiter *rate.Limiter
	opts    Options
}

// NewClient creates a client with the given options. Zero-valued
// options fall back to their defaults.
func NewClient(opts Options) *Client {
	def := DefaultOptions()
	if opts.RetryBackoff == 0 {
		opts.RetryBackoff = def.RetryBackoff
	}
	if opts.RetryMaxBackoff == 0 {
		opts.RetryMaxBackoff = def.RetryMaxBackoff
	}
	if opts.Timeout == 0 {
		opts.Timeout = def.Timeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = def.UserAgent
	}

	var limiter *rate.Limiter
	if opts.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(
			rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)),
			opts.RequestsPerMinute)
	}

	return &Client{
		client:  &http.Client{Timeout: opts.Timeout},
		limiter: limiter,
		opts:    opts,
	}
}

// GetJSON fetches rawURL (with optional query params) and decodes the
// response body into out. Status codes listed in acceptable are
// returned to the caller without decoding or error. The returned int is
// the final HTTP status.
func (c *Client) GetJSON(ctx context.Context, rawURL string, params url.Values, out any, acceptable ...int) (int, error) {
	resp, err := c.get(ctx, rawURL, params, acceptable)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if slices.Contains(acceptable, resp.StatusCode) && resp.StatusCode >= 400 {
		return resp.StatusCode, nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode %s: %w", rawURL, err)
	}
	return resp.StatusCode, nil
}

// Get fetches rawURL and returns the response body for streaming. The
// caller owns the returned ReadCloser.
func (c *Client) Get(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	resp, err := c.get(ctx, rawURL, nil, nil)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// Download streams rawURL's body to w in chunksize reads and returns
// the number of bytes written. chunksize <= 0 falls back to 4096.
func (c *Client) Download(ctx context.Context, rawURL string, w io.Writer, chunksize int) (int64, error) {
	body, err := c.Get(ctx, rawURL)
	if err != nil {
		return 0, err
	}
	defer body.Close()

	if chunksize <= 0 {
		chunksize = 4096
	}
	written, err := io.CopyBuffer(w, body, make([]byte, chunksize))
	if err != nil {
		return written, fmt.Errorf("download %s: %w", rawURL, err)
	}
	return written, nil
}

// get performs the retry loop. Transport errors, 429 and 5xx are
// retried; other statuses return immediately (acceptable ones without
// error).
func (c *Client) get(ctx context.Context, rawURL string, params url.Values, acceptable []int) (*http.Response, error) {
	target := rawURL
	if len(params) > 0 {
		u, err := url.Parse(rawURL)
		if err != nil {
			return nil, fmt.Errorf("parse url %s: %w", rawURL, err)
		}
		q := u.Query()
		for key, vals := range params {
			for _, v := range vals {
				q.Set(key, v)
			}
		}
		u.RawQuery = q.Encode()
		target = u.String()
	}

	var lastErr error
	for attempt := 0; attempt <= c.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := c.backoff(ctx, attempt); err != nil {
				return nil, err
			}
		}
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("rate limit wait: %w", err)
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("User-Agent", c.opts.UserAgent)

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			lastErr = fmt.Errorf("%w: %d %s", ErrServerError, resp.StatusCode, resp.Status)
			continue
		}

		if slices.Contains(acceptable, resp.StatusCode) {
			return resp, nil
		}
		if err := checkStatusCode(resp.StatusCode); err != nil {
			resp.Body.Close()
			return nil, fmt.Errorf("get %s: %w", target, err)
		}
		return resp, nil
	}

	return nil, fmt.Errorf("get %s failed after %d attempts: %w", target, c.opts.MaxRetries+1, lastErr)
}

// backoff waits for an exponentially increasing duration with jitter.
func (c *Client) backoff(ctx context.Context, attempt int) error {
	backoff := c.opts.RetryBackoff * time.Duration(1<<uint(attempt-1))
	if backoff > c.opts.RetryMaxBackoff || backoff <= 0 {
		backoff = c.opts.RetryMaxBackoff
	}

	// Jitter: 0.5 to 1.5 of the nominal backoff.
	jitter := time.Duration(float64(backoff) * (0.5 + rand.Float64()))

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(jitter):
		return nil
	}
}

func checkStatusCode(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusForbidden:
		return ErrForbidden
	case code == http.StatusUnauthorized:
		return ErrUnauthorized
	default:
		return fmt.Errorf("unexpected status code: %d", code)
	}
}
