//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client wraps an http.Client with per-call timeouts and status checks.
type Client struct {
	// http is the underlying client; it follows redirects.
	http *http.Client

	// callTimeout is the default timeout for individual requests.
	callTimeout time.Duration
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for requests, body included.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.http = httpClient
		}
	}
}

var (
	// ErrBadHTTPStatus is returned for responses outside the 2xx range.
	ErrBadHTTPStatus = errors.New("unexpected http status")
	// errURLRequired is returned when a request URL is missing.
	errURLRequired = errors.New("url must be provided")
	// errReaderRequired is returned when no body consumer is provided.
	errReaderRequired = errors.New("body reader must be provided")
)

// NewClient returns a client with no default timeout.
func NewClient(opts ...Option) *Client {
	client := &Client{
		http: &http.Client{},
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Fetch issues a GET request for rawURL and hands the response body to read.
// The body is closed and the call context released once read returns.
func (c *Client) Fetch(ctx context.Context, rawURL string, read func(body io.Reader) error) error {
	if rawURL == "" {
		return errURLRequired
	}

	if read == nil {
		return errReaderRequired
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	response, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", rawURL, err)
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%s, %s: %w", rawURL, response.Status, ErrBadHTTPStatus)
	}

	return read(response.Body)
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
