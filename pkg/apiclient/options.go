package apiclient

import (
	"log/slog"
	"net/http"
	"time"
)

// DefaultTimeout bounds every request unless WithTimeout says otherwise.
const DefaultTimeout = 15 * time.Second

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client. Tests use it to inject a
// fake RoundTripper.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request deadline. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.timeout = d
		}
	}
}

// WithDecorators appends request decorators.
func WithDecorators(decorators ...Decorator) Option {
	return func(c *Client) {
		c.decorators = append(c.decorators, decorators...)
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}
