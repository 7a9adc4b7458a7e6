package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/libraryclient/pkg/logger"
)

const maxErrorBody = 64 << 10

// Client sends JSON requests to the library API. It is immutable after
// construction and safe for concurrent use; With derives decorated copies.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	decorators []Decorator
	logger     *slog.Logger
	userAgent  string
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, errors.Join(ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, ErrInvalidURL
	}

	c := &Client{
		baseURL:    strings.TrimRight(u.String(), "/"),
		httpClient: &http.Client{},
		timeout:    DefaultTimeout,
		decorators: []Decorator{RequestID()},
		logger:     logger.Discard(),
		userAgent:  "libraryclient",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// With returns a copy of c that applies decorators after c's own.
func (c *Client) With(decorators ...Decorator) *Client {
	cp := *c
	cp.decorators = append(slices.Clip(c.decorators), decorators...)
	return &cp
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string { return c.baseURL }

// Timeout returns the per-request deadline.
func (c *Client) Timeout() time.Duration { return c.timeout }

// Get issues a GET and decodes the response into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

// Post sends body as JSON and decodes the response into out.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

// Put sends body as JSON and decodes the response into out.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, body, out)
}

// Delete issues a DELETE and decodes the response into out.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodDelete, path, nil, out)
}

// Do sends body as JSON (when non-nil) and decodes a 2xx response into out
// (when non-nil). An empty 2xx body leaves out untouched.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	return c.roundTrip(ctx, method, path, body, func(resp *http.Response) error {
		if out == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return &Error{Method: method, Path: path, StatusCode: resp.StatusCode, Err: ErrTransport, cause: err}
		}
		if len(bytes.TrimSpace(data)) == 0 {
			return nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			return &Error{Method: method, Path: path, StatusCode: resp.StatusCode, Body: data, Err: ErrDecode, cause: err}
		}
		return nil
	})
}

// Payload is a binary response body.
type Payload struct {
	Data        []byte
	ContentType string
	Filename    string // from Content-Disposition, may be empty
}

// Download fetches a binary resource with GET.
func (c *Client) Download(ctx context.Context, path string) (*Payload, error) {
	var p *Payload
	err := c.roundTrip(ctx, http.MethodGet, path, nil, func(resp *http.Response) error {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return &Error{Method: http.MethodGet, Path: path, StatusCode: resp.StatusCode, Err: ErrTransport, cause: err}
		}
		p = &Payload{
			Data:        data,
			ContentType: resp.Header.Get("Content-Type"),
			Filename:    filenameFromDisposition(resp.Header.Get("Content-Disposition")),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body any, handle func(*http.Response) error) error {
	if RequestIDFromContext(ctx) == "" {
		ctx = WithRequestID(ctx, uuid.NewString())
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &Error{Method: method, Path: path, Err: ErrEncode, cause: err}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolve(path), reader)
	if err != nil {
		return &Error{Method: method, Path: path, Err: ErrTransport, cause: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	for _, decorate := range c.decorators {
		if err := decorate(req); err != nil {
			return &Error{Method: method, Path: path, Err: ErrTransport, cause: err}
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.DebugContext(ctx, "api request failed",
			logger.Method(method), logger.Path(path), logger.Duration(time.Since(start)), logger.Error(err))
		return &Error{Method: method, Path: path, Err: ErrTransport, cause: err}
	}
	defer resp.Body.Close()

	c.logger.DebugContext(ctx, "api request",
		logger.Method(method), logger.Path(path), logger.Status(resp.StatusCode), logger.Duration(time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &Error{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Message:    extractMessage(data),
			Body:       data,
			Err:        classifyStatus(resp.StatusCode),
		}
	}
	return handle(resp)
}

func (c *Client) resolve(path string) string {
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

func extractMessage(body []byte) string {
	var envelope struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	return strings.TrimSpace(envelope.Message)
}

func filenameFromDisposition(header string) string {
	if header == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	return params["filename"]
}
