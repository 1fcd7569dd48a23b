// Package policeapi provides a client for the traffic-police operations
// backend that serves the period-scoped dashboard payloads.
package policeapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

// Client defines the backend operations used by the dashboard.
type Client interface {
	// Dashboard fetches one page payload for the given query parameters.
	Dashboard(ctx context.Context, endpoint string, params url.Values) (*Envelope, error)
}

// Envelope is the response wrapper shared by every dashboard endpoint.
type Envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// HasData reports whether the envelope carries a non-null data member.
func (e *Envelope) HasData() bool {
	if e == nil {
		return false
	}
	d := strings.TrimSpace(string(e.Data))
	return d != "" && d != "null"
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	// Message is the backend's message when the body is an envelope.
	Message string
	Body    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("policeapi: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("policeapi: status %d: %s", e.StatusCode, e.Body)
}

// HTTPStatus returns the response status code.
func (e *StatusError) HTTPStatus() int { return e.StatusCode }

// ResponseError is returned when a 2xx response body is not an envelope.
type ResponseError struct {
	StatusCode int
	Err        error
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("policeapi: status %d: unmarshal response: %v", e.StatusCode, e.Err)
}

func (e *ResponseError) Unwrap() error { return e.Err }

// HTTPStatus returns the response status code.
func (e *ResponseError) HTTPStatus() int { return e.StatusCode }

// Option configures the client.
type Option func(*httpClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithToken sends a bearer token with every request.
func WithToken(token string) Option {
	return func(c *httpClient) {
		c.token = token
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithRequestID overrides the X-Request-ID generator (for testing).
func WithRequestID(fn func() string) Option {
	return func(c *httpClient) {
		c.requestID = fn
	}
}

type httpClient struct {
	baseURL   string
	token     string
	http      *http.Client
	requestID func() string
}

// NewClient creates a backend client rooted at baseURL.
func NewClient(baseURL string, opts ...Option) Client {
	c := &httpClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		requestID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Dashboard(ctx context.Context, endpoint string, params url.Values) (*Envelope, error) {
	reqURL := c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "policeapi: create request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", c.requestID())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "policeapi: request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, eris.Wrap(err, "policeapi: read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(body), 512)}
		var env Envelope
		if json.Unmarshal(body, &env) == nil {
			se.Message = env.Message
		}
		return nil, se
	}

	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &ResponseError{StatusCode: resp.StatusCode, Err: err}
	}
	return &env, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
