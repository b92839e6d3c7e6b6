package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"buylog/internal/feed"
)

// DefaultBaseURL is the backend the web client talks to in development.
const DefaultBaseURL = "http://localhost:8081/api"

// ErrMalformedResponse is returned when a success response body cannot be decoded.
var ErrMalformedResponse = errors.New("malformed response body")

// StatusError is a non-success HTTP status other than 401.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string { return fmt.Sprintf("http error: status %d", e.Status) }

// Retryable reports whether the status is worth retrying: server errors and 429.
func (e *StatusError) Retryable() bool {
	return e.Status >= 500 || e.Status == http.StatusTooManyRequests
}

// TransportError wraps a failure to get any response at all.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string   { return "transport error: " + e.Err.Error() }
func (e *TransportError) Unwrap() error   { return e.Err }
func (e *TransportError) Retryable() bool { return true }

// Options configure a Client. Zero values pick the defaults.
type Options struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	HTTPClient        *http.Client
}

// Client calls the REST backend. It attaches the bearer credential to every
// request and clears it when the backend answers 401.
type Client struct {
	base    *url.URL
	http    *http.Client
	creds   feed.CredentialStore
	limiter *rate.Limiter
	ids     feed.IDGenerator
	logger  feed.Logger
}

var _ feed.Backend = (*Client)(nil)

// New creates a Client.
func New(opts Options, creds feed.CredentialStore, ids feed.IDGenerator, logger feed.Logger) (*Client, error) {
	raw := opts.BaseURL
	if raw == "" {
		raw = DefaultBaseURL
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", raw)
	}

	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		base:    base,
		http:    hc,
		creds:   creds,
		limiter: rate.NewLimiter(limit, burst),
		ids:     ids,
		logger:  logger,
	}, nil
}

// endpoint resolves an already escaped path under the base URL's path.
func (c *Client) endpoint(escapedPath string, q url.Values) *url.URL {
	u := *c.base
	raw := strings.TrimRight(c.base.EscapedPath(), "/") + escapedPath
	u.RawPath = raw
	u.Path, _ = url.PathUnescape(raw)
	u.RawQuery = q.Encode()
	return &u
}

// originEndpoint resolves path against the base URL's origin, ignoring its path.
func (c *Client) originEndpoint(path string) *url.URL {
	u := *c.base
	u.Path = path
	u.RawPath = ""
	u.RawQuery = ""
	return &u
}

func (c *Client) do(ctx context.Context, method string, u *url.URL, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for rate limiter: %w", err)
	}

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), rdr)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	reqID := c.ids.New()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if token := c.creds.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%s %s: %w", method, u.Path, ctx.Err())
		}
		return fmt.Errorf("%s %s: %w", method, u.Path, &TransportError{Err: err})
	}
	defer resp.Body.Close()

	c.logger.Debug("api request", "method", method, "path", u.Path, "status", resp.StatusCode,
		"request_id", reqID, "elapsed", time.Since(start))

	if resp.StatusCode == http.StatusUnauthorized {
		if err := c.creds.Clear(); err != nil {
			c.logger.Error("clearing credential after 401", "error", err)
		}
		c.logger.Warn("request unauthorized, credential cleared", "method", method, "path", u.Path, "request_id", reqID)
		return feed.ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return &StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrMalformedResponse, method, u.Path, err)
	}
	return nil
}

// StatusOf returns the HTTP status carried by err, 401 included, or 0.
func StatusOf(err error) int {
	if errors.Is(err, feed.ErrUnauthorized) {
		return http.StatusUnauthorized
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status
	}
	return 0
}
