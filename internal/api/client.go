// Package api talks to the parish census REST backend. It provides the
// catalog fetcher and the survey read/write service used by the wizard.
package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/censoparroquial/censo/internal/config"
)

// ErrOffline is returned when no backend URL is configured.
var ErrOffline = errors.New("no backend configured")

// StatusError is a non-2xx response from the backend.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       errorBody
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
	if e.Body.Message != "" {
		msg += ": " + e.Body.Message
	}
	return msg
}

// errorBody is the backend's error envelope.
type errorBody struct {
	Message    string `json:"message"`
	Error      string `json:"error"`
	Code       string `json:"code"`
	Suggestion string `json:"suggestion"`
}

func (b errorBody) message() string {
	if b.Message != "" {
		return b.Message
	}
	return b.Error
}

// Client is a thin JSON client over a retrying HTTP transport.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	token   string
	logger  *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithToken sets the bearer token explicitly.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// New creates a client from the API configuration. The bearer token is read
// from the environment variable named by cfg.TokenEnv.
func New(cfg config.APIConfig, opts ...Option) (*Client, error) {
	if cfg.Offline() {
		return nil, ErrOffline
	}

	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.RetryMax
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 5 * time.Second
	rc.Logger = slog.Default()
	rc.CheckRetry = retryPolicy

	hc := rc.StandardClient()
	if t := cfg.Timeout(); t > 0 {
		hc.Timeout = t
	}

	c := &Client{
		baseURL: base,
		http:    hc,
		logger:  slog.Default().With("component", "api"),
	}
	if cfg.TokenEnv != "" {
		c.token = os.Getenv(cfg.TokenEnv)
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

type idempotentKey struct{}

// retryPolicy retries reads only. A write that failed after reaching the
// backend may already be committed, so it is sent exactly once.
func retryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if retry, _ := ctx.Value(idempotentKey{}).(bool); !retry {
		return false, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

// do sends a JSON request and decodes a 2xx response into out. Non-2xx
// responses are returned as *StatusError.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	ref, err := url.Parse(strings.TrimLeft(path, "/"))
	if err != nil {
		return fmt.Errorf("parsing path %q: %w", path, err)
	}
	target := c.baseURL.ResolveReference(ref)

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	if method == http.MethodGet || method == http.MethodHead {
		ctx = context.WithValue(ctx, idempotentKey{}, true)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	c.logger.Debug("api request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		serr := &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode}
		_ = json.Unmarshal(data, &serr.Body)
		return serr
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding %s %s: %w", method, path, err)
	}
	return nil
}

// unwrapData returns the "data" member of an envelope, or the document
// itself when it has none.
func unwrapData(raw json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return raw
	}
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &env); err != nil || len(env.Data) == 0 {
		return raw
	}
	return env.Data
}
