// Package httpx is the JSON request/response cycle shared by the tracker clients.
package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const mediaTypeJSON = "application/json"

// Config describes one tracker endpoint. Two equal configs yield equivalent clients.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// Client talks JSON to a single base URL. It is immutable once built.
type Client struct {
	cfg        Config
	baseURL    *url.URL
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient creates a client for cfg.
func NewClient(cfg Config, log *slog.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimSpace(cfg.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", cfg.BaseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base url %q: missing scheme or host", cfg.BaseURL)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		cfg:        cfg,
		baseURL:    base,
		httpClient: &http.Client{Timeout: cfg.Timeout, Transport: http.DefaultTransport.(*http.Transport).Clone()},
		log:        log,
	}, nil
}

// Config returns the configuration the client was built from.
func (c *Client) Config() Config {
	return c.cfg
}

// URL resolves path against the base URL.
func (c *Client) URL(path string) (string, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return "", err
	}
	return c.baseURL.ResolveReference(ref).String(), nil
}

// CloseIdleConnections releases pooled connections. In-flight requests are unaffected.
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}

// Do sends body as JSON with method to path and decodes the response into out.
// out may be nil when the response body is not needed. Every failure is an *Error.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	target, err := c.URL(path)
	if err != nil {
		return wrap(Unknown, fmt.Errorf("invalid request path %q: %w", path, err))
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return wrap(Unknown, fmt.Errorf("failed to encode request: %w", err))
		}
		c.log.Debug("Request body", "method", method, "url", target, "body", string(payload))
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return wrap(Unknown, fmt.Errorf("failed to create request: %w", err))
	}
	if body != nil {
		req.Header.Set("Content-Type", mediaTypeJSON)
	}
	req.Header.Set("Accept", mediaTypeJSON)
	req.Header.Set("X-Request-Id", uuid.NewString())
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		kind := Classify(err)
		if kind == Unknown {
			kind = HTTPException
		}
		return wrap(kind, fmt.Errorf("%s %s: %w", method, target, err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		kind := Classify(err)
		if kind == Unknown {
			kind = HTTPException
		}
		return wrap(kind, fmt.Errorf("failed to read response: %w", err))
	}
	c.log.Debug("Response", "method", method, "url", target, "status", resp.StatusCode, "body", string(raw))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{
			Kind:   HTTPException,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("%s %s returned %s", method, target, resp.Status),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return wrap(Unknown, fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}
