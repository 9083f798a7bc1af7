// Package backend is a typed client for the remote marketplace API. Every call carries
// the visitor's cookies so the API sees the same session as the browser.
package backend

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

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// Config locates the API.
type Config struct {
	BaseURL        string
	APIPrefix      string
	PaymentsPrefix string
	Timeout        time.Duration
}

// Client calls the marketplace API. A Client is safe for concurrent use; WithCookies
// derives a per-visitor copy.
type Client struct {
	httpClient     *http.Client
	baseURL        *url.URL
	apiPrefix      string
	paymentsPrefix string
	cookies        []*http.Cookie
	logger         *zap.Logger
}

// New validates cfg and builds a Client.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("base URL is required")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base URL %q must be absolute", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient:     &http.Client{Timeout: cfg.Timeout},
		baseURL:        base,
		apiPrefix:      normalizePrefix(cfg.APIPrefix),
		paymentsPrefix: normalizePrefix(cfg.PaymentsPrefix),
		logger:         logger.Named("backend"),
	}, nil
}

func normalizePrefix(p string) string {
	p = strings.TrimRight(strings.TrimSpace(p), "/")
	if p != "" && !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

// WithCookies returns a copy of c that sends cookies with every request.
func (c *Client) WithCookies(cookies []*http.Cookie) *Client {
	cp := *c
	cp.cookies = cookies
	return &cp
}

// StatusError is returned for any non-2xx response.
type StatusError struct {
	StatusCode int
	// Message is the API's "message" field, empty when absent.
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("backend status %d", e.StatusCode)
}

// MessageOf returns the API-provided message carried by err, if any.
func MessageOf(err error) string {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Message
	}
	return ""
}

type response struct {
	status  int
	body    []byte
	cookies []*http.Cookie
}

func (c *Client) endpoint(prefix, path string) string {
	return strings.TrimRight(c.baseURL.String(), "/") + prefix + path
}

func (c *Client) send(ctx context.Context, method, target string, body any) (*response, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	c.logger.Debug("backend call",
		zap.String("method", method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	out := &response{status: resp.StatusCode, body: raw, cookies: resp.Cookies()}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return out, &StatusError{StatusCode: resp.StatusCode, Message: errorMessage(raw)}
	}
	return out, nil
}

func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return strings.TrimSpace(payload.Message)
}

func (c *Client) api(ctx context.Context, method, path string, body, out any) (*response, error) {
	resp, err := c.send(ctx, method, c.endpoint(c.apiPrefix, path), body)
	if err != nil {
		return resp, err
	}
	if out != nil {
		if err := json.Unmarshal(resp.body, out); err != nil {
			return resp, fmt.Errorf("decode %s %s response: %w", method, path, err)
		}
	}
	return resp, nil
}
