// Package apiclient is the generic JSON-over-HTTPS client for the lab backend.
// It attaches the bearer token, and on a 401 refreshes the token pair once and
// replays the original request.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"labdesk/internal/logging"
	"labdesk/internal/metrics"
)

// DefaultTimeout bounds every request, including the replay after a refresh.
const DefaultTimeout = 30 * time.Second

// RefreshPath is the backend endpoint that exchanges a refresh token.
const RefreshPath = "/api/auth/refresh"

// ErrSessionExpired means the refresh token was rejected. Local storage has
// been cleared and the user has to sign in again.
var ErrSessionExpired = errors.New("session expired")

// APIError is a non-2xx response from the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// StatusCode returns the HTTP status of err if it is an *APIError, else 0.
func StatusCode(err error) int {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Status
	}
	return 0
}

// TokenStore is where the client reads and rotates credentials.
type TokenStore interface {
	AccessToken(ctx context.Context) (string, error)
	RefreshToken(ctx context.Context) (string, error)
	SetTokens(ctx context.Context, access, refresh string) error
	Clear(ctx context.Context) error
}

// Doer is the subset of Client used by the domain services.
type Doer interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string, out any) error
}

// Client talks to one backend base URL.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenStore
	log     *zap.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = logging.OrNop(l) }
}

// New creates a client for baseURL.
func New(baseURL string, tokens TokenStore, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		tokens:  tokens,
		log:     zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, nil, body, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
	}

	status, respBody, err := c.send(ctx, method, path, query, payload, true)
	if err != nil {
		return err
	}

	// One refresh and one replay per request. Concurrent 401s each refresh
	// on their own; nothing coalesces them.
	if status == http.StatusUnauthorized && path != RefreshPath {
		if rerr := c.refresh(ctx); rerr != nil {
			c.log.Warn("token refresh failed, clearing local storage", zap.Error(rerr))
			if cerr := c.tokens.Clear(ctx); cerr != nil {
				c.log.Error("clear local storage", zap.Error(cerr))
			}
			return fmt.Errorf("%s %s: %w", method, path, ErrSessionExpired)
		}
		status, respBody, err = c.send(ctx, method, path, query, payload, true)
		if err != nil {
			return err
		}
	}

	if status < 200 || status >= 300 {
		return newAPIError(status, respBody)
	}
	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	return decodeData(respBody, out)
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, payload []byte, withAuth bool) (int, []byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	var rd io.Reader
	if payload != nil {
		rd = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return 0, nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if withAuth && c.tokens != nil {
		tok, err := c.tokens.AccessToken(ctx)
		if err != nil {
			c.log.Warn("read access token", zap.Error(err))
		}
		if tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.UpstreamLatency.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(method, "error").Inc()
		return 0, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	metrics.UpstreamRequests.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read %s %s: %w", method, path, err)
	}
	c.log.Debug("upstream request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)))
	return resp.StatusCode, data, nil
}

type tokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func (c *Client) refresh(ctx context.Context) error {
	if c.tokens == nil {
		metrics.TokenRefreshes.WithLabelValues("no_store").Inc()
		return errors.New("no token store")
	}
	rt, err := c.tokens.RefreshToken(ctx)
	if err != nil {
		metrics.TokenRefreshes.WithLabelValues("failed").Inc()
		return err
	}
	if rt == "" {
		metrics.TokenRefreshes.WithLabelValues("no_token").Inc()
		return errors.New("no refresh token stored")
	}
	payload, _ := json.Marshal(map[string]string{"refreshToken": rt})
	status, body, err := c.send(ctx, http.MethodPost, RefreshPath, nil, payload, false)
	if err != nil {
		metrics.TokenRefreshes.WithLabelValues("failed").Inc()
		return err
	}
	if status < 200 || status >= 300 {
		metrics.TokenRefreshes.WithLabelValues("rejected").Inc()
		return newAPIError(status, body)
	}
	var pair tokenPair
	if err := decodeData(body, &pair); err != nil {
		metrics.TokenRefreshes.WithLabelValues("failed").Inc()
		return err
	}
	if pair.AccessToken == "" {
		metrics.TokenRefreshes.WithLabelValues("rejected").Inc()
		return errors.New("refresh response carried no access token")
	}
	if err := c.tokens.SetTokens(ctx, pair.AccessToken, pair.RefreshToken); err != nil {
		metrics.TokenRefreshes.WithLabelValues("failed").Inc()
		return err
	}
	metrics.TokenRefreshes.WithLabelValues("ok").Inc()
	return nil
}

// decodeData unmarshals body into out, unwrapping a {"data": ...} envelope
// when the backend sends one.
func decodeData(body []byte, out any) error {
	payload := unwrap(body)
	if raw, ok := out.(*json.RawMessage); ok {
		*raw = append((*raw)[:0], payload...)
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func unwrap(body []byte) []byte {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return trimmed
	}
	var env map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return trimmed
	}
	if data, ok := env["data"]; ok && len(data) > 0 && string(data) != "null" {
		return data
	}
	return trimmed
}

func newAPIError(status int, body []byte) *APIError {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, k := range []string{"message", "error"} {
			if s, ok := payload[k].(string); ok && s != "" {
				return &APIError{Status: status, Message: s}
			}
		}
	}
	return &APIError{Status: status, Message: fmt.Sprintf("request failed with status %d", status)}
}
