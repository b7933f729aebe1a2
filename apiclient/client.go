// Package apiclient issues requests to the storefront backend: bearer
// authentication from the stored token, JSON or multipart bodies, the loading
// overlay around every call and forced logout on session expiry.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"shopfront/obs"
)

// SessionExpiredMessage is alerted when the backend rejects the stored token.
const SessionExpiredMessage = "Session expired. Please login again."

const maxResponseBytes = 8 << 20

// TokenSource yields the current session token, "" when signed out.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Overlay is the loading indicator held for the duration of a call.
type Overlay interface {
	Acquire() (release func())
}

// Alerter raises a blocking user alert.
type Alerter interface {
	Alert(message string)
}

// Options configures a Client. Zero values are valid.
type Options struct {
	HTTPClient *http.Client
	Overlay    Overlay
	Alerter    Alerter
	Logger     *slog.Logger
}

// Client calls the backend rooted at a base URL such as
// "http://localhost:8080/api". It is safe for concurrent use; calls are
// independent and complete in any order.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	overlay Overlay
	alerter Alerter
	logger  *slog.Logger

	mu        sync.RWMutex
	onExpired func(ctx context.Context)
}

// New returns a Client for baseURL reading tokens from tokens.
func New(baseURL string, tokens TokenSource, opts Options) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    opts.HTTPClient,
		tokens:  tokens,
		overlay: opts.Overlay,
		alerter: opts.Alerter,
		logger:  opts.Logger,
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 15 * time.Second}
	}
	if c.overlay == nil {
		c.overlay = noOverlay{}
	}
	if c.alerter == nil {
		c.alerter = noAlerter{}
	}
	return c
}

// OnSessionExpired sets the hook run when an authenticated call gets a 401.
func (c *Client) OnSessionExpired(fn func(ctx context.Context)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onExpired = fn
}

// BaseURL returns the backend root.
func (c *Client) BaseURL() string { return c.baseURL }

// Get is Call with GET and no body.
func (c *Client) Get(ctx context.Context, endpoint string) (json.RawMessage, error) {
	return c.Call(ctx, http.MethodGet, endpoint, nil)
}

// Post is Call with POST.
func (c *Client) Post(ctx context.Context, endpoint string, body any) (json.RawMessage, error) {
	return c.Call(ctx, http.MethodPost, endpoint, body)
}

// Call sends method to baseURL+endpoint and returns the raw JSON body of a
// successful response. An empty method means GET. body may be nil, a *Form
// (a nil *Form sends no body), or any value that encodes to JSON.
//
// Failures come back as *Error. A 401 while a token was held alerts the user,
// runs the session-expired hook once and returns ErrSessionExpired.
func (c *Client) Call(ctx context.Context, method, endpoint string, body any) (json.RawMessage, error) {
	if method == "" {
		method = http.MethodGet
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("apiclient: read token: %w", err)
	}

	release := c.overlay.Acquire()
	defer release()

	req, err := c.newRequest(ctx, method, endpoint, token, body)
	if err != nil {
		return nil, err
	}
	reqID := req.Header.Get("X-Request-Id")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log().Error("api_call_error",
			"method", method,
			"path", endpoint,
			"request_id", reqID,
			"error", err,
		)
		return nil, &Error{Kind: KindTransport, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()
	payload, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))

	c.log().Info("api_call",
		"method", method,
		"path", endpoint,
		"status", resp.StatusCode,
		"bytes", len(payload),
		"latency_ms", float64(time.Since(start).Microseconds())/1000.0,
		"request_id", reqID,
	)

	if resp.StatusCode == http.StatusUnauthorized && token != "" {
		c.alerter.Alert(SessionExpiredMessage)
		c.expire(ctx)
		return nil, ErrSessionExpired
	}
	if readErr != nil {
		c.log().Error("api_call_error", "method", method, "path", endpoint, "request_id", reqID, "error", readErr)
		return nil, &Error{Kind: KindTransport, Status: resp.StatusCode, Message: readErr.Error(), Err: readErr}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Kind: KindStatus, Status: resp.StatusCode, Message: statusMessage(resp.StatusCode, payload)}
	}
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 {
		return nil, nil
	}
	if !json.Valid(payload) {
		return nil, &Error{Kind: KindDecode, Status: resp.StatusCode, Message: "response is not valid JSON"}
	}
	return json.RawMessage(payload), nil
}

// RevokeToken asks the backend to invalidate token. It never runs the
// session-expired hook, so it is safe to call from the logout path.
func (c *Client) RevokeToken(ctx context.Context, token string) error {
	req, err := c.newRequest(ctx, http.MethodPost, "/auth/logout", token, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Kind: KindTransport, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{Kind: KindStatus, Status: resp.StatusCode, Message: fmt.Sprintf("HTTP error! status: %d", resp.StatusCode)}
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, endpoint, token string, body any) (*http.Request, error) {
	var (
		rd          io.Reader
		contentType string
	)
	switch b := body.(type) {
	case nil:
	case *Form:
		if b == nil {
			break
		}
		r, ct, err := b.encode()
		if err != nil {
			return nil, fmt.Errorf("apiclient: encode form: %w", err)
		}
		rd, contentType = r, ct
	default:
		buf, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("apiclient: encode body: %w", err)
		}
		rd, contentType = bytes.NewReader(buf), "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, rd)
	if err != nil {
		return nil, fmt.Errorf("apiclient: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req, nil
}

func (c *Client) expire(ctx context.Context) {
	c.mu.RLock()
	fn := c.onExpired
	c.mu.RUnlock()
	if fn != nil {
		fn(ctx)
	}
}

func (c *Client) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return obs.Logger
}

// statusMessage prefers the message of an error envelope in the body.
func statusMessage(status int, payload []byte) string {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err == nil && env.Message != "" {
		return env.Message
	}
	return fmt.Sprintf("HTTP error! status: %d", status)
}

type noOverlay struct{}

func (noOverlay) Acquire() func() { return func() {} }

type noAlerter struct{}

func (noAlerter) Alert(string) {}
