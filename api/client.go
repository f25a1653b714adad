// Package api is the typed client for the finance backend's REST contract.
// Every call flows through one request pipeline that attaches the bearer
// credential and transparently recovers from credential expiry exactly once
// per request.
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
	"time"

	retry "github.com/appleboy/go-httpretry"
	"github.com/google/uuid"

	"github.com/tgfin/finance-cli/session"
)

const (
	// requestTimeout applies uniformly to every outbound call.
	requestTimeout = 10 * time.Second

	// currentUserPath is the one route where a 404 means the credential is
	// no longer good: the backend answers 404 there when the token is valid
	// but the user record is gone. A documented backend quirk, deliberately
	// not generalized to any other endpoint.
	currentUserPath = "/users/me"
)

// ErrUnauthorized indicates an auth-failure status after the single
// permitted re-authenticated retry. Final; callers should surface a
// "session expired" state rather than loop.
var ErrUnauthorized = errors.New("request unauthorized")

// APIError is any other non-2xx backend response, passed through unchanged.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api call failed with status %d: %s", e.Status, e.Body)
}

// Events lets the composition root observe pipeline recovery without the
// pipeline knowing anything about presentation. Nil fields are skipped.
type Events struct {
	Unauthorized func(status int, path string)
	Retrying     func(path string)
}

// Client issues authenticated calls against the backend. The zero Client is
// not usable; construct one with NewClient and share it.
type Client struct {
	serverURL string
	http      *retry.Client
	sessions  *session.Manager
	events    Events
}

// NewClient creates a Client talking to serverURL. The session manager is
// borrowed for credential injection and invalidation; the retrying HTTP
// client handles transient transport failures (it never re-sends on auth
// statuses — the auth retry below is this pipeline's alone).
func NewClient(serverURL string, httpClient *retry.Client, sessions *session.Manager) *Client {
	return &Client{serverURL: serverURL, http: httpClient, sessions: sessions}
}

// SetEvents installs pipeline observation callbacks.
func (c *Client) SetEvents(ev Events) {
	c.events = ev
}

// get/post/put/del are the verbs the typed wrappers build on.

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, in, out)
}

func (c *Client) put(ctx context.Context, path string, in, out any) error {
	return c.do(ctx, http.MethodPut, path, nil, in, out)
}

func (c *Client) del(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	return c.doOnce(ctx, method, path, query, in, out, false)
}

// doOnce sends one attempt. retried is request-scoped: the recovery path
// below re-enters with retried=true and never a third time.
func (c *Client) doOnce(
	ctx context.Context,
	method, path string,
	query url.Values,
	in, out any,
	retried bool,
) error {
	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	target := c.serverURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(reqCtx, method, target, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-Id", uuid.NewString())

	// Best-effort credential: if the exchange fails we still send the
	// request bare and let the server reject it, instead of failing every
	// call locally.
	if tok, tokErr := c.sessions.EnsureToken(ctx); tokErr == nil && tok != nil {
		req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	}

	resp, err := c.http.DoWithContext(reqCtx, req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if isAuthFailure(resp.StatusCode, path) {
		if retried {
			return fmt.Errorf("%w: status %d on %s", ErrUnauthorized, resp.StatusCode, path)
		}
		if c.events.Unauthorized != nil {
			c.events.Unauthorized(resp.StatusCode, path)
		}

		if err := c.sessions.Clear(); err != nil {
			return fmt.Errorf("failed to clear stale credential: %w", err)
		}
		if c.events.Retrying != nil {
			c.events.Retrying(path)
		}

		// Re-issue the original request once with a freshly ensured token;
		// that outcome is final either way.
		return c.doOnce(ctx, method, path, query, in, out, true)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Status: resp.StatusCode, Body: string(respBody)}
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}

// isAuthFailure decides whether a status invalidates the credential. 404
// counts only on the current-user route.
func isAuthFailure(status int, path string) bool {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return true
	case http.StatusNotFound:
		return path == currentUserPath
	}
	return false
}
