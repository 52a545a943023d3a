// Package api is a client for the RetroQuest REST API (/api/team/{teamId}/...).
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const defaultTimeout = 15 * time.Second

// ErrUnauthorized is returned for 401/403 responses and for locally expired tokens.
var ErrUnauthorized = errors.New("unauthorized: please log in again")

// HTTPError is a non-2xx response other than 401/403.
type HTTPError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	msg := strings.TrimSpace(e.Body)
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, msg)
}

// Request is a replayable API call. Failed mutations carry one (see MutationError) so
// they can be retried later.
type Request struct {
	Method string          `json:"method"`
	Path   string          `json:"path"`
	Body   json.RawMessage `json:"body,omitempty"`
}

// MutationError wraps the failure of a state-changing request together with the request.
type MutationError struct {
	Request Request
	Err     error
}

func (e *MutationError) Error() string { return e.Err.Error() }
func (e *MutationError) Unwrap() error { return e.Err }

// FailedRequest extracts the replayable request from a mutation failure.
func FailedRequest(err error) (Request, bool) {
	var me *MutationError
	if errors.As(err, &me) {
		return me.Request, true
	}
	return Request{}, false
}

type Client struct {
	BaseURL string

	HTTP   *http.Client
	Logger *slog.Logger

	// OnUnauthorized runs whenever a call fails with ErrUnauthorized (e.g. to clear the
	// stored token and show the login view).
	OnUnauthorized func()

	now func() time.Time

	// Credentials change on re-login while commands are still in flight.
	mu     sync.RWMutex
	teamID string
	token  string
}

func New(baseURL, teamID, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		HTTP:    &http.Client{Timeout: defaultTimeout},
		Logger:  slog.Default(),
		now:     time.Now,
		teamID:  strings.TrimSpace(teamID),
		token:   strings.TrimSpace(token),
	}
}

// SetAuth swaps the team and token used by subsequent requests.
func (c *Client) SetAuth(teamID, token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.teamID = strings.TrimSpace(teamID)
	c.token = strings.TrimSpace(token)
}

// ClearToken drops the token but keeps the team, so the login form can prefill it.
func (c *Client) ClearToken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
}

func (c *Client) TeamID() string {
	teamID, _ := c.auth()
	return teamID
}

func (c *Client) Token() string {
	_, token := c.auth()
	return token
}

func (c *Client) auth() (teamID, token string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.teamID, c.token
}

func (c *Client) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

func (c *Client) teamPath(format string, args ...any) string {
	return "/api/team/" + url.PathEscape(c.TeamID()) + fmt.Sprintf(format, args...)
}

func newRequest(method, path string, body any) (Request, error) {
	req := Request{Method: method, Path: path}
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return Request{}, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		req.Body = b
	}
	return req, nil
}

// Send performs req and decodes a JSON response into out (when out is non-nil).
// Failures of non-GET requests are wrapped in *MutationError.
func (c *Client) Send(ctx context.Context, req Request, out any) error {
	b, err := c.roundTrip(ctx, req, "application/json")
	if err != nil {
		if req.Method != http.MethodGet {
			return &MutationError{Request: req, Err: err}
		}
		return err
	}
	if out == nil || len(bytes.TrimSpace(b)) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", req.Method, req.Path, err)
	}
	return nil
}

func (c *Client) call(ctx context.Context, method, path string, body any, out any) error {
	req, err := newRequest(method, path, body)
	if err != nil {
		return err
	}
	return c.Send(ctx, req, out)
}

func (c *Client) roundTrip(ctx context.Context, req Request, accept string) ([]byte, error) {
	_, token := c.auth()
	if token != "" && TokenExpired(token, c.clock()) {
		c.unauthorized()
		return nil, ErrUnauthorized
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	hreq, err := http.NewRequestWithContext(ctx, req.Method, c.BaseURL+req.Path, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		hreq.Header.Set("Content-Type", "application/json")
	}
	hreq.Header.Set("Accept", accept)
	hreq.Header.Set("X-Request-ID", uuid.NewString())
	if token != "" {
		hreq.Header.Set("Authorization", "Bearer "+token)
		hreq.AddCookie(&http.Cookie{Name: "token", Value: token})
	}

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	start := c.clock()
	resp, err := hc.Do(hreq)
	if err != nil {
		c.logger().Warn("api request failed", "method", req.Method, "path", req.Path, "err", err)
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", req.Method, req.Path, err)
	}
	c.logger().Debug("api request", "method", req.Method, "path", req.Path, "status", resp.StatusCode, "elapsed", c.clock().Sub(start))

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		c.logger().Warn("api unauthorized", "method", req.Method, "path", req.Path, "status", resp.StatusCode)
		c.unauthorized()
		return nil, ErrUnauthorized
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		herr := &HTTPError{Method: req.Method, Path: req.Path, Status: resp.StatusCode, Body: string(b)}
		c.logger().Warn("api error", "method", req.Method, "path", req.Path, "status", resp.StatusCode)
		return nil, herr
	}
	return b, nil
}

func (c *Client) unauthorized() {
	if c.OnUnauthorized != nil {
		c.OnUnauthorized()
	}
}

func (c *Client) clock() time.Time {
	if c.now == nil {
		return time.Now()
	}
	return c.now()
}
