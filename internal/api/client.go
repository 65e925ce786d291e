package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TokenSource supplies the current bearer token for outgoing calls.
// The client never caches the token itself: each call reads the source, so
// a login or logout is visible to every subsequent request.
type TokenSource interface {
	Token() string
}

// TokenSourceFunc adapts a function to the TokenSource interface.
type TokenSourceFunc func() string

func (f TokenSourceFunc) Token() string { return f() }

// Client talks to the stall-allocation backend over REST/JSON.
type Client struct {
	cfg      Config
	http     *http.Client
	tokens   TokenSource
	observer Observer

	// onAuthExpired runs once per 401 response, before the error is
	// returned to the caller. Used to clear the stored credential.
	onAuthExpired func()
}

// NewClient creates a Client for the given config and token source.
func NewClient(cfg Config, tokens TokenSource, observer Observer) *Client {
	if observer == nil {
		observer = NoopObserver{}
	}
	return &Client{
		cfg:      cfg,
		http:     &http.Client{},
		tokens:   tokens,
		observer: observer,
	}
}

// SetAuthExpiredHook registers the hook invoked on any 401 response.
func (c *Client) SetAuthExpiredHook(fn func()) {
	c.onAuthExpired = fn
}

// serverBody is the error envelope the backend uses on non-2xx responses.
type serverBody struct {
	Error string `json:"error"`
	Msg   string `json:"msg"`
}

func (b serverBody) message() string {
	if b.Error != "" {
		return b.Error
	}
	return b.Msg
}

// do issues one request and decodes the JSON response into out (when out is
// non-nil). There is no retry loop: every retry is user-initiated.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	start := time.Now()
	status, err := c.roundTrip(ctx, method, path, body, out)

	event := CallEvent{
		Method:    method,
		Path:      path,
		Status:    status,
		LatencyMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		event.Err = err.Error()
	}
	c.observer.OnCallComplete(event)
	return err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body, out any) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(c.cfg.TimeoutMs)*time.Millisecond)
	defer cancel()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.tokens.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	if method != http.MethodGet {
		req.Header.Set("X-Request-ID", uuid.New().String())
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrConnection, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("%w: reading response: %v", ErrConnection, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, c.statusError(resp.StatusCode, data)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("%w: decoding response: %v", ErrConnection, err)
		}
	}
	return resp.StatusCode, nil
}

// statusError maps a non-2xx response to the client error taxonomy.
// The server's own message is preserved verbatim when the body carries one.
func (c *Client) statusError(status int, body []byte) error {
	var envelope serverBody
	_ = json.Unmarshal(body, &envelope)
	msg := envelope.message()

	switch status {
	case http.StatusUnauthorized:
		if c.onAuthExpired != nil {
			c.onAuthExpired()
		}
		return ErrAuthExpired
	case http.StatusForbidden:
		if msg != "" {
			return fmt.Errorf("%w: %s", ErrForbidden, msg)
		}
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	}
	return &Error{Status: status, Message: msg}
}

// getBinary fetches a binary endpoint (receipt download) and returns the
// raw bytes plus the server-suggested filename, if any.
func (c *Client) getBinary(ctx context.Context, path string) ([]byte, string, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(c.cfg.TimeoutMs)*time.Millisecond)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return nil, "", fmt.Errorf("creating request: %w", err)
	}
	if tok := c.tokens.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrConnection, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("%w: reading response: %v", ErrConnection, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", c.statusError(resp.StatusCode, data)
	}

	return data, filenameFromDisposition(resp.Header.Get("Content-Disposition")), nil
}

// filenameFromDisposition extracts the filename from a Content-Disposition
// header, or returns "" when none is present.
func filenameFromDisposition(header string) string {
	const marker = "filename="
	idx := strings.Index(header, marker)
	if idx < 0 {
		return ""
	}
	name := header[idx+len(marker):]
	name = strings.Trim(name, `"`)
	if semi := strings.IndexByte(name, ';'); semi >= 0 {
		name = strings.Trim(name[:semi], `"`)
	}
	return name
}
