// Package treesclient is a Go client for the plat-trees REST API.
package treesclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/joeblew999/plat-trees/internal/filter"
	"github.com/joeblew999/plat-trees/internal/tooltip"
	"github.com/joeblew999/plat-trees/internal/viewport"
)

// TreesAPIClient is the client interface of the plat-trees API.
type TreesAPIClient interface {
	Health(ctx context.Context) (*http.Response, HealthBody, error)
	ComposeStyle(ctx context.Context, state filter.State) (*http.Response, Expressions, error)
	CreateSession(ctx context.Context, mobile bool) (*http.Response, Session, error)
	GetSession(ctx context.Context, id string) (*http.Response, Session, error)
	SetFilters(ctx context.Context, id string, state filter.State) (*http.Response, Session, error)
	SendEvent(ctx context.Context, id, kind string, payload any) (*http.Response, Session, error)
	DeleteSession(ctx context.Context, id string) (*http.Response, error)
}

type HealthBody struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// Expressions holds the tree layer style expressions in wire form.
type Expressions map[string]json.RawMessage

// Session is the view of a map session.
type Session struct {
	ID          string               `json:"id"`
	Revision    uint64               `json:"revision"`
	Loading     bool                 `json:"loading"`
	Ready       bool                 `json:"ready"`
	Filters     filter.State         `json:"filters"`
	Viewport    viewport.State       `json:"viewport"`
	Selected    string               `json:"selected,omitempty"`
	Tooltip     *tooltip.PumpTooltip `json:"tooltip,omitempty"`
	EditorURL   string               `json:"editorUrl,omitempty"`
	Cursor      string               `json:"cursor"`
	Expressions Expressions          `json:"expressions"`
}

// Error is an RFC 9457 problem returned by the API.
type Error struct {
	Status int    `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%d %s: %s", e.Status, e.Title, e.Detail)
	}
	return fmt.Sprintf("%d %s", e.Status, e.Title)
}

type client struct {
	base string
	http *http.Client
}

// New returns a client for the API at baseURL.
func New(baseURL string) TreesAPIClient {
	return NewWithClient(baseURL, &http.Client{Timeout: 30 * time.Second})
}

// NewWithClient returns a client using hc for requests.
func NewWithClient(baseURL string, hc *http.Client) TreesAPIClient {
	return &client{base: strings.TrimRight(baseURL, "/"), http: hc}
}

func (c *client) do(ctx context.Context, method, path string, in, out any) (*http.Response, error) {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return nil, err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := &Error{Status: resp.StatusCode, Title: http.StatusText(resp.StatusCode)}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return resp, apiErr
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp, fmt.Errorf("decoding %s %s: %w", method, path, err)
		}
	}
	return resp, nil
}

func (c *client) Health(ctx context.Context) (*http.Response, HealthBody, error) {
	var out HealthBody
	resp, err := c.do(ctx, http.MethodGet, "/health", nil, &out)
	return resp, out, err
}

func (c *client) ComposeStyle(ctx context.Context, state filter.State) (*http.Response, Expressions, error) {
	var out Expressions
	resp, err := c.do(ctx, http.MethodPost, "/api/v1/style", state, &out)
	return resp, out, err
}

func (c *client) CreateSession(ctx context.Context, mobile bool) (*http.Response, Session, error) {
	var out Session
	resp, err := c.do(ctx, http.MethodPost, "/api/v1/sessions", map[string]bool{"mobile": mobile}, &out)
	return resp, out, err
}

func (c *client) GetSession(ctx context.Context, id string) (*http.Response, Session, error) {
	var out Session
	resp, err := c.do(ctx, http.MethodGet, "/api/v1/sessions/"+id, nil, &out)
	return resp, out, err
}

func (c *client) SetFilters(ctx context.Context, id string, state filter.State) (*http.Response, Session, error) {
	var out Session
	resp, err := c.do(ctx, http.MethodPut, "/api/v1/sessions/"+id+"/filters", state, &out)
	return resp, out, err
}

func (c *client) SendEvent(ctx context.Context, id, kind string, payload any) (*http.Response, Session, error) {
	body := map[string]any{"kind": kind}
	if payload != nil {
		body["payload"] = payload
	}
	var out Session
	resp, err := c.do(ctx, http.MethodPost, "/api/v1/sessions/"+id+"/events", body, &out)
	return resp, out, err
}

func (c *client) DeleteSession(ctx context.Context, id string) (*http.Response, error) {
	return c.do(ctx, http.MethodDelete, "/api/v1/sessions/"+id, nil, nil)
}
