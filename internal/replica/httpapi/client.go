// Package httpapi implements the HTTP replica protocol: a JSON API a
// deployed todosync node serves and a client accessor that speaks to it.
//
// Endpoints:
//
//	GET  /v1/records        list all records
//	POST /v1/records        create a record (client-assigned id)
//	PUT  /v1/records/{id}   update an existing record
//	GET  /v1/health         liveness probe
//
// Authentication is a static bearer token; requests without the expected
// token are rejected with 401.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kestrel-tools/todosync/internal/replica"
	"github.com/kestrel-tools/todosync/internal/todo"
)

// DefaultTimeout bounds each request when the caller does not supply one.
const DefaultTimeout = 10 * time.Second

// Client is a replica.Accessor backed by a remote todosync HTTP API.
type Client struct {
	baseURL string
	token   string
	name    string
	http    *http.Client
}

// NewClient creates a client for the replica API at baseURL.
// token may be empty when the server runs without authentication.
func NewClient(baseURL, token, name string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		name:    name,
		http:    &http.Client{Timeout: timeout},
	}
}

// Name implements replica.Accessor.
func (c *Client) Name() string { return c.name }

// List implements replica.Accessor.
func (c *Client) List(ctx context.Context) ([]*todo.Record, error) {
	resp, err := c.do(ctx, http.MethodGet, "/v1/records", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError("list", resp)
	}

	var records []*todo.Record
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode record list: %w", err)
	}
	return records, nil
}

// Create implements replica.Accessor.
func (c *Client) Create(ctx context.Context, r *todo.Record) (*todo.Record, error) {
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", replica.ErrInvalidRecord, err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/v1/records", r)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, c.statusError("create", resp)
	}

	var created todo.Record
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("failed to decode created record: %w", err)
	}
	return &created, nil
}

// Update implements replica.Accessor. A 404 maps to replica.ErrNotFound.
func (c *Client) Update(ctx context.Context, r *todo.Record) (*todo.Record, error) {
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", replica.ErrInvalidRecord, err)
	}

	resp, err := c.do(ctx, http.MethodPut, "/v1/records/"+r.ID, r)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", replica.ErrNotFound, r.ID)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError("update", resp)
	}

	var updated todo.Record
	if err := json.NewDecoder(resp.Body).Decode(&updated); err != nil {
		return nil, fmt.Errorf("failed to decode updated record: %w", err)
	}
	return &updated, nil
}

// do builds and executes one request with auth and JSON headers applied.
// Transport-level failures wrap replica.ErrUnavailable so callers can
// distinguish "endpoint down" from an HTTP-level rejection.
func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", replica.ErrUnavailable, err)
	}
	return resp, nil
}

// statusError turns a non-success response into an error, including any
// message the server sent back.
func (c *Client) statusError(op string, resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := bytes.TrimSpace(data)
	if len(msg) == 0 {
		return fmt.Errorf("%s failed: %s returned %s", op, c.name, resp.Status)
	}
	return fmt.Errorf("%s failed: %s returned %s: %s", op, c.name, resp.Status, msg)
}
