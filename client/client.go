// Package client talks to the todo REST API served by the proxy.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/prognoshealth/todolambda/todo"
)

// APIError is returned when the API answers with a non 2xx status.
type APIError struct {
	StatusCode int
	Message    string `json:"error"`
	Details    string `json:"details"`
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}

	if e.Details != "" {
		return fmt.Sprintf("%d %s: %s", e.StatusCode, msg, e.Details)
	}

	return fmt.Sprintf("%d %s", e.StatusCode, msg)
}

// Client is a todo API client rooted at BaseURL, e.g. http://localhost:3000.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// New returns a client for baseURL using a client with timeout.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// List returns every todo.
func (c *Client) List(ctx context.Context) ([]todo.Todo, error) {
	todos := []todo.Todo{}
	if err := c.do(ctx, http.MethodGet, "/api/todos", nil, &todos); err != nil {
		return nil, errors.Wrap(err, "failed listing todos")
	}

	if todos == nil {
		todos = []todo.Todo{}
	}

	return todos, nil
}

// Create adds a todo with text and returns it as stored.
func (c *Client) Create(ctx context.Context, text string) (todo.Todo, error) {
	created := todo.Todo{}
	if err := c.do(ctx, http.MethodPost, "/api/todos", map[string]string{"text": text}, &created); err != nil {
		return todo.Todo{}, errors.Wrap(err, "failed adding todo")
	}

	return created, nil
}

// Update replaces the text of the todo with id.
func (c *Client) Update(ctx context.Context, id, text string) error {
	if err := c.do(ctx, http.MethodPatch, todoPath(id), map[string]string{"text": text}, nil); err != nil {
		return errors.Wrapf(err, "failed updating todo %s", id)
	}

	return nil
}

// Delete removes the todo with id.
func (c *Client) Delete(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, todoPath(id), nil, nil); err != nil {
		return errors.Wrapf(err, "failed deleting todo %s", id)
	}

	return nil
}

func todoPath(id string) string {
	return "/api/todos/" + url.PathEscape(id)
}

// do sends in as JSON, when not nil, and decodes the response body into out,
// when not nil and the body is not empty.
func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "failed encoding request body")
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return errors.Wrapf(err, "failed building request %s %s", method, path)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "failed reading response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{}
		_ = json.Unmarshal(b, apiErr)
		apiErr.StatusCode = resp.StatusCode
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(b)) == 0 {
		return nil
	}

	if err := json.Unmarshal(b, out); err != nil {
		return errors.Wrap(err, "failed decoding response body")
	}

	return nil
}
