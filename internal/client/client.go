// Package client talks to a running task server over its HTTP API. It is
// used by the CLI commands and the MCP server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/drmercer/prompt-pad/pkg/models"
)

// Status mirrors the status query response body.
type Status struct {
	ServerName string        `json:"serverName"`
	Tasks      []models.Task `json:"tasks"`
}

// HTTPClient talks to the task server API with the shared bearer secret.
type HTTPClient struct {
	BaseURL string // e.g. http://127.0.0.1:8999
	Host    string // Host header expected by the server
	Secret  string
	Client  *http.Client
}

// New constructs a client. host may be empty to use the URL's own host.
func New(baseURL, host, secret string) *HTTPClient {
	return &HTTPClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Host:    host,
		Secret:  secret,
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Status calls GET / and returns the full task snapshot.
func (c *HTTPClient) Status(ctx context.Context) (*Status, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/", nil)
	if err != nil {
		return nil, err
	}
	c.applyHeaders(req)

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out Status
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("parsing status response: %w", err)
	}
	return &out, nil
}

// Submit calls POST / with a task descriptor. The server accepts the task
// asynchronously; a nil error means it was queued, not that it ran.
func (c *HTTPClient) Submit(ctx context.Context, sub models.Submission) error {
	payload, err := json.Marshal(sub)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	c.applyHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

// GetTask fetches the snapshot and returns the task with the given id.
func (c *HTTPClient) GetTask(ctx context.Context, id string) (*models.Task, error) {
	status, err := c.Status(ctx)
	if err != nil {
		return nil, err
	}
	for i := range status.Tasks {
		if status.Tasks[i].ID == id {
			return &status.Tasks[i], nil
		}
	}
	return nil, fmt.Errorf("task %s not found", id)
}

func (c *HTTPClient) applyHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.Secret)
	if c.Host != "" {
		req.Host = c.Host
	}
}
