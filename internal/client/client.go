// Package client is the HTTP gateway the composer talks to the server
// through.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"daybook/internal/draft"
)

// RemoteError carries the server's user-facing failure message.
type RemoteError struct {
	Status  int
	Code    string
	Message string
}

func (e *RemoteError) Error() string { return e.Message }

// Client talks to the entries API. Token gates the mutating routes.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Login exchanges the admin password for a session token and keeps it for
// later calls.
func (c *Client) Login(ctx context.Context, password string) error {
	body, err := json.Marshal(map[string]string{"password": password})
	if err != nil {
		return fmt.Errorf("encode login: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/session/login", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeRemoteError(resp)
	}

	var payload struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("decode login response: %w", err)
	}
	c.token = payload.Token
	return nil
}

// CreateEntry implements draft.Gateway. On success it returns the
// navigation target from the Location header; on failure the returned
// error carries the server's message.
func (c *Client) CreateEntry(ctx context.Context, sub draft.Submission) (string, error) {
	if c.token == "" {
		return "", ErrNoToken
	}

	body, err := json.Marshal(map[string]any{
		"slug":    sub.Slug,
		"title":   sub.Title,
		"content": sub.Content,
		"doc":     sub.Doc,
	})
	if err != nil {
		return "", fmt.Errorf("encode entry: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/entries", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build entry request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("submit entry: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return "", decodeRemoteError(resp)
	}
	return resp.Header.Get("Location"), nil
}

// EntryDates fetches the authoritative set of days that already hold an
// entry.
func (c *Client) EntryDates(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/entries/dates", nil)
	if err != nil {
		return nil, fmt.Errorf("build dates request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch entry dates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeRemoteError(resp)
	}

	var payload struct {
		Dates []string `json:"dates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode entry dates: %w", err)
	}
	return payload.Dates, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// decodeRemoteError unwraps the server's {"code","error"} envelope. A body
// that cannot be decoded falls back to the status text so the caller still
// gets something presentable.
func decodeRemoteError(resp *http.Response) error {
	var payload struct {
		Code  string `json:"code"`
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil || payload.Error == "" {
		return &RemoteError{
			Status:  resp.StatusCode,
			Code:    "SERVER_ERROR",
			Message: http.StatusText(resp.StatusCode),
		}
	}
	return &RemoteError{
		Status:  resp.StatusCode,
		Code:    payload.Code,
		Message: payload.Error,
	}
}

var _ draft.Gateway = (*Client)(nil)

// ErrNoToken reports a mutating call attempted before Login.
var ErrNoToken = errors.New("not logged in")
