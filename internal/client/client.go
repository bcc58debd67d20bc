// Package client is a Go client for the issue tracker HTTP API.
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

	"github.com/sumire/issuetracker/internal/domain"
)

// APIError is an {"error": ...} payload returned by the server. Status is
// the HTTP status code, which is 200 for rejected domain operations.
type APIError struct {
	Status  int
	Message string
	ID      string
}

func (e *APIError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s (_id %s)", e.Message, e.ID)
	}
	return e.Message
}

// Client talks to one issue tracker server.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New creates a Client for the server at baseURL. token is sent as a Bearer
// token when non-empty.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// List returns the project's issues matching filters.
func (c *Client) List(ctx context.Context, project string, filters url.Values) ([]domain.Issue, error) {
	var issues []domain.Issue
	if err := c.do(ctx, http.MethodGet, project, filters, nil, &issues); err != nil {
		return nil, err
	}
	return issues, nil
}

// Create opens a new issue in the project.
func (c *Client) Create(ctx context.Context, project string, in domain.NewIssue) (*domain.Issue, error) {
	var issue domain.Issue
	if err := c.do(ctx, http.MethodPost, project, nil, in, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

// Update overwrites the set fields of one issue.
func (c *Client) Update(ctx context.Context, project, id string, fields domain.IssueFields) error {
	body := map[string]any{domain.FieldID: id}
	setString := func(key string, v *string) {
		if v != nil {
			body[key] = *v
		}
	}
	setString(domain.FieldIssueTitle, fields.IssueTitle)
	setString(domain.FieldIssueText, fields.IssueText)
	setString(domain.FieldCreatedBy, fields.CreatedBy)
	setString(domain.FieldAssignedTo, fields.AssignedTo)
	setString(domain.FieldStatusText, fields.StatusText)
	if fields.Open != nil {
		body[domain.FieldOpen] = *fields.Open
	}

	return c.do(ctx, http.MethodPut, project, nil, body, nil)
}

// Delete removes one issue.
func (c *Client) Delete(ctx context.Context, project, id string) error {
	return c.do(ctx, http.MethodDelete, project, nil, map[string]string{domain.FieldID: id}, nil)
}

func (c *Client) do(ctx context.Context, method, project string, query url.Values, in, out any) error {
	endpoint := c.baseURL + "/api/issues/" + url.PathEscape(project)
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if apiErr := parseAPIError(resp.StatusCode, raw); apiErr != nil {
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// parseAPIError returns the error carried by a response, or nil when the
// response is a success payload.
func parseAPIError(status int, raw []byte) *APIError {
	var payload struct {
		Error *string `json:"error"`
		ID    string  `json:"_id"`
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		_ = json.Unmarshal(trimmed, &payload)
	}

	if payload.Error != nil {
		return &APIError{Status: status, Message: *payload.Error, ID: payload.ID}
	}
	if status != http.StatusOK {
		return &APIError{Status: status, Message: http.StatusText(status)}
	}
	return nil
}
