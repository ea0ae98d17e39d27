// Package client provides an HTTP client for the forum notes REST API.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/evcraddock/forum-notes/internal/comment"
	"github.com/evcraddock/forum-notes/internal/note"
)

// Client is an HTTP client for the forum notes API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a new API client.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// StatusError is a non-2xx response from the server.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return e.Message
}

// APIKey is an API key as listed by the server.
type APIKey struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	KeyPrefix  string  `json:"key_prefix"`
	CreatedAt  string  `json:"created_at"`
	LastUsedAt *string `json:"last_used_at,omitempty"`
}

// CreatedKey is the response to CreateAPIKey. Key is only shown once.
type CreatedKey struct {
	Key    string `json:"key"`
	APIKey APIKey `json:"api_key"`
}

// CommentQuery filters RecentComments.
type CommentQuery struct {
	PostID int64
	Type   string
	Limit  int
}

// AddNote attaches a moderator note to a topic or reply.
func (c *Client) AddNote(postID int64, content string) (*note.Note, error) {
	body := map[string]string{"content": content}
	var n note.Note
	if err := c.post(fmt.Sprintf("/api/posts/%d/notes", postID), body, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// ListNotes returns the moderator notes on a post, oldest first.
func (c *Client) ListNotes(postID int64) ([]*note.Note, error) {
	var notes []*note.Note
	if err := c.get(fmt.Sprintf("/api/posts/%d/notes", postID), &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

// RecentComments returns public comments, newest first.
func (c *Client) RecentComments(q CommentQuery) ([]*comment.Comment, error) {
	params := url.Values{}
	if q.PostID > 0 {
		params.Set("post_id", strconv.FormatInt(q.PostID, 10))
	}
	if q.Type != "" {
		params.Set("type", q.Type)
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}

	path := "/api/comments"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var comments []*comment.Comment
	if err := c.get(path, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// AddComment adds an ordinary public comment to a post.
func (c *Client) AddComment(postID int64, content string) (*comment.Comment, error) {
	body := map[string]string{"content": content}
	var comm comment.Comment
	if err := c.post(fmt.Sprintf("/api/posts/%d/comments", postID), body, &comm); err != nil {
		return nil, err
	}
	return &comm, nil
}

// CreateAPIKey creates a new key for the authenticated user.
func (c *Client) CreateAPIKey(name string) (*CreatedKey, error) {
	var resp CreatedKey
	if err := c.post("/api/keys", map[string]string{"name": name}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListAPIKeys lists the authenticated user's keys.
func (c *Client) ListAPIKeys() ([]APIKey, error) {
	var keys []APIKey
	if err := c.get("/api/keys", &keys); err != nil {
		return nil, err
	}
	return keys, nil
}

// DeleteAPIKey revokes one of the authenticated user's keys.
func (c *Client) DeleteAPIKey(id int64) error {
	return c.doDelete(fmt.Sprintf("/api/keys/%d", id))
}

// get performs a GET request and decodes the response.
func (c *Client) get(path string, result interface{}) error {
	req, err := http.NewRequest("GET", c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	return c.do(req, result)
}

// post performs a POST request with a JSON body and decodes the response.
func (c *Client) post(path string, body interface{}, result interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequest("POST", c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, result)
}

// doDelete performs a DELETE request.
func (c *Client) doDelete(path string) error {
	req, err := http.NewRequest("DELETE", c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	return c.do(req, nil)
}

// do executes an HTTP request with auth header and handles errors.
func (c *Client) do(req *http.Request, result interface{}) error {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			fmt.Printf("warning: closing response body: %v\n", cerr)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		msg := fmt.Sprintf("server error: %s", http.StatusText(resp.StatusCode))
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			msg = errResp.Error
		}
		return &StatusError{Code: resp.StatusCode, Message: msg}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
