// Package client is a typed HTTP client for the bookshelf API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// APIError is returned for any non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Client talks to one bookshelf server.
type Client struct {
	baseURL string
	http    *http.Client
	dialer  *websocket.Dialer
}

// New creates a client for the server at baseURL, e.g. "http://localhost:8080".
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		dialer:  &websocket.Dialer{HandshakeTimeout: timeout},
	}
}

// List returns every book.
func (c *Client) List(ctx context.Context) ([]Book, error) {
	return c.Search(ctx, Query{})
}

// Search returns books whose title and author contain the query strings.
func (c *Client) Search(ctx context.Context, q Query) ([]Book, error) {
	params := url.Values{}
	if q.Title != "" {
		params.Set("title", q.Title)
	}
	if q.Author != "" {
		params.Set("author", q.Author)
	}
	path := "/api/books"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var out struct {
		Books []Book `json:"books"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Books, nil
}

// Get fetches one book.
func (c *Client) Get(ctx context.Context, id int) (Book, error) {
	var out struct {
		Book Book `json:"book"`
	}
	err := c.do(ctx, http.MethodGet, bookPath(id), nil, &out)
	return out.Book, err
}

// Create adds a book.
func (c *Client) Create(ctx context.Context, title, author string) (Book, error) {
	var out struct {
		Book Book `json:"book"`
	}
	err := c.do(ctx, http.MethodPost, "/api/books", Changes{Title: &title, Author: &author}, &out)
	return out.Book, err
}

// Update changes the fields set in ch.
func (c *Client) Update(ctx context.Context, id int, ch Changes) (Book, error) {
	var out struct {
		Book Book `json:"book"`
	}
	err := c.do(ctx, http.MethodPut, bookPath(id), ch, &out)
	return out.Book, err
}

// Delete removes a book.
func (c *Client) Delete(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, bookPath(id), nil, nil)
}

// Watch streams change events to fn until ctx ends, the server closes the
// feed, or fn returns an error.
func (c *Client) Watch(ctx context.Context, fn func(Event) error) error {
	wsURL := "ws" + strings.TrimPrefix(c.baseURL, "http") + "/api/books/ws"
	conn, _, err := c.dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial feed: %w", err)
	}
	defer conn.Close()

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-watchCtx.Done()
		conn.Close()
	}()

	for {
		var ev Event
		if err := conn.ReadJSON(&ev); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				return nil
			}
			return fmt.Errorf("read feed: %w", err)
		}
		if err := fn(ev); err != nil {
			return err
		}
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Error == "" {
			apiErr.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: apiErr.Error}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func bookPath(id int) string {
	return "/api/books/" + strconv.Itoa(id)
}
