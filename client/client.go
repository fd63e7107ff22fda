// Package client is a typed HTTP client for the chat server.
package client

import (
	"batepapo/errors"
	transport "batepapo/infrastructure/http"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{baseURL: baseURL, http: &http.Client{Timeout: timeout}}
}

// StatusError is returned for any non-2xx answer. It unwraps to the
// sentinel named by the server's error code so callers can use errors.Is.
type StatusError struct {
	Code    int
	Kind    string
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Code, e.Message)
}

func (e *StatusError) Unwrap() error {
	if e.Kind != "" {
		return transport.ErrorFor(e.Kind)
	}
	// Answers without a body, e.g. from a proxy
	switch e.Code {
	case http.StatusUnprocessableEntity:
		return errors.ErrValidation
	case http.StatusConflict:
		return errors.ErrNameTaken
	case http.StatusUnauthorized:
		return errors.ErrUnauthorized
	}
	if e.Code >= http.StatusInternalServerError {
		return errors.ErrStoreUnavailable
	}
	// A bare 404 does not tell a participant from a message
	return nil
}

func (c *Client) Register(ctx context.Context, name string) ([]transport.ParticipantResponse, error) {
	var out []transport.ParticipantResponse
	err := c.do(ctx, http.MethodPost, "/participants", "", transport.RegisterRequest{Name: name}, &out)
	return out, err
}

func (c *Client) Participants(ctx context.Context) ([]transport.ParticipantResponse, error) {
	var out []transport.ParticipantResponse
	err := c.do(ctx, http.MethodGet, "/participants", "", nil, &out)
	return out, err
}

func (c *Client) Heartbeat(ctx context.Context, user string) error {
	return c.do(ctx, http.MethodPost, "/status", user, nil, nil)
}

func (c *Client) Send(ctx context.Context, user string, req transport.MessageRequest) (transport.MessageResponse, error) {
	var out transport.MessageResponse
	err := c.do(ctx, http.MethodPost, "/messages", user, req, &out)
	return out, err
}

// Messages lists what user can see. A limit of zero asks for everything.
func (c *Client) Messages(ctx context.Context, user string, limit int) ([]transport.MessageResponse, error) {
	path := "/messages"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out []transport.MessageResponse
	err := c.do(ctx, http.MethodGet, path, user, nil, &out)
	return out, err
}

func (c *Client) Search(ctx context.Context, user, text string, limit int) ([]transport.MessageResponse, error) {
	query := url.Values{"q": {text}}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	var out []transport.MessageResponse
	err := c.do(ctx, http.MethodGet, "/messages/search?"+query.Encode(), user, nil, &out)
	return out, err
}

func (c *Client) Update(ctx context.Context, user, id string, req transport.MessageRequest) error {
	return c.do(ctx, http.MethodPut, "/messages/"+url.PathEscape(id), user, req, nil)
}

func (c *Client) Delete(ctx context.Context, user, id string) error {
	return c.do(ctx, http.MethodDelete, "/messages/"+url.PathEscape(id), user, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path, user string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set(transport.UserHeader, user)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var e transport.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return &StatusError{Code: resp.StatusCode, Kind: e.Code, Message: e.Error}
	}
	if out == nil {
		return nil
	}
	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s: %w", method, path, err)
	}
	return nil
}
