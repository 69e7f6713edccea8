// Package api implements the HTTP client for the workspace server.
//
// Authentication rides on HttpOnly cookies managed by the server; client
// code only ever sees token expiry metadata. The cookie jar keeps the
// access and refresh cookies attached to every request for the lifetime
// of the client.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/google/uuid"

	"github.com/intraworks/workbench/internal/errors"
	"github.com/intraworks/workbench/internal/log"
)

// Client is the workspace server API client
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *log.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient replaces the underlying HTTP client. Mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a new workspace API client
func NewClient(baseURL string, opts ...Option) *Client {
	// cookiejar.New never fails with nil options
	jar, _ := cookiejar.New(nil)

	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		},
		logger: log.DefaultLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// BaseURL returns the configured server base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// doRequest performs an HTTP request with a JSON body and request ID
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeAPIRequest, "failed to marshal request body", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeAPIRequest, "failed to create request", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeAPIRequest, fmt.Sprintf("%s %s failed", method, path), err)
	}

	return resp, nil
}

// errorEnvelope represents the server's error response body
type errorEnvelope struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// parseResponse decodes the response body into target, converting non-2xx
// statuses into coded errors. target may be nil when no body is expected.
func parseResponse(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)

		msg := ""
		var envelope errorEnvelope
		if err := json.Unmarshal(body, &envelope); err == nil {
			if envelope.Error != "" {
				msg = envelope.Error
			} else if envelope.Message != "" {
				msg = envelope.Message
			}
		}
		if msg == "" {
			msg = fmt.Sprintf("request failed with status %d", resp.StatusCode)
		}

		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return errors.New(errors.ErrCodeAuthUnauthorized, msg)
		case http.StatusForbidden:
			return errors.New(errors.ErrCodeAPIForbidden, msg)
		case http.StatusNotFound:
			return errors.New(errors.ErrCodeAPINotFound, msg)
		default:
			return errors.New(errors.ErrCodeAPIStatus, msg)
		}
	}

	if target != nil {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return errors.Wrap(errors.ErrCodeAPIDecode, "failed to decode response", err)
		}
	}

	return nil
}

// FetchImage downloads raw image bytes, typically an attachment URL.
// Relative URLs are resolved against the server base URL.
func (c *Client) FetchImage(ctx context.Context, url string) ([]byte, error) {
	if len(url) > 0 && url[0] == '/' {
		url = c.baseURL + url
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeViewerFetch, "failed to create image request", err)
	}
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeViewerFetch, "image fetch failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.New(errors.ErrCodeViewerFetch, fmt.Sprintf("image fetch returned status %d", resp.StatusCode))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeViewerFetch, "failed to read image body", err)
	}

	return data, nil
}
