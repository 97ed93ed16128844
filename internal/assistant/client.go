// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package assistant is the client for the portfolio assistant backend.
//
// A send is exactly one POST. There are no retries and no client-side
// timeout beyond the caller's context: a failed attempt surfaces directly as
// a network error or an HTTP error carrying the status.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jeranaias/folio-tui/internal/model"
)

// Configuration constants for the assistant backend.
const (
	// DefaultEndpoint is the chat route of a locally running backend.
	DefaultEndpoint = "http://127.0.0.1:8000/api/v1/chat"

	// DefaultHistoryWindow is how many recent messages accompany a query.
	DefaultHistoryWindow = 10

	// MaxResponseSize bounds the response body we are willing to read.
	MaxResponseSize = 2 * 1024 * 1024
)

// User-facing texts for failed sends.
const (
	NetworkErrorText = "Connection error. Check your internet connection."
	GenericErrorText = "I encountered an error. Please try again."
)

// Error variables for failed sends.
var (
	// ErrNetwork indicates the request could not complete.
	ErrNetwork = errors.New("network error")

	// ErrHTTP matches any *HTTPError.
	ErrHTTP = errors.New("http error")

	// ErrEmptyReply indicates the backend answered with nothing to show.
	ErrEmptyReply = errors.New("empty reply")

	// ErrResponseTooLarge indicates the body exceeded MaxResponseSize.
	ErrResponseTooLarge = errors.New("response too large")
)

// HTTPError is returned when the backend answers with a non-2xx status.
type HTTPError struct {
	Status     int
	StatusText string
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	text := e.StatusText
	if text == "" {
		text = http.StatusText(e.Status)
	}
	return fmt.Sprintf("HTTP %d: %s", e.Status, text)
}

// Is makes errors.Is(err, ErrHTTP) true for every HTTPError.
func (e *HTTPError) Is(target error) bool {
	return target == ErrHTTP
}

// UserMessage maps a send error to the text shown in the chat.
func UserMessage(err error) string {
	if errors.Is(err, ErrNetwork) {
		return NetworkErrorText
	}
	return GenericErrorText
}

// =============================================================================
// CLIENT
// =============================================================================

// Sender is anything that can deliver a query and return a reply. The widget
// depends on this so tests can substitute a fake transport.
type Sender interface {
	Send(ctx context.Context, query, sessionID string, history []*model.Message) (*Reply, error)
}

// Client posts queries to the assistant backend.
type Client struct {
	endpoint   string
	window     int
	httpClient *http.Client
	userAgent  string
}

// NewClient creates a client for endpoint. An empty endpoint uses
// DefaultEndpoint.
func NewClient(endpoint string) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		endpoint: endpoint,
		window:   DefaultHistoryWindow,
		// No Timeout: the transport's own failure is the only deadline.
		httpClient: &http.Client{},
		userAgent:  "folio",
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	if hc != nil {
		c.httpClient = hc
	}
	return c
}

// WithHistoryWindow sets how many recent messages accompany a query.
func (c *Client) WithHistoryWindow(n int) *Client {
	if n > 0 {
		c.window = n
	}
	return c
}

// WithUserAgent sets the User-Agent header.
func (c *Client) WithUserAgent(ua string) *Client {
	c.userAgent = ua
	return c
}

// Endpoint returns the configured chat endpoint.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// BaseURL returns scheme://host of the endpoint, used to resolve image paths.
func (c *Client) BaseURL() string {
	u, err := url.Parse(c.endpoint)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// Send posts one query. history is the conversation so far; the last window
// entries are attached.
func (c *Client) Send(ctx context.Context, query, sessionID string, history []*model.Message) (*Reply, error) {
	body, err := json.Marshal(NewRequest(query, sessionID, history, c.window))
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	log.Printf("ASSISTANT_REQUEST | session=%s query_len=%d history=%d", sessionID, len(query), min(len(history), c.window))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("ASSISTANT_NETWORK_ERROR | session=%s err=%v", sessionID, err)
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	log.Printf("ASSISTANT_RESPONSE | session=%s status=%d duration=%v", sessionID, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, MaxResponseSize))
		return nil, &HTTPError{Status: resp.StatusCode, StatusText: statusText(resp)}
	}

	data, err := readResponse(resp)
	if err != nil {
		return nil, err
	}

	reply, err := DecodeReply(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode reply: %w", err)
	}
	if strings.TrimSpace(reply.Answer) == "" && len(reply.Images) == 0 {
		return nil, ErrEmptyReply
	}
	return reply, nil
}

// statusText returns the reason phrase, e.g. "Not Found" from "404 Not Found".
func statusText(resp *http.Response) string {
	if _, text, ok := strings.Cut(resp.Status, " "); ok && text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}

func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", ErrNetwork, err)
	}
	if len(body) > MaxResponseSize {
		return nil, ErrResponseTooLarge
	}
	return body, nil
}
