package jira

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/samhotchkiss/jirabot/internal/metrics"
)

const (
	apiPathPrefix            = "/rest/api/3/"
	maxErrorBodyBytes        = 1 << 20
	upstreamName             = "jira"
	defaultHTTPClientTimeout = 30 * time.Second
)

type Option func(*Client)

// Client issues authenticated requests against the Jira Cloud REST API v3.
// It holds no mutable state and is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	authHeader string
	now        func() time.Time
	logBodies  bool
}

func NewClient(domain, email, token string, options ...Option) (*Client, error) {
	parsedDomain, err := url.Parse(strings.TrimRight(strings.TrimSpace(domain), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse jira domain: %w", err)
	}
	if parsedDomain.Scheme == "" || parsedDomain.Host == "" {
		return nil, fmt.Errorf("jira domain must include scheme and host")
	}
	if strings.TrimSpace(email) == "" || strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("jira email and token are required")
	}

	baseURL := *parsedDomain
	baseURL.Path = strings.TrimRight(parsedDomain.Path, "/") + apiPathPrefix
	baseURL.RawQuery = ""

	credentials := strings.TrimSpace(email) + ":" + strings.TrimSpace(token)
	client := &Client{
		httpClient: &http.Client{Timeout: defaultHTTPClientTimeout},
		baseURL:    &baseURL,
		authHeader: "Basic " + base64.StdEncoding.EncodeToString([]byte(credentials)),
		now:        time.Now,
		logBodies:  true,
	}

	for _, option := range options {
		option(client)
	}

	return client, nil
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(client *Client) {
		if httpClient != nil {
			client.httpClient = httpClient
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(client *Client) {
		if now != nil {
			client.now = now
		}
	}
}

// WithRequestBodyLogging toggles logging of outgoing JSON bodies.
func WithRequestBodyLogging(enabled bool) Option {
	return func(client *Client) {
		client.logBodies = enabled
	}
}

// BaseURL returns the API root every endpoint is resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

func (c *Client) NewRequest(ctx context.Context, method, endpoint string, body any) (*http.Request, error) {
	if strings.TrimSpace(method) == "" {
		return nil, fmt.Errorf("method is required")
	}
	requestURL, err := c.resolveURL(endpoint)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	var rawBody []byte
	if body != nil {
		rawBody, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode jira request body: %w", err)
		}
		reader = bytes.NewReader(rawBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", c.authHeader)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	log.Printf("jira: %s %s", method, requestURL)
	if c.logBodies && len(rawBody) > 0 {
		log.Printf("jira: request body: %s", rawBody)
	}
	return req, nil
}

// Do sends one request and returns the raw JSON response body, which is nil
// for empty responses (204 on update, delete and transition).
func (c *Client) Do(ctx context.Context, method, endpoint string, body any) (json.RawMessage, error) {
	req, err := c.NewRequest(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}

	started := c.now()
	rawResponse, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordUpstreamCall(upstreamName, 0, true, c.now().Sub(started))
		log.Printf("jira: %s %s failed: %v", method, req.URL.String(), err)
		return nil, &TrackerError{Message: err.Error()}
	}
	defer rawResponse.Body.Close()

	responseBody, err := io.ReadAll(io.LimitReader(rawResponse.Body, maxErrorBodyBytes))
	latency := c.now().Sub(started)
	if err != nil {
		metrics.RecordUpstreamCall(upstreamName, rawResponse.StatusCode, true, latency)
		return nil, &TrackerError{StatusCode: rawResponse.StatusCode, Message: err.Error()}
	}

	if rawResponse.StatusCode < 200 || rawResponse.StatusCode >= 300 {
		metrics.RecordUpstreamCall(upstreamName, rawResponse.StatusCode, true, latency)
		trackerErr := &TrackerError{
			StatusCode: rawResponse.StatusCode,
			Message:    extractErrorMessage(rawResponse.StatusCode, responseBody),
		}
		log.Printf("jira: %s %s returned %d: %s", method, req.URL.String(), rawResponse.StatusCode, strings.TrimSpace(string(responseBody)))
		return nil, trackerErr
	}

	metrics.RecordUpstreamCall(upstreamName, rawResponse.StatusCode, false, latency)
	trimmed := bytes.TrimSpace(responseBody)
	if len(trimmed) == 0 {
		return nil, nil
	}
	return json.RawMessage(trimmed), nil
}

func (c *Client) doJSON(ctx context.Context, method, endpoint string, body any, out any) error {
	raw, err := c.Do(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode jira response for %s: %w", endpoint, err)
	}
	return nil
}

func (c *Client) resolveURL(endpoint string) (string, error) {
	trimmed := strings.TrimSpace(endpoint)
	if trimmed == "" {
		return "", fmt.Errorf("endpoint is required")
	}
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return trimmed, nil
	}

	relative, err := url.Parse(strings.TrimLeft(trimmed, "/"))
	if err != nil {
		return "", fmt.Errorf("parse endpoint %q: %w", endpoint, err)
	}

	return c.baseURL.ResolveReference(relative).String(), nil
}

// extractErrorMessage prefers the first entry of errorMessages, then the
// field-level errors object, then the HTTP status text.
func extractErrorMessage(statusCode int, body []byte) string {
	var payload struct {
		ErrorMessages []string       `json:"errorMessages"`
		Errors        map[string]any `json:"errors"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, message := range payload.ErrorMessages {
			if trimmed := strings.TrimSpace(message); trimmed != "" {
				return trimmed
			}
		}
		if len(payload.Errors) > 0 {
			if encoded, err := json.Marshal(payload.Errors); err == nil {
				return string(encoded)
			}
		}
	}
	if text := http.StatusText(statusCode); text != "" {
		return text
	}
	return strings.TrimSpace(string(body))
}
