package discord

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

	"github.com/samhotchkiss/jirabot/internal/metrics"
)

const (
	defaultAPIBaseURL = "https://discord.com/api/v10"
	upstreamName      = "discord"
	maxErrorBodyBytes = 4096
)

type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e == nil {
		return "discord request failed"
	}
	return fmt.Sprintf("discord request failed: status %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

func (e *APIError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

// RESTClient sends the few channel calls the bot needs.
type RESTClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	now        func() time.Time
}

func NewRESTClient(token, baseURL string, httpClient *http.Client) *RESTClient {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultAPIBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &RESTClient{baseURL: baseURL, token: token, httpClient: httpClient, now: time.Now}
}

// Reply posts content to a channel as a reply to replyTo (when set).
func (c *RESTClient) Reply(ctx context.Context, channelID, replyTo, content string) error {
	body := createMessageRequest{Content: content}
	if replyTo != "" {
		body.MessageReference = &messageReference{MessageID: replyTo}
	}
	return c.do(ctx, http.MethodPost, "/channels/"+url.PathEscape(channelID)+"/messages", body)
}

func (c *RESTClient) TriggerTyping(ctx context.Context, channelID string) error {
	return c.do(ctx, http.MethodPost, "/channels/"+url.PathEscape(channelID)+"/typing", nil)
}

func (c *RESTClient) do(ctx context.Context, method, path string, body any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode discord request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build discord request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	started := c.now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordUpstreamCall(upstreamName, 0, true, c.now().Sub(started))
		return fmt.Errorf("discord request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.RecordUpstreamCall(upstreamName, resp.StatusCode, true, c.now().Sub(started))
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return &APIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	metrics.RecordUpstreamCall(upstreamName, resp.StatusCode, false, c.now().Sub(started))
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
