package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/samhotchkiss/jirabot/internal/metrics"
)

const (
	defaultBaseURL      = "https://api.openai.com"
	chatCompletionsPath = "/v1/chat/completions"
	maxErrorBodyBytes   = 4096
	upstreamName        = "openai"
)

type OpenAIOption func(*OpenAIClient)

type OpenAIClient struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
	now     func() time.Time
}

func NewOpenAIClient(apiKey, model string, options ...OpenAIOption) (*OpenAIClient, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, ErrAPIKeyRequired
	}
	model = strings.TrimSpace(model)
	if model == "" {
		return nil, ErrModelRequired
	}

	client := &OpenAIClient{
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		model:   model,
		client:  http.DefaultClient,
		now:     time.Now,
	}
	for _, option := range options {
		option(client)
	}
	return client, nil
}

func WithBaseURL(baseURL string) OpenAIOption {
	return func(c *OpenAIClient) {
		if trimmed := strings.TrimSpace(baseURL); trimmed != "" {
			c.baseURL = strings.TrimRight(trimmed, "/")
		}
	}
}

func WithHTTPClient(httpClient *http.Client) OpenAIOption {
	return func(c *OpenAIClient) {
		if httpClient != nil {
			c.client = httpClient
		}
	}
}

func (c *OpenAIClient) Model() string {
	return c.model
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *OpenAIClient) Complete(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return "", ErrPromptRequired
	}

	body, err := json.Marshal(chatCompletionRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: req.Prompt}},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal openai payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+chatCompletionsPath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build openai request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	started := c.now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		metrics.RecordUpstreamCall(upstreamName, 0, true, c.now().Sub(started))
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	defer resp.Body.Close()
	latency := c.now().Sub(started)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.RecordUpstreamCall(upstreamName, resp.StatusCode, true, latency)
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return "", &APIError{StatusCode: resp.StatusCode, Message: extractErrorMessage(raw)}
	}

	var payload chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		metrics.RecordUpstreamCall(upstreamName, resp.StatusCode, true, latency)
		return "", fmt.Errorf("decode openai response: %w", err)
	}
	metrics.RecordUpstreamCall(upstreamName, resp.StatusCode, false, latency)

	if len(payload.Choices) == 0 {
		return "", ErrEmptyReply
	}
	return strings.TrimSpace(payload.Choices[0].Message.Content), nil
}

func extractErrorMessage(raw []byte) string {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		if message := strings.TrimSpace(payload.Error.Message); message != "" {
			return message
		}
	}
	return strings.TrimSpace(string(raw))
}
