package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samhotchkiss/jirabot/internal/metrics"
)

func TestNewOpenAIClientRequiresKeyAndModel(t *testing.T) {
	_, err := NewOpenAIClient(" ", "gpt-4")
	require.ErrorIs(t, err, ErrAPIKeyRequired)

	_, err = NewOpenAIClient("sk-test", "")
	require.ErrorIs(t, err, ErrModelRequired)
}

func TestCompleteSendsSingleUserMessage(t *testing.T) {
	metrics.ResetForTests()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body chatCompletionRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4", body.Model)
		assert.Equal(t, 150, body.MaxTokens)
		assert.InDelta(t, 0.1, body.Temperature, 0.0001)
		assert.Equal(t, []chatMessage{{Role: "user", Content: "translate this"}}, body.Messages)

		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  status = \"Done\"  "}}]}`))
	}))
	defer server.Close()

	client, err := NewOpenAIClient("sk-test", "gpt-4", WithBaseURL(server.URL+"/"), WithHTTPClient(server.Client()))
	require.NoError(t, err)

	reply, err := client.Complete(context.Background(), Request{Prompt: "translate this", MaxTokens: 150, Temperature: 0.1})
	require.NoError(t, err)
	assert.Equal(t, `status = "Done"`, reply)
	assert.Equal(t, int64(1), metrics.SnapshotNow().Upstreams["openai"].CallsTotal)
}

func TestCompleteReturnsAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"Rate limit reached","type":"requests"}}`))
	}))
	defer server.Close()

	client, err := NewOpenAIClient("sk-test", "gpt-4", WithBaseURL(server.URL))
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), Request{Prompt: "hi"})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.HTTPStatusCode())
	assert.Equal(t, "openai request failed: status 429: Rate limit reached", err.Error())
}

func TestCompleteRejectsEmptyChoicesAndPrompt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	client, err := NewOpenAIClient("sk-test", "gpt-4", WithBaseURL(server.URL))
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), Request{Prompt: "hi"})
	require.ErrorIs(t, err, ErrEmptyReply)

	_, err = client.Complete(context.Background(), Request{Prompt: "  "})
	require.ErrorIs(t, err, ErrPromptRequired)
}
