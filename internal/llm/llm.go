package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrAPIKeyRequired = errors.New("openai api key is required")
	ErrModelRequired  = errors.New("openai model is required")
	ErrPromptRequired = errors.New("prompt is required")
	ErrEmptyReply     = errors.New("language model returned no choices")
)

// Request is a single-turn completion: one user message, no history.
type Request struct {
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Completer returns the text of the first choice for a prompt.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e == nil {
		return "openai request failed"
	}
	message := strings.TrimSpace(e.Message)
	if message == "" {
		return fmt.Sprintf("openai request failed: status %d", e.StatusCode)
	}
	return fmt.Sprintf("openai request failed: status %d: %s", e.StatusCode, message)
}

func (e *APIError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}
