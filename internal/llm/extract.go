package llm

import (
	"errors"
	"strings"
)

// StripCodeFence removes a surrounding markdown fence and stray backticks.
func StripCodeFence(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "```") {
		if firstBreak := strings.Index(trimmed, "\n"); firstBreak >= 0 {
			trimmed = trimmed[firstBreak+1:]
		} else {
			trimmed = strings.TrimPrefix(trimmed, "```")
		}
		if endFence := strings.LastIndex(trimmed, "```"); endFence >= 0 {
			trimmed = trimmed[:endFence]
		}
	}
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(trimmed), "`"))
}

// ExtractJSON pulls the first JSON object or array out of model output that may
// be fenced or wrapped in prose.
func ExtractJSON(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", errors.New("empty output")
	}

	if strings.HasPrefix(trimmed, "```") {
		firstBreak := strings.Index(trimmed, "\n")
		if firstBreak < 0 {
			return "", errors.New("invalid fenced output")
		}
		trimmed = strings.TrimSpace(trimmed[firstBreak+1:])
		if endFence := strings.LastIndex(trimmed, "```"); endFence >= 0 {
			trimmed = strings.TrimSpace(trimmed[:endFence])
		}
	}

	start := strings.IndexAny(trimmed, "[{")
	if start < 0 {
		return "", errors.New("no json object found")
	}
	closing := "}"
	if trimmed[start] == '[' {
		closing = "]"
	}
	end := strings.LastIndex(trimmed, closing)
	if end <= start {
		return "", errors.New("incomplete json value")
	}
	return strings.TrimSpace(trimmed[start : end+1]), nil
}
