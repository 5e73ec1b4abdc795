package assistant

import (
	"context"
	"log"

	"github.com/samhotchkiss/jirabot/internal/config"
	"github.com/samhotchkiss/jirabot/internal/llm"
)

type Classifier struct {
	model      llm.Completer
	vocabulary config.Vocabulary
}

func NewClassifier(model llm.Completer, vocabulary config.Vocabulary) *Classifier {
	return &Classifier{model: model, vocabulary: vocabulary}
}

// Classify never fails: any model or parse failure yields a read intent.
func (c *Classifier) Classify(ctx context.Context, query string) Intent {
	reply, err := c.model.Complete(ctx, llm.Request{
		Prompt:      buildClassifyPrompt(c.vocabulary, query),
		MaxTokens:   classifyMaxTokens,
		Temperature: classifyTemperature,
	})
	if err != nil {
		log.Printf("assistant: intent analysis failed, defaulting to read: %v", err)
		return ReadIntent()
	}

	intent, ok := parseIntent(reply)
	if !ok {
		log.Printf("assistant: intent analysis unparsable, defaulting to read: %q", reply)
		return ReadIntent()
	}
	return intent
}
