package assistant

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/samhotchkiss/jirabot/internal/config"
	"github.com/samhotchkiss/jirabot/internal/llm"
)

var ErrEmptyQuery = errors.New("language model returned an empty query")

var orderByPattern = regexp.MustCompile(`(?i)\border\s+by\b`)

type Translator struct {
	model      llm.Completer
	projectKey string
	vocabulary config.Vocabulary
}

func NewTranslator(model llm.Completer, projectKey string, vocabulary config.Vocabulary) *Translator {
	return &Translator{
		model:      model,
		projectKey: projectKey,
		vocabulary: vocabulary,
	}
}

// Translate turns a read request into JQL scoped to the configured project.
// Model failures are returned unchanged.
func (t *Translator) Translate(ctx context.Context, query string) (string, error) {
	reply, err := t.model.Complete(ctx, llm.Request{
		Prompt:      buildTranslatePrompt(t.projectKey, t.vocabulary, query),
		MaxTokens:   translateMaxTokens,
		Temperature: translateTemperature,
	})
	if err != nil {
		return "", err
	}

	jql := strings.TrimSpace(strings.TrimPrefix(llm.StripCodeFence(reply), "JQL:"))
	if jql == "" {
		return "", ErrEmptyQuery
	}
	return t.ensureProjectFilter(jql), nil
}

// ensureProjectFilter ANDs the project filter onto the whole clause, even when
// the model already wrote one, so OR and NOT branches cannot widen the search.
func (t *Translator) ensureProjectFilter(jql string) string {
	filter := fmt.Sprintf("project = %q", t.projectKey)
	clause, orderBy := jql, ""
	if loc := orderByPattern.FindStringIndex(jql); loc != nil {
		clause, orderBy = strings.TrimSpace(jql[:loc[0]]), " "+strings.TrimSpace(jql[loc[0]:])
	}
	if clause == "" {
		return filter + orderBy
	}
	return fmt.Sprintf("%s AND (%s)%s", filter, clause, orderBy)
}
