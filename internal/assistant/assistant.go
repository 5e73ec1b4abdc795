package assistant

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/samhotchkiss/jirabot/internal/config"
	"github.com/samhotchkiss/jirabot/internal/jira"
	"github.com/samhotchkiss/jirabot/internal/llm"
	"github.com/samhotchkiss/jirabot/internal/metrics"
)

type Settings struct {
	ProjectKey string
	// Domain is the tracker site root used for browse links.
	Domain     string
	Vocabulary config.Vocabulary
}

// SettingsFromConfig derives pipeline settings from the loaded configuration.
func SettingsFromConfig(cfg config.Config) Settings {
	return Settings{
		ProjectKey: cfg.Jira.ProjectKey,
		Domain:     cfg.Jira.Domain,
		Vocabulary: cfg.Vocabulary,
	}
}

type Option func(*Assistant)

func WithClock(now func() time.Time) Option {
	return func(a *Assistant) {
		if now != nil {
			a.now = now
		}
	}
}

// Assistant runs one natural-language request end to end. It holds only
// immutable settings and is safe for concurrent use.
type Assistant struct {
	settings   Settings
	tracker    Tracker
	translator *Translator
	classifier *Classifier
	resolver   *Resolver
	executor   *Executor
	formatter  *Formatter
	now        func() time.Time
}

func New(tracker Tracker, model llm.Completer, settings Settings, options ...Option) (*Assistant, error) {
	if tracker == nil {
		return nil, errors.New("tracker is required")
	}
	if model == nil {
		return nil, errors.New("language model is required")
	}
	settings.ProjectKey = strings.TrimSpace(settings.ProjectKey)
	if settings.ProjectKey == "" {
		return nil, errors.New("project key is required")
	}
	settings.Domain = strings.TrimRight(strings.TrimSpace(settings.Domain), "/")
	if len(settings.Vocabulary.Statuses) == 0 && len(settings.Vocabulary.Priorities) == 0 && len(settings.Vocabulary.IssueTypes) == 0 {
		settings.Vocabulary = config.DefaultVocabulary()
	}

	resolver := NewResolver(tracker, settings.ProjectKey)
	a := &Assistant{
		settings:   settings,
		tracker:    tracker,
		translator: NewTranslator(model, settings.ProjectKey, settings.Vocabulary),
		classifier: NewClassifier(model, settings.Vocabulary),
		resolver:   resolver,
		executor:   NewExecutor(tracker, resolver, settings.ProjectKey),
		formatter:  NewFormatter(model, settings.ProjectKey),
		now:        time.Now,
	}
	for _, option := range options {
		option(a)
	}
	return a, nil
}

func (a *Assistant) ProjectKey() string {
	return a.settings.ProjectKey
}

// Reply is the outcome of one handled request.
type Reply struct {
	Text      string          `json:"text"`
	Operation Operation       `json:"operation"`
	Outcome   metrics.Outcome `json:"outcome"`
	IssueKey  string          `json:"issue_key,omitempty"`
	JQL       string          `json:"jql,omitempty"`
}

// Handle answers one request with user-facing text. It never fails.
func (a *Assistant) Handle(ctx context.Context, text string) string {
	return a.Process(ctx, text).Text
}

func (a *Assistant) Process(ctx context.Context, text string) Reply {
	started := a.now()
	query := strings.TrimSpace(text)

	intent := a.classifier.Classify(ctx, query)
	log.Printf("assistant: intent %s for %q", intent.Operation, query)

	var reply Reply
	switch intent.Operation {
	case OperationRead:
		reply = a.handleRead(ctx, query)
	case OperationCreate:
		reply = a.handleCreate(ctx, intent.Details)
	case OperationUpdate:
		reply = a.handleUpdate(ctx, intent.Details)
	case OperationDelete:
		reply = a.handleDelete(ctx, intent.Details)
	case OperationUnknown:
		reply = Reply{Text: unknownOperationMessage(intent.RawOperation), Outcome: metrics.OutcomeFailure}
	default:
		reply = Reply{Text: unknownOperationMessage(string(intent.Operation)), Outcome: metrics.OutcomeFailure}
	}
	reply.Operation = intent.Operation

	metrics.RecordQuery(string(intent.Operation), reply.Outcome, a.now().Sub(started))
	return reply
}

func (a *Assistant) handleRead(ctx context.Context, query string) Reply {
	jql, err := a.translator.Translate(ctx, query)
	if err != nil {
		log.Printf("assistant: translate %q: %v", query, err)
		return Reply{Text: readErrorMessage(err), Outcome: metrics.OutcomeFailure}
	}
	log.Printf("assistant: generated JQL: %s", jql)

	result, err := a.tracker.Search(ctx, jql, jira.MaxSearchResults)
	if err != nil {
		log.Printf("assistant: search %q: %v", jql, err)
		return Reply{Text: readErrorMessage(err), Outcome: metrics.OutcomeFailure, JQL: jql}
	}

	outcome := metrics.OutcomeSuccess
	if len(result.Issues) == 0 {
		outcome = metrics.OutcomeNotFound
	}
	return Reply{
		Text:    a.formatter.Format(ctx, query, result.Issues),
		Outcome: outcome,
		JQL:     jql,
	}
}

func (a *Assistant) handleCreate(ctx context.Context, details IssueDetails) Reply {
	created, err := a.executor.Create(ctx, details)
	if err != nil {
		log.Printf("assistant: create issue: %v", err)
		return Reply{Text: writeErrorMessage(OperationCreate, err), Outcome: metrics.OutcomeFailure}
	}
	return Reply{
		Text:     createdMessage(created.Key, details.Summary, a.browseURL(created.Key)),
		Outcome:  metrics.OutcomeSuccess,
		IssueKey: created.Key,
	}
}

func (a *Assistant) handleUpdate(ctx context.Context, details IssueDetails) Reply {
	result, err := a.executor.Update(ctx, details.Target, details)
	var missingUser *UserNotFoundError
	switch {
	case errors.Is(err, ErrIssueNotFound):
		return Reply{Text: notFoundMessage(details.Target), Outcome: metrics.OutcomeNotFound}
	case errors.As(err, &missingUser):
		return Reply{Text: userNotFoundMessage(missingUser.Name), Outcome: metrics.OutcomeNotFound}
	case err != nil:
		log.Printf("assistant: update issue %q: %v", details.Target, err)
		return Reply{Text: writeErrorMessage(OperationUpdate, err), Outcome: metrics.OutcomeFailure}
	}
	return Reply{
		Text:     updatedMessage(result, a.browseURL(result.Key)),
		Outcome:  metrics.OutcomeSuccess,
		IssueKey: result.Key,
	}
}

func (a *Assistant) handleDelete(ctx context.Context, details IssueDetails) Reply {
	key, err := a.executor.Delete(ctx, details.Target)
	switch {
	case errors.Is(err, ErrIssueNotFound):
		return Reply{Text: notFoundMessage(details.Target), Outcome: metrics.OutcomeNotFound}
	case err != nil:
		log.Printf("assistant: delete issue %q: %v", details.Target, err)
		return Reply{Text: writeErrorMessage(OperationDelete, err), Outcome: metrics.OutcomeFailure}
	}
	return Reply{Text: deletedMessage(key), Outcome: metrics.OutcomeSuccess, IssueKey: key}
}

func (a *Assistant) browseURL(key string) string {
	return fmt.Sprintf("%s/browse/%s", a.settings.Domain, key)
}
