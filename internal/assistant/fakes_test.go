package assistant

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/samhotchkiss/jirabot/internal/config"
	"github.com/samhotchkiss/jirabot/internal/jira"
	"github.com/samhotchkiss/jirabot/internal/llm"
)

type fakeTracker struct {
	mu sync.Mutex

	searchResult jira.SearchResult
	searchErr    error
	users        []jira.User
	usersErr     error
	meta         jira.CreateMeta
	metaErr      error
	created      jira.CreatedIssue
	createErr    error
	updateErr    error
	deleteErr    error
	transitions  []jira.Transition
	transErr     error
	applyErr     error

	searches       []string
	userFetches    int
	createPayloads []jira.IssuePayload
	updates        map[string]jira.IssuePayload
	deletes        []string
	applied        []string
}

func (f *fakeTracker) Search(ctx context.Context, jql string, maxResults int) (jira.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches = append(f.searches, jql)
	return f.searchResult, f.searchErr
}

func (f *fakeTracker) AssignableUsers(ctx context.Context, projectKey string) ([]jira.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.userFetches++
	return f.users, f.usersErr
}

func (f *fakeTracker) CreateMeta(ctx context.Context, projectKey string) (jira.CreateMeta, error) {
	return f.meta, f.metaErr
}

func (f *fakeTracker) CreateIssue(ctx context.Context, payload jira.IssuePayload) (jira.CreatedIssue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createPayloads = append(f.createPayloads, payload)
	return f.created, f.createErr
}

func (f *fakeTracker) UpdateIssue(ctx context.Context, issueKey string, payload jira.IssuePayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updates == nil {
		f.updates = make(map[string]jira.IssuePayload)
	}
	f.updates[issueKey] = payload
	return f.updateErr
}

func (f *fakeTracker) DeleteIssue(ctx context.Context, issueKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, issueKey)
	return f.deleteErr
}

func (f *fakeTracker) Transitions(ctx context.Context, issueKey string) ([]jira.Transition, error) {
	return f.transitions, f.transErr
}

func (f *fakeTracker) ApplyTransition(ctx context.Context, issueKey, transitionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applied = append(f.applied, issueKey+":"+transitionID)
	return f.applyErr
}

// scriptedModel answers by prompt kind so one fake can drive the whole pipeline.
type scriptedModel struct {
	mu sync.Mutex

	classify     string
	classifyErr  error
	translate    string
	translateErr error
	format       string
	formatErr    error

	requests []llm.Request
}

var errModelDown = errors.New("model unavailable")

func (m *scriptedModel) Complete(ctx context.Context, req llm.Request) (string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	switch {
	case strings.HasPrefix(req.Prompt, "Analyze this user query"):
		return m.classify, m.classifyErr
	case strings.HasPrefix(req.Prompt, "You are a Jira Query Language"):
		return m.translate, m.translateErr
	case strings.HasPrefix(req.Prompt, "You are a helpful Jira assistant"):
		return m.format, m.formatErr
	default:
		return "", errors.New("unexpected prompt")
	}
}

func testSettings() Settings {
	return Settings{
		ProjectKey: "AAD",
		Domain:     "https://acme.atlassian.net",
		Vocabulary: config.DefaultVocabulary(),
	}
}

func issue(key, summary string) jira.Issue {
	return jira.Issue{Key: key, Fields: jira.IssueFields{Summary: summary}}
}
