package assistant

import (
	"context"

	"github.com/samhotchkiss/jirabot/internal/jira"
)

// Tracker is the slice of the Jira gateway the pipeline uses. *jira.Client
// satisfies it.
type Tracker interface {
	Search(ctx context.Context, jql string, maxResults int) (jira.SearchResult, error)
	AssignableUsers(ctx context.Context, projectKey string) ([]jira.User, error)
	CreateMeta(ctx context.Context, projectKey string) (jira.CreateMeta, error)
	CreateIssue(ctx context.Context, payload jira.IssuePayload) (jira.CreatedIssue, error)
	UpdateIssue(ctx context.Context, issueKey string, payload jira.IssuePayload) error
	DeleteIssue(ctx context.Context, issueKey string) error
	Transitions(ctx context.Context, issueKey string) ([]jira.Transition, error)
	ApplyTransition(ctx context.Context, issueKey, transitionID string) error
}

var _ Tracker = (*jira.Client)(nil)
