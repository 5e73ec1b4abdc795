package assistant

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/samhotchkiss/jirabot/internal/jira"
)

const (
	defaultSummary     = "New Issue"
	defaultDescription = "No description provided"
)

var (
	ErrIssueNotFound      = errors.New("issue not found")
	ErrProjectUnavailable = errors.New("project not found or no permission to create issues")
	ErrNothingToUpdate    = errors.New("no fields or status to change")
	ErrUserNotFound       = errors.New("user not found")
)

// UserNotFoundError names an assignee that matched no assignable user.
type UserNotFoundError struct {
	Name string
}

func (e *UserNotFoundError) Error() string {
	return fmt.Sprintf("no assignable user matches %q", e.Name)
}

func (e *UserNotFoundError) Is(target error) bool {
	return target == ErrUserNotFound
}

// UpdateResult reports an update. Transitioned is only meaningful when
// StatusRequested is set. UnresolvedAssignee holds an assignee that matched
// nobody while other changes still went through.
type UpdateResult struct {
	Key                string
	StatusRequested    string
	Transitioned       bool
	UnresolvedAssignee string
}

type Executor struct {
	tracker    Tracker
	resolver   *Resolver
	projectKey string
}

func NewExecutor(tracker Tracker, resolver *Resolver, projectKey string) *Executor {
	return &Executor{tracker: tracker, resolver: resolver, projectKey: projectKey}
}

// Create files a new issue in the project. Assignable users and creation
// metadata are fetched concurrently; a failed user fetch only drops the
// assignee.
func (e *Executor) Create(ctx context.Context, details IssueDetails) (jira.CreatedIssue, error) {
	details = details.normalized()

	var (
		users []jira.User
		meta  jira.CreateMeta
	)
	group, groupCtx := errgroup.WithContext(ctx)
	if details.Assignee != "" {
		group.Go(func() error {
			users = e.fetchUsers(groupCtx)
			return nil
		})
	}
	group.Go(func() error {
		fetched, err := e.tracker.CreateMeta(groupCtx, e.projectKey)
		if err != nil {
			return fmt.Errorf("fetch creation metadata: %w", err)
		}
		meta = fetched
		return nil
	})
	if err := group.Wait(); err != nil {
		return jira.CreatedIssue{}, err
	}

	project, ok := e.metaProject(meta)
	if !ok || len(project.IssueTypes) == 0 {
		return jira.CreatedIssue{}, ErrProjectUnavailable
	}
	issueType := selectIssueType(project.IssueTypes, details.Type)
	log.Printf("assistant: creating %s issue in %s", issueType.Name, e.projectKey)

	payload := jira.NewIssuePayload()
	payload.Fields["project"] = jira.KeyRef{Key: e.projectKey}
	payload.Fields["summary"] = firstNonEmpty(details.Summary, defaultSummary)
	payload.Fields["issuetype"] = jira.IDRef{ID: issueType.ID}

	if issueType.HasField("description") {
		payload.Fields["description"] = jira.NewParagraphDocument(firstNonEmpty(details.Description, defaultDescription))
	}
	if details.Assignee != "" && issueType.HasField("assignee") {
		if user, ok := ResolveUser(details.Assignee, users); ok {
			payload.Fields["assignee"] = jira.AccountRef{AccountID: user.AccountID}
		} else {
			log.Printf("assistant: no assignable user matches %q, leaving unassigned", details.Assignee)
		}
	}
	if details.Priority != "" && issueType.HasField("priority") {
		if id, ok := PriorityID(details.Priority); ok {
			payload.Fields["priority"] = jira.IDRef{ID: id}
		}
	}

	created, err := e.tracker.CreateIssue(ctx, payload)
	if err != nil {
		return jira.CreatedIssue{}, err
	}
	return created, nil
}

// Update applies the present fields of details to the target issue, then
// moves it to details.Status when one is given. A failed transition is
// reported in the result, not as an error. An assignee that matches nobody
// returns a *UserNotFoundError when it was the only requested change.
func (e *Executor) Update(ctx context.Context, target string, details IssueDetails) (UpdateResult, error) {
	details = details.normalized()

	key, found, err := e.resolver.ResolveIssue(ctx, target)
	if err != nil {
		return UpdateResult{}, err
	}
	if !found {
		return UpdateResult{}, ErrIssueNotFound
	}

	var unresolved string
	payload := jira.NewIssuePayload()
	if details.Summary != "" {
		payload.Fields["summary"] = details.Summary
	}
	if details.Description != "" {
		payload.Fields["description"] = jira.NewParagraphDocument(details.Description)
	}
	if details.Assignee != "" {
		if user, ok := ResolveUser(details.Assignee, e.fetchUsers(ctx)); ok {
			payload.Fields["assignee"] = jira.AccountRef{AccountID: user.AccountID}
		} else {
			log.Printf("assistant: no assignable user matches %q, assignee unchanged", details.Assignee)
			unresolved = details.Assignee
		}
	}
	if details.Priority != "" {
		if id, ok := PriorityID(details.Priority); ok {
			payload.Fields["priority"] = jira.IDRef{ID: id}
		}
	}

	if len(payload.Fields) == 0 && details.Status == "" {
		if unresolved != "" {
			return UpdateResult{}, &UserNotFoundError{Name: unresolved}
		}
		return UpdateResult{}, ErrNothingToUpdate
	}

	if len(payload.Fields) > 0 {
		if err := e.tracker.UpdateIssue(ctx, key, payload); err != nil {
			return UpdateResult{}, err
		}
	}

	result := UpdateResult{Key: key, StatusRequested: details.Status, UnresolvedAssignee: unresolved}
	if details.Status != "" {
		result.Transitioned = e.Transition(ctx, key, details.Status)
	}
	return result, nil
}

// Transition moves an issue to the first transition whose name contains
// status or whose destination equals it. Any failure returns false.
func (e *Executor) Transition(ctx context.Context, key, status string) bool {
	wanted := strings.ToLower(strings.TrimSpace(status))
	if wanted == "" {
		return false
	}

	transitions, err := e.tracker.Transitions(ctx, key)
	if err != nil {
		log.Printf("assistant: list transitions for %s: %v", key, err)
		return false
	}

	for _, transition := range transitions {
		if !strings.Contains(strings.ToLower(transition.Name), wanted) &&
			strings.ToLower(transition.To.Name) != wanted {
			continue
		}
		if err := e.tracker.ApplyTransition(ctx, key, transition.ID); err != nil {
			log.Printf("assistant: apply transition %s to %s: %v", transition.Name, key, err)
			return false
		}
		return true
	}

	log.Printf("assistant: no transition of %s matches %q", key, status)
	return false
}

// Delete removes the target issue and returns its key.
func (e *Executor) Delete(ctx context.Context, target string) (string, error) {
	key, found, err := e.resolver.ResolveIssue(ctx, target)
	if err != nil {
		return "", err
	}
	if !found {
		return "", ErrIssueNotFound
	}
	if err := e.tracker.DeleteIssue(ctx, key); err != nil {
		return "", err
	}
	return key, nil
}

func (e *Executor) fetchUsers(ctx context.Context) []jira.User {
	users, err := e.tracker.AssignableUsers(ctx, e.projectKey)
	if err != nil {
		log.Printf("assistant: fetch assignable users: %v", err)
		return nil
	}
	return users
}

func (e *Executor) metaProject(meta jira.CreateMeta) (jira.CreateMetaProject, bool) {
	for _, project := range meta.Projects {
		if strings.EqualFold(project.Key, e.projectKey) {
			return project, true
		}
	}
	if len(meta.Projects) > 0 {
		return meta.Projects[0], true
	}
	return jira.CreateMetaProject{}, false
}

func selectIssueType(types []jira.IssueType, wanted string) jira.IssueType {
	if wanted != "" {
		for _, issueType := range types {
			if strings.EqualFold(issueType.Name, wanted) {
				return issueType
			}
		}
	}
	return types[0]
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
