package assistant

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/samhotchkiss/jirabot/internal/jira"
)

var issueKeyPattern = regexp.MustCompile(`^[A-Z]+-\d+$`)

// IsIssueKey reports whether text is already a tracker issue key like AAD-123.
func IsIssueKey(text string) bool {
	return issueKeyPattern.MatchString(text)
}

// ResolveUser picks a candidate for a free-text user reference. Exact matches
// on display name, email or account id win over substring matches on display
// name or email; within a tier the first candidate in tracker order wins.
func ResolveUser(text string, candidates []jira.User) (jira.User, bool) {
	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" {
		return jira.User{}, false
	}

	for _, user := range candidates {
		if strings.ToLower(user.DisplayName) == needle ||
			strings.ToLower(user.EmailAddress) == needle ||
			strings.ToLower(user.AccountID) == needle {
			return user, true
		}
	}
	for _, user := range candidates {
		if strings.Contains(strings.ToLower(user.DisplayName), needle) ||
			strings.Contains(strings.ToLower(user.EmailAddress), needle) {
			return user, true
		}
	}
	return jira.User{}, false
}

type Resolver struct {
	tracker    Tracker
	projectKey string
}

func NewResolver(tracker Tracker, projectKey string) *Resolver {
	return &Resolver{tracker: tracker, projectKey: projectKey}
}

// ResolveIssue returns the key an issue reference points at. Keys pass through
// without a search; anything else becomes a summary search in the project.
// found is false when nothing matched. Tracker failures are returned as errors.
func (r *Resolver) ResolveIssue(ctx context.Context, target string) (key string, found bool, err error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return "", false, nil
	}
	if IsIssueKey(target) {
		return target, true, nil
	}

	jql := fmt.Sprintf("project = %q AND summary ~ \"%s\"", r.projectKey, escapeJQLString(target))
	result, err := r.tracker.Search(ctx, jql, jira.MaxSearchResults)
	if err != nil {
		return "", false, fmt.Errorf("search issues matching %q: %w", target, err)
	}
	if len(result.Issues) == 0 {
		return "", false, nil
	}
	return result.Issues[0].Key, true, nil
}

func escapeJQLString(text string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return replacer.Replace(text)
}
