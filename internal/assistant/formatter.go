package assistant

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/samhotchkiss/jirabot/internal/jira"
	"github.com/samhotchkiss/jirabot/internal/llm"
)

type Formatter struct {
	model      llm.Completer
	projectKey string
}

func NewFormatter(model llm.Completer, projectKey string) *Formatter {
	return &Formatter{model: model, projectKey: projectKey}
}

// Format summarizes search results for the user. When the model fails it
// returns the plain listing instead.
func (f *Formatter) Format(ctx context.Context, query string, issues []jira.Issue) string {
	if len(issues) == 0 {
		return fmt.Sprintf("I couldn't find any issues matching \"%s\" in the %s project.", query, f.projectKey)
	}

	listing := RenderIssues(issues)
	reply, err := f.model.Complete(ctx, llm.Request{
		Prompt:      buildFormatPrompt(query, listing),
		MaxTokens:   formatMaxTokens,
		Temperature: formatTemperature,
	})
	if err != nil {
		log.Printf("assistant: formatting results failed, using plain listing: %v", err)
		return plainListing(issues, listing)
	}
	if reply = strings.TrimSpace(reply); reply == "" {
		return plainListing(issues, listing)
	}
	return reply
}

// RenderIssues renders each issue as a key/summary line followed by a detail
// line, separated by blank lines.
func RenderIssues(issues []jira.Issue) string {
	blocks := make([]string, 0, len(issues))
	for _, issue := range issues {
		fields := issue.Fields
		blocks = append(blocks, fmt.Sprintf(
			"%s: %s\n   Type: %s | Status: %s | Priority: %s | Assignee: %s",
			issue.Key,
			fields.Summary,
			namedOr(fields.IssueType, "Unknown"),
			namedOr(fields.Status, "Unknown"),
			namedOr(fields.Priority, "No Priority"),
			assigneeName(fields.Assignee),
		))
	}
	return strings.Join(blocks, "\n\n")
}

func plainListing(issues []jira.Issue, listing string) string {
	return fmt.Sprintf("Found %d issues:\n\n%s", len(issues), listing)
}

func namedOr(field *jira.NamedField, fallback string) string {
	if field == nil || strings.TrimSpace(field.Name) == "" {
		return fallback
	}
	return field.Name
}

func assigneeName(user *jira.User) string {
	if user == nil || strings.TrimSpace(user.DisplayName) == "" {
		return "Unassigned"
	}
	return user.DisplayName
}
