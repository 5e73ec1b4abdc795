package assistant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samhotchkiss/jirabot/internal/jira"
)

func sampleIssues() []jira.Issue {
	return []jira.Issue{
		{
			Key: "AAD-1",
			Fields: jira.IssueFields{
				Summary:   "Login page 500s",
				IssueType: &jira.NamedField{Name: "Bug"},
				Status:    &jira.NamedField{Name: "In Progress"},
				Priority:  &jira.NamedField{Name: "High"},
				Assignee:  &jira.User{DisplayName: "Sarah Connor"},
			},
		},
		{
			Key: "AAD-2",
			Fields: jira.IssueFields{
				Summary:   "Write docs",
				IssueType: &jira.NamedField{Name: "Task"},
				Status:    &jira.NamedField{Name: "To Do"},
			},
		},
	}
}

const sampleListing = "AAD-1: Login page 500s\n" +
	"   Type: Bug | Status: In Progress | Priority: High | Assignee: Sarah Connor\n\n" +
	"AAD-2: Write docs\n" +
	"   Type: Task | Status: To Do | Priority: No Priority | Assignee: Unassigned"

func TestFormatEmptyResults(t *testing.T) {
	model := &scriptedModel{}
	formatter := NewFormatter(model, "AAD")

	got := formatter.Format(context.Background(), "bugs assigned to nobody", nil)
	assert.Equal(t, `I couldn't find any issues matching "bugs assigned to nobody" in the AAD project.`, got)
	assert.Empty(t, model.requests)
}

func TestRenderIssues(t *testing.T) {
	assert.Equal(t, sampleListing, RenderIssues(sampleIssues()))
}

func TestFormatUsesModelSummary(t *testing.T) {
	model := &scriptedModel{format: "  Two issues: one bug in progress and a docs task.  "}
	formatter := NewFormatter(model, "AAD")

	got := formatter.Format(context.Background(), "what's open", sampleIssues())
	assert.Equal(t, "Two issues: one bug in progress and a docs task.", got)

	require.Len(t, model.requests, 1)
	assert.Equal(t, 500, model.requests[0].MaxTokens)
	assert.InDelta(t, 0.3, model.requests[0].Temperature, 0.0001)
	assert.Contains(t, model.requests[0].Prompt, `The user asked: "what's open"`)
	assert.Contains(t, model.requests[0].Prompt, sampleListing)
}

func TestFormatFallsBackToPlainListing(t *testing.T) {
	for name, model := range map[string]*scriptedModel{
		"model error": {formatErr: errModelDown},
		"empty reply": {format: "   "},
	} {
		t.Run(name, func(t *testing.T) {
			got := NewFormatter(model, "AAD").Format(context.Background(), "q", sampleIssues())
			assert.Equal(t, "Found 2 issues:\n\n"+sampleListing, got)
		})
	}
}
