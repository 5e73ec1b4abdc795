package assistant

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samhotchkiss/jirabot/internal/config"
)

func TestTranslateAlwaysCarriesProjectFilter(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  string
	}{
		{
			name:  "already filtered",
			reply: `project = "AAD" AND status = "In Progress"`,
			want:  `project = "AAD" AND (project = "AAD" AND status = "In Progress")`,
		},
		{
			name:  "unquoted filter",
			reply: `project = AAD AND type = Bug`,
			want:  `project = "AAD" AND (project = AAD AND type = Bug)`,
		},
		{
			name:  "missing filter",
			reply: `assignee ~ "john" OR reporter ~ "john"`,
			want:  `project = "AAD" AND (assignee ~ "john" OR reporter ~ "john")`,
		},
		{
			name:  "missing filter with order",
			reply: `priority = High ORDER BY created DESC`,
			want:  `project = "AAD" AND (priority = High) ORDER BY created DESC`,
		},
		{
			name:  "other project is narrowed",
			reply: `project = "OPS" AND status = Done`,
			want:  `project = "AAD" AND (project = "OPS" AND status = Done)`,
		},
		{
			name:  "or branch into another project",
			reply: `project = AAD OR project = XYZ`,
			want:  `project = "AAD" AND (project = AAD OR project = XYZ)`,
		},
		{
			name:  "or branch without project",
			reply: `project = "AAD" OR assignee = currentUser() ORDER BY updated DESC`,
			want:  `project = "AAD" AND (project = "AAD" OR assignee = currentUser()) ORDER BY updated DESC`,
		},
		{
			name:  "negated filter",
			reply: `NOT project = AAD`,
			want:  `project = "AAD" AND (NOT project = AAD)`,
		},
		{
			name:  "prefix key is not a match",
			reply: `project = AADX`,
			want:  `project = "AAD" AND (project = AADX)`,
		},
		{
			name:  "fenced",
			reply: "```jql\nproject = \"AAD\" AND priority = High\n```",
			want:  `project = "AAD" AND (project = "AAD" AND priority = High)`,
		},
		{
			name:  "order only",
			reply: `ORDER BY updated DESC`,
			want:  `project = "AAD" ORDER BY updated DESC`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			model := &scriptedModel{translate: tc.reply}
			translator := NewTranslator(model, "AAD", config.DefaultVocabulary())

			jql, err := translator.Translate(context.Background(), "anything")
			require.NoError(t, err)
			assert.Equal(t, tc.want, jql)
			assert.True(t, strings.HasPrefix(jql, `project = "AAD" `))
		})
	}
}

func TestTranslatePromptAndParameters(t *testing.T) {
	vocabulary := config.Vocabulary{
		Statuses:   []string{"Open", "Closed"},
		Priorities: []string{"P1", "P2"},
		IssueTypes: []string{"Bug", "Chore"},
	}
	model := &scriptedModel{translate: `project = "AAD"`}
	translator := NewTranslator(model, "AAD", vocabulary)

	_, err := translator.Translate(context.Background(), "open chores")
	require.NoError(t, err)
	require.Len(t, model.requests, 1)

	req := model.requests[0]
	assert.Equal(t, 150, req.MaxTokens)
	assert.InDelta(t, 0.1, req.Temperature, 0.0001)
	assert.Contains(t, req.Prompt, `Use project = "AAD" in all queries`)
	assert.Contains(t, req.Prompt, `Status values: "Open", "Closed"`)
	assert.Contains(t, req.Prompt, `Priority values: "P1", "P2"`)
	assert.Contains(t, req.Prompt, `Issue types: Bug, Chore`)
	assert.Contains(t, req.Prompt, `User Query: "open chores"`)
	assert.Contains(t, req.Prompt, "Return ONLY the JQL query")
}

func TestTranslatePropagatesModelFailure(t *testing.T) {
	model := &scriptedModel{translateErr: errModelDown}
	translator := NewTranslator(model, "AAD", config.DefaultVocabulary())

	_, err := translator.Translate(context.Background(), "bugs")
	require.ErrorIs(t, err, errModelDown)
	assert.Len(t, model.requests, 1)
}

func TestTranslateRejectsEmptyReply(t *testing.T) {
	model := &scriptedModel{translate: "``` ```"}
	translator := NewTranslator(model, "AAD", config.DefaultVocabulary())

	_, err := translator.Translate(context.Background(), "bugs")
	require.ErrorIs(t, err, ErrEmptyQuery)
}
