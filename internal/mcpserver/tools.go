package mcpserver

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/samhotchkiss/jirabot/internal/chat"
	"github.com/samhotchkiss/jirabot/internal/metrics"
)

const maxAskLength = 4000

// AskTool handles the jira_ask MCP tool.
type AskTool struct {
	replier Replier
}

func NewAskTool(replier Replier) *AskTool {
	return &AskTool{replier: replier}
}

func (t *AskTool) Definition() mcp.Tool {
	return mcp.NewTool("jira_ask",
		mcp.WithDescription(
			"Ask the Jira assistant anything in plain English. It can search issues, "+
				"create, update, transition and delete them, and answers like the chat bot does.",
		),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description(`The request, e.g. "high priority bugs assigned to sarah" or "mark AAD-12 as done"`),
		),
	)
}

func (t *AskTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := strings.TrimSpace(req.GetString("text", ""))
	if text == "" {
		return mcp.NewToolResultError("'text' is required"), nil
	}
	if len([]rune(text)) > maxAskLength {
		return mcp.NewToolResultError(fmt.Sprintf("'text' must be at most %d characters", maxAskLength)), nil
	}
	if t.replier == nil {
		return mcp.NewToolResultError("assistant is not configured"), nil
	}
	return mcp.NewToolResultText(t.replier.Reply(ctx, text)), nil
}

// ConnectionTool handles the jira_check_connection MCP tool.
type ConnectionTool struct {
	checker    chat.ConnectionChecker
	projectKey string
}

func NewConnectionTool(checker chat.ConnectionChecker, projectKey string) *ConnectionTool {
	return &ConnectionTool{checker: checker, projectKey: projectKey}
}

func (t *ConnectionTool) Definition() mcp.Tool {
	return mcp.NewTool("jira_check_connection",
		mcp.WithDescription("Verify Jira credentials, project access and search access."),
	)
}

func (t *ConnectionTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if t.checker == nil {
		return mcp.NewToolResultError("connection checks are not configured"), nil
	}
	report := t.checker.CheckConnection(ctx, t.projectKey)
	text := chat.ConnectionReportText(report, t.projectKey)
	if !report.OK {
		return mcp.NewToolResultError(text), nil
	}
	return mcp.NewToolResultText(text), nil
}

// StatsTool handles the jira_bot_stats MCP tool.
type StatsTool struct{}

func NewStatsTool() *StatsTool {
	return &StatsTool{}
}

func (t *StatsTool) Definition() mcp.Tool {
	return mcp.NewTool("jira_bot_stats",
		mcp.WithDescription("Show handled-request counters per operation and upstream call counters since start."),
	)
}

func (t *StatsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(renderSnapshot(metrics.SnapshotNow())), nil
}

func renderSnapshot(snapshot metrics.Snapshot) string {
	var sb strings.Builder
	sb.WriteString("## Jira Bot Statistics\n\n")

	sb.WriteString("### Operations\n")
	if len(snapshot.Operations) == 0 {
		sb.WriteString("- none yet\n")
	}
	for _, name := range sortedKeys(snapshot.Operations) {
		op := snapshot.Operations[name]
		sb.WriteString(fmt.Sprintf("- **%s**: %d handled (%d ok, %d not found, %d failed)\n",
			name, op.HandledTotal, op.SuccessTotal, op.NotFoundTotal, op.FailureTotal))
	}

	sb.WriteString("\n### Upstreams\n")
	if len(snapshot.Upstreams) == 0 {
		sb.WriteString("- none yet\n")
	}
	for _, name := range sortedKeys(snapshot.Upstreams) {
		up := snapshot.Upstreams[name]
		sb.WriteString(fmt.Sprintf("- **%s**: %d calls, %d failed, last status %d\n",
			name, up.CallsTotal, up.FailureTotal, up.LastStatus))
	}
	return sb.String()
}

func sortedKeys[V any](values map[string]V) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
