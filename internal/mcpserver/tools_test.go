package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samhotchkiss/jirabot/internal/jira"
	"github.com/samhotchkiss/jirabot/internal/metrics"
)

type stubReplier struct {
	calls []string
}

func (s *stubReplier) Reply(ctx context.Context, text string) string {
	s.calls = append(s.calls, text)
	return "Found 1 issues:\n\n**AAD-1**: Login broken"
}

type stubChecker struct {
	report jira.ConnectionReport
}

func (c stubChecker) CheckConnection(ctx context.Context, projectKey string) jira.ConnectionReport {
	return c.report
}

func makeReq(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(r *mcp.CallToolResult) string {
	if r == nil {
		return ""
	}
	for _, c := range r.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestAskToolDefinition(t *testing.T) {
	def := NewAskTool(nil).Definition()

	assert.Equal(t, "jira_ask", def.Name)
	assert.Contains(t, def.InputSchema.Properties, "text")
	assert.Contains(t, def.InputSchema.Required, "text")
}

func TestAskToolForwardsTrimmedText(t *testing.T) {
	replier := &stubReplier{}
	tool := NewAskTool(replier)

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{"text": "  open bugs  "}))
	require.NoError(t, err)
	require.False(t, result.IsError)
	assert.Equal(t, []string{"open bugs"}, replier.calls)
	assert.Contains(t, resultText(result), "AAD-1")
}

func TestAskToolValidatesText(t *testing.T) {
	replier := &stubReplier{}
	tool := NewAskTool(replier)

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(result), "'text' is required")

	result, err = tool.Handle(context.Background(), makeReq(map[string]interface{}{"text": strings.Repeat("a", maxAskLength+1)}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Empty(t, replier.calls)
}

func TestConnectionToolReportsFailureAsError(t *testing.T) {
	tool := NewConnectionTool(stubChecker{report: jira.ConnectionReport{Error: "Jira API error (401): Unauthorized"}}, "AAD")

	result, err := tool.Handle(context.Background(), makeReq(nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(result), "Jira Connection Test Failed")
	assert.Contains(t, resultText(result), "access project AAD")
}

func TestConnectionToolReportsSuccess(t *testing.T) {
	tool := NewConnectionTool(stubChecker{report: jira.ConnectionReport{OK: true, User: "Jira Bot", Project: "Apps", TotalIssues: 4}}, "AAD")

	result, err := tool.Handle(context.Background(), makeReq(nil))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Contains(t, resultText(result), "Authenticated as: Jira Bot")
}

func TestStatsToolRendersCounters(t *testing.T) {
	metrics.ResetForTests()
	metrics.RecordQuery("READ", metrics.OutcomeSuccess, time.Millisecond)
	metrics.RecordQuery("DELETE", metrics.OutcomeNotFound, time.Millisecond)
	metrics.RecordUpstreamCall("jira", 200, false, time.Millisecond)

	result, err := NewStatsTool().Handle(context.Background(), makeReq(nil))
	require.NoError(t, err)

	text := resultText(result)
	assert.Contains(t, text, "- **read**: 1 handled (1 ok, 0 not found, 0 failed)")
	assert.Contains(t, text, "- **delete**: 1 handled (0 ok, 1 not found, 0 failed)")
	assert.Contains(t, text, "- **jira**: 1 calls, 0 failed, last status 200")
	assert.Less(t, strings.Index(text, "**delete**"), strings.Index(text, "**read**"))
}

func TestStatsToolWithoutTraffic(t *testing.T) {
	metrics.ResetForTests()

	result, err := NewStatsTool().Handle(context.Background(), makeReq(nil))
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(resultText(result), "- none yet"))
}

func TestNewRegistersAllTools(t *testing.T) {
	s := New(Dependencies{Replier: &stubReplier{}, ProjectKey: "AAD"})

	response := s.HandleMessage(context.Background(), json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	raw, err := json.Marshal(response)
	require.NoError(t, err)

	for _, name := range []string{"jira_ask", "jira_check_connection", "jira_bot_stats"} {
		assert.Contains(t, string(raw), `"`+name+`"`)
	}
}
