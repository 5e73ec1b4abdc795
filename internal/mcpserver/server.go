// Package mcpserver exposes the bot as MCP tools over stdio, so editor agents
// can ask Jira questions the same way chat users do.
package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"github.com/samhotchkiss/jirabot/internal/chat"
)

// Replier answers one chat message. *chat.Router satisfies it.
type Replier interface {
	Reply(ctx context.Context, text string) string
}

type Dependencies struct {
	Replier    Replier
	Checker    chat.ConnectionChecker
	ProjectKey string
	Version    string
}

// New registers every tool on a fresh MCP server.
func New(deps Dependencies) *server.MCPServer {
	version := deps.Version
	if version == "" {
		version = "dev"
	}

	s := server.NewMCPServer(
		"jirabot",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions(deps.ProjectKey)),
	)

	askTool := NewAskTool(deps.Replier)
	s.AddTool(askTool.Definition(), askTool.Handle)

	connectionTool := NewConnectionTool(deps.Checker, deps.ProjectKey)
	s.AddTool(connectionTool.Definition(), connectionTool.Handle)

	statsTool := NewStatsTool()
	s.AddTool(statsTool.Definition(), statsTool.Handle)

	return s
}

func instructions(projectKey string) string {
	return "Jira assistant for project " + projectKey + ". Use jira_ask for questions and changes " +
		"written in plain English, jira_check_connection to verify credentials, and jira_bot_stats " +
		"for handled-request counters."
}
