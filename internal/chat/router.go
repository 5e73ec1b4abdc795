package chat

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/samhotchkiss/jirabot/internal/assistant"
	"github.com/samhotchkiss/jirabot/internal/jira"
)

const HelpText = `Hi! I can help you with Jira tickets. Here's what I can do:

**📖 Read Operations:**
• "show me bugs assigned to john"
• "what tasks are in progress?"
• "high priority issues"
• "find issues about login problems"

**✏️ Write Operations:**
• "create a bug for login issue assigned to sarah"
• "update AAD-123 priority to high"
• "mark AAD-456 as done"
• "delete the test issue"
• "assign the shopping cart bug to mike"

**🔧 Debug Commands:**
• "test connection" - Check if Jira connection is working

Ask me anything!`

// FailureText is sent when a transport cannot deliver a reply.
const FailureText = "Sorry, something went wrong while processing your request. Please try again."

// Handler answers one natural-language request. *assistant.Assistant
// satisfies it.
type Handler interface {
	Handle(ctx context.Context, text string) string
}

// Processor is a Handler that also reports the pipeline outcome.
type Processor interface {
	Handler
	Process(ctx context.Context, text string) assistant.Reply
}

// ConnectionChecker probes tracker access. *jira.Client satisfies it.
type ConnectionChecker interface {
	CheckConnection(ctx context.Context, projectKey string) jira.ConnectionReport
}

// Router is the shared entry point for every chat surface: it answers help
// and connection-test commands itself and hands everything else to Handler.
type Router struct {
	handler    Handler
	checker    ConnectionChecker
	projectKey string
}

func NewRouter(handler Handler, checker ConnectionChecker, projectKey string) *Router {
	return &Router{handler: handler, checker: checker, projectKey: projectKey}
}

// Reply returns the full reply text for one message.
func (r *Router) Reply(ctx context.Context, text string) string {
	return r.Answer(ctx, text).Text
}

// Answer routes one message like Reply and keeps the operation details when
// the handler is a Processor. Help and connection replies carry text only.
func (r *Router) Answer(ctx context.Context, text string) assistant.Reply {
	query := strings.TrimSpace(text)
	switch {
	case query == "":
		return assistant.Reply{Text: HelpText}
	case IsConnectionTest(query):
		return assistant.Reply{Text: r.ConnectionStatus(ctx)}
	}
	if processor, ok := r.handler.(Processor); ok {
		return processor.Process(ctx, query)
	}
	return assistant.Reply{Text: r.handler.Handle(ctx, query)}
}

// ConnectionStatus runs a connection probe and renders the result.
func (r *Router) ConnectionStatus(ctx context.Context) string {
	if r.checker == nil {
		return ConnectionReportText(jira.ConnectionReport{Error: "connection checks are not configured"}, r.projectKey)
	}
	report := r.checker.CheckConnection(ctx, r.projectKey)
	if !report.OK {
		log.Printf("chat: jira connection test failed: %s", report.Error)
	}
	return ConnectionReportText(report, r.projectKey)
}

// IsConnectionTest reports whether text asks for the connection probe.
func IsConnectionTest(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, "test connection") || strings.Contains(lower, "debug")
}

func ConnectionReportText(report jira.ConnectionReport, projectKey string) string {
	if report.OK {
		return fmt.Sprintf("✅ **Jira Connection Test Passed!**\n👤 Authenticated as: %s\n📁 Project: %s\n📊 Total issues in project: %d",
			report.User, report.Project, report.TotalIssues)
	}
	return fmt.Sprintf("❌ **Jira Connection Test Failed!**\nError: %s\n\nPlease check:\n"+
		"- JIRA_TOKEN is valid and not expired\n"+
		"- JIRA_EMAIL is correct\n"+
		"- JIRA_DOMAIN is accessible\n"+
		"- User has permission to access project %s", report.Error, projectKey)
}
