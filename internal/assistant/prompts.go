package assistant

import (
	"fmt"
	"strings"

	"github.com/samhotchkiss/jirabot/internal/config"
)

const (
	translateMaxTokens   = 150
	translateTemperature = 0.1
	classifyMaxTokens    = 300
	classifyTemperature  = 0.1
	formatMaxTokens      = 500
	formatTemperature    = 0.3
)

func quoteValues(values []string) string {
	quoted := make([]string, 0, len(values))
	for _, value := range values {
		quoted = append(quoted, fmt.Sprintf("%q", value))
	}
	return strings.Join(quoted, ", ")
}

func buildTranslatePrompt(projectKey string, vocabulary config.Vocabulary, query string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a Jira Query Language (JQL) expert. Convert the following natural language query into a proper JQL query for project %q.\n\n", projectKey)
	fmt.Fprintf(&b, "User Query: %q\n\n", query)
	b.WriteString("Guidelines:\n")
	fmt.Fprintf(&b, "- Use project = %q in all queries\n", projectKey)
	b.WriteString("- Common fields: assignee, reporter, status, priority, type, summary, description, created, updated\n")
	fmt.Fprintf(&b, "- Status values: %s\n", quoteValues(vocabulary.Statuses))
	fmt.Fprintf(&b, "- Priority values: %s\n", quoteValues(vocabulary.Priorities))
	fmt.Fprintf(&b, "- Issue types: %s\n", strings.Join(vocabulary.IssueTypes, ", "))
	b.WriteString("- For fuzzy matching on names/summaries, use ~ operator or contains\n")
	b.WriteString("- Keep queries focused and relevant\n")
	b.WriteString("- If asking about specific people, use assignee or reporter fields\n")
	b.WriteString("- For date ranges, use created >= \"YYYY-MM-DD\" format\n\n")
	b.WriteString("Examples:\n")
	fmt.Fprintf(&b, "- \"bugs assigned to john\" → project = %q AND assignee ~ \"john\" AND type = Bug\n", projectKey)
	fmt.Fprintf(&b, "- \"high priority tasks\" → project = %q AND priority = High AND type in (Task, Story)\n", projectKey)
	fmt.Fprintf(&b, "- \"what's in progress\" → project = %q AND status = \"In Progress\"\n\n", projectKey)
	b.WriteString("Return ONLY the JQL query, no explanations:")
	return b.String()
}

func buildClassifyPrompt(vocabulary config.Vocabulary, query string) string {
	var b strings.Builder
	b.WriteString("Analyze this user query and determine if it's a READ operation (searching/viewing) or WRITE operation (creating/updating/deleting).\n\n")
	fmt.Fprintf(&b, "User Query: %q\n\n", query)
	b.WriteString("WRITE operations keywords: create, add, make, new, update, edit, modify, change, delete, remove, close, resolve, assign, move, set status, mark as\n")
	b.WriteString("READ operations keywords: show, find, search, list, what, get, see, display, tell me\n\n")
	b.WriteString("Also extract key information if it's a WRITE operation:\n")
	b.WriteString("- Operation type: CREATE, UPDATE, or DELETE\n")
	b.WriteString("- Issue details: type, summary, description, assignee, priority, status\n")
	b.WriteString("- Target issue: if updating/deleting specific issue\n\n")
	b.WriteString("Respond in this JSON format:\n")
	b.WriteString("{\n")
	b.WriteString("  \"intent\": \"READ\" or \"WRITE\",\n")
	b.WriteString("  \"operation\": \"CREATE|UPDATE|DELETE\" (only for WRITE),\n")
	b.WriteString("  \"details\": {\n")
	fmt.Fprintf(&b, "    \"type\": %q,\n", strings.Join(vocabulary.IssueTypes, "|"))
	b.WriteString("    \"summary\": \"extracted summary\",\n")
	b.WriteString("    \"description\": \"extracted description\",\n")
	b.WriteString("    \"assignee\": \"extracted assignee name\",\n")
	fmt.Fprintf(&b, "    \"priority\": %q,\n", strings.Join(vocabulary.Priorities, "|"))
	fmt.Fprintf(&b, "    \"status\": %q,\n", strings.Join(vocabulary.Statuses, "|"))
	b.WriteString("    \"target\": \"issue key or description for updates/deletes\"\n")
	b.WriteString("  }\n")
	b.WriteString("}")
	return b.String()
}

func buildFormatPrompt(query, issuesText string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a helpful Jira assistant. The user asked: %q\n\n", query)
	b.WriteString("Here are the Jira results:\n")
	b.WriteString(issuesText)
	b.WriteString("\n\nPlease provide a natural, conversational summary of these results. Be concise but informative. Group similar items if relevant, highlight important information, and make it easy to read. If there are many results, summarize the key patterns.\n\n")
	b.WriteString("Format your response in a friendly, professional tone as if you're a team member helping out.")
	return b.String()
}
