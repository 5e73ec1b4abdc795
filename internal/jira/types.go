package jira

import (
	"encoding/json"
	"fmt"
	"strings"
)

type User struct {
	AccountID    string `json:"accountId"`
	DisplayName  string `json:"displayName"`
	EmailAddress string `json:"emailAddress"`
	Active       bool   `json:"active,omitempty"`
}

type NamedField struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

type IssueFields struct {
	Summary     string          `json:"summary"`
	Status      *NamedField     `json:"status,omitempty"`
	Priority    *NamedField     `json:"priority,omitempty"`
	Assignee    *User           `json:"assignee,omitempty"`
	IssueType   *NamedField     `json:"issuetype,omitempty"`
	Created     string          `json:"created,omitempty"`
	Updated     string          `json:"updated,omitempty"`
	Description json.RawMessage `json:"description,omitempty"`
}

type Issue struct {
	ID     string      `json:"id,omitempty"`
	Key    string      `json:"key"`
	Fields IssueFields `json:"fields"`
}

type SearchResult struct {
	StartAt    int     `json:"startAt"`
	MaxResults int     `json:"maxResults"`
	Total      int     `json:"total"`
	Issues     []Issue `json:"issues"`
}

type Project struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
}

// IssueType is an issue type as reported by the creation metadata endpoint.
// Fields is keyed by field id (summary, description, assignee, priority, ...).
type IssueType struct {
	ID     string                     `json:"id"`
	Name   string                     `json:"name"`
	Fields map[string]json.RawMessage `json:"fields,omitempty"`
}

// HasField reports whether the issue type accepts the given field on create.
func (t IssueType) HasField(name string) bool {
	if t.Fields == nil {
		return false
	}
	_, ok := t.Fields[name]
	return ok
}

type CreateMetaProject struct {
	ID         string      `json:"id"`
	Key        string      `json:"key"`
	Name       string      `json:"name"`
	IssueTypes []IssueType `json:"issuetypes"`
}

type CreateMeta struct {
	Projects []CreateMetaProject `json:"projects"`
}

type CreatedIssue struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Self string `json:"self"`
}

type Transition struct {
	ID   string     `json:"id"`
	Name string     `json:"name"`
	To   NamedField `json:"to"`
}

type transitionsResponse struct {
	Transitions []Transition `json:"transitions"`
}

// IssuePayload is the body of create and update requests. Only keys present in
// Fields are sent, so absent fields keep their current values on update.
type IssuePayload struct {
	Fields map[string]any `json:"fields"`
}

func NewIssuePayload() IssuePayload {
	return IssuePayload{Fields: make(map[string]any)}
}

type KeyRef struct {
	Key string `json:"key"`
}

type IDRef struct {
	ID string `json:"id"`
}

type AccountRef struct {
	AccountID string `json:"accountId"`
}

// Document is the Atlassian rich-text document shape used for descriptions.
type Document struct {
	Type    string         `json:"type"`
	Version int            `json:"version"`
	Content []DocumentNode `json:"content"`
}

type DocumentNode struct {
	Type    string         `json:"type"`
	Text    string         `json:"text,omitempty"`
	Content []DocumentNode `json:"content,omitempty"`
}

// NewParagraphDocument wraps plain text in a single-paragraph document.
func NewParagraphDocument(text string) Document {
	return Document{
		Type:    "doc",
		Version: 1,
		Content: []DocumentNode{
			{
				Type:    "paragraph",
				Content: []DocumentNode{{Type: "text", Text: text}},
			},
		},
	}
}

// TrackerError is returned for any non-2xx response or transport failure.
// StatusCode is zero when no response was received.
type TrackerError struct {
	StatusCode int
	Message    string
}

func (e *TrackerError) Error() string {
	if e == nil {
		return "Jira API error"
	}
	message := strings.TrimSpace(e.Message)
	if e.StatusCode == 0 {
		if message == "" {
			return "Jira API error"
		}
		return fmt.Sprintf("Jira API error: %s", message)
	}
	if message == "" {
		return fmt.Sprintf("Jira API error (%d)", e.StatusCode)
	}
	return fmt.Sprintf("Jira API error (%d): %s", e.StatusCode, message)
}

func (e *TrackerError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}
