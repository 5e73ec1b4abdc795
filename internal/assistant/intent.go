package assistant

import (
	"encoding/json"
	"strings"

	"github.com/samhotchkiss/jirabot/internal/llm"
)

type Operation string

const (
	OperationRead    Operation = "READ"
	OperationCreate  Operation = "CREATE"
	OperationUpdate  Operation = "UPDATE"
	OperationDelete  Operation = "DELETE"
	OperationUnknown Operation = "UNKNOWN"
)

// IssueDetails holds the fields extracted from a write request. Empty strings
// mean "leave unchanged".
type IssueDetails struct {
	Type        string `json:"type"`
	Summary     string `json:"summary"`
	Description string `json:"description"`
	Assignee    string `json:"assignee"`
	Priority    string `json:"priority"`
	Status      string `json:"status"`
	Target      string `json:"target"`
}

func (d IssueDetails) normalized() IssueDetails {
	return IssueDetails{
		Type:        strings.TrimSpace(d.Type),
		Summary:     strings.TrimSpace(d.Summary),
		Description: strings.TrimSpace(d.Description),
		Assignee:    strings.TrimSpace(d.Assignee),
		Priority:    strings.TrimSpace(d.Priority),
		Status:      strings.TrimSpace(d.Status),
		Target:      strings.TrimSpace(d.Target),
	}
}

// Intent is the classified form of one utterance. RawOperation keeps the
// model's tag when Operation is OperationUnknown.
type Intent struct {
	Operation    Operation
	RawOperation string
	Details      IssueDetails
}

func ReadIntent() Intent {
	return Intent{Operation: OperationRead}
}

type intentJSON struct {
	Intent    string       `json:"intent"`
	Operation string       `json:"operation"`
	Details   IssueDetails `json:"details"`
}

// parseIntent decodes classifier output. ok is false when the output holds no
// usable JSON; callers fall back to a read.
func parseIntent(raw string) (Intent, bool) {
	payload, err := llm.ExtractJSON(raw)
	if err != nil {
		return Intent{}, false
	}

	var decoded intentJSON
	if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
		return Intent{}, false
	}

	if !strings.EqualFold(strings.TrimSpace(decoded.Intent), "WRITE") {
		return ReadIntent(), true
	}

	rawOperation := strings.TrimSpace(decoded.Operation)
	intent := Intent{
		Operation:    OperationUnknown,
		RawOperation: rawOperation,
		Details:      decoded.Details.normalized(),
	}
	switch Operation(strings.ToUpper(rawOperation)) {
	case OperationCreate:
		intent.Operation = OperationCreate
	case OperationUpdate:
		intent.Operation = OperationUpdate
	case OperationDelete:
		intent.Operation = OperationDelete
	}
	return intent, true
}
