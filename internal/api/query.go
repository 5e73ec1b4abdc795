package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/samhotchkiss/jirabot/internal/assistant"
	"github.com/samhotchkiss/jirabot/internal/chat"
	"github.com/samhotchkiss/jirabot/internal/metrics"
	authmw "github.com/samhotchkiss/jirabot/internal/middleware"
	"github.com/samhotchkiss/jirabot/internal/ws"
)

const (
	maxQueryBodyBytes = 64 << 10
	maxQueryLength    = 4000
)

// Processor handles one natural-language request. *assistant.Assistant
// satisfies it.
type Processor = chat.Processor

type errorResponse struct {
	Error string `json:"error"`
}

type queryRequest struct {
	Text string `json:"text"`
}

type queryResponse struct {
	Reply     string              `json:"reply"`
	Chunks    []string            `json:"chunks"`
	Operation assistant.Operation `json:"operation,omitempty"`
	Outcome   metrics.Outcome     `json:"outcome,omitempty"`
	IssueKey  string              `json:"issue_key,omitempty"`
	JQL       string              `json:"jql,omitempty"`
}

// QueryHandler serves the JSON chat endpoints.
type QueryHandler struct {
	Router     *chat.Router
	Checker    chat.ConnectionChecker
	ProjectKey string
	Hub        *ws.Hub
}

// Query answers POST /api/query with the same reply a chat user would get,
// plus the classified operation and any issue key or JQL involved.
func (h *QueryHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxQueryBodyBytes))
	if err := decoder.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			sendJSON(w, http.StatusBadRequest, errorResponse{Error: "request body is required"})
			return
		}
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON"})
		return
	}

	text := strings.TrimSpace(req.Text)
	if utf8.RuneCountInString(text) > maxQueryLength {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "query too long"})
		return
	}

	reply := h.Router.Answer(r.Context(), text)
	resp := queryResponse{
		Reply:     reply.Text,
		Chunks:    chat.Split(reply.Text),
		Operation: reply.Operation,
		Outcome:   reply.Outcome,
		IssueKey:  reply.IssueKey,
		JQL:       reply.JQL,
	}

	if h.Hub != nil && text != "" {
		h.Hub.PublishActivity(activitySource(r.Context()), text, resp.Reply)
	}

	sendJSON(w, http.StatusOK, resp)
}

// Connection answers GET /api/connection with the raw probe report. A failed
// probe is reported as 502.
func (h *QueryHandler) Connection(w http.ResponseWriter, r *http.Request) {
	if h.Checker == nil {
		sendJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "connection checks are not configured"})
		return
	}

	report := h.Checker.CheckConnection(r.Context(), h.ProjectKey)
	status := http.StatusOK
	if !report.OK {
		log.Printf("api: jira connection check failed: %s", report.Error)
		status = http.StatusBadGateway
	}
	sendJSON(w, status, report)
}

func handleMetrics(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, metrics.SnapshotNow())
}

func activitySource(ctx context.Context) string {
	if name := authmw.ClientNameFromContext(ctx); name != "" {
		return "http:" + name
	}
	return "http"
}

func sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("api: encode response: %v", err)
	}
}
