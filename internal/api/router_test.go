package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/samhotchkiss/jirabot/internal/assistant"
	"github.com/samhotchkiss/jirabot/internal/jira"
	"github.com/samhotchkiss/jirabot/internal/metrics"
)

type stubProcessor struct {
	reply assistant.Reply
	calls []string
}

func (p *stubProcessor) Handle(ctx context.Context, text string) string {
	return p.Process(ctx, text).Text
}

func (p *stubProcessor) Process(ctx context.Context, text string) assistant.Reply {
	p.calls = append(p.calls, text)
	return p.reply
}

type stubChecker struct {
	report jira.ConnectionReport
	calls  int
}

func (c *stubChecker) CheckConnection(ctx context.Context, projectKey string) jira.ConnectionReport {
	c.calls++
	return c.report
}

func newTestRouter(deps Dependencies) http.Handler {
	if deps.Processor == nil {
		deps.Processor = &stubProcessor{reply: assistant.Reply{
			Text:      "No issues found.",
			Operation: assistant.OperationRead,
			Outcome:   metrics.OutcomeNotFound,
		}}
	}
	if deps.ProjectKey == "" {
		deps.ProjectKey = "AAD"
	}
	return NewRouter(deps)
}

func TestRouterSetup(t *testing.T) {
	t.Parallel()

	router := newTestRouter(Dependencies{})

	for _, tc := range []struct {
		name   string
		target string
	}{
		{name: "health", target: "/health"},
		{name: "root", target: "/"},
		{name: "metrics", target: "/api/metrics"},
	} {
		req := httptest.NewRequest(http.MethodGet, tc.target, nil)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected status %d, got %d", tc.name, http.StatusOK, rec.Code)
		}
	}
}

func TestRootDescribesProject(t *testing.T) {
	t.Parallel()

	router := newTestRouter(Dependencies{ProjectKey: "OPS"})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, `"project":"OPS"`) {
		t.Fatalf("expected project key in root response, got %s", body)
	}
	if !strings.Contains(body, `"query":"/api/query"`) {
		t.Fatalf("expected query endpoint in root response, got %s", body)
	}
}

func TestUnknownPathIsNotFound(t *testing.T) {
	t.Parallel()

	router := newTestRouter(Dependencies{})
	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestWebSocketRouteRequiresHub(t *testing.T) {
	t.Parallel()

	router := newTestRouter(Dependencies{})
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without a hub, got %d", rec.Code)
	}
}

func TestCORSMiddleware(t *testing.T) {
	t.Parallel()

	router := newTestRouter(Dependencies{})
	req := httptest.NewRequest(http.MethodOptions, "/api/query", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type, X-Client-Name")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK && rec.Code != http.StatusNoContent {
		t.Fatalf("expected status 200 or 204, got %d", rec.Code)
	}

	if allowOrigin := rec.Header().Get("Access-Control-Allow-Origin"); allowOrigin == "" {
		t.Fatalf("expected Access-Control-Allow-Origin to be set")
	}

	if allowMethods := rec.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(allowMethods, http.MethodPost) {
		t.Fatalf("expected Access-Control-Allow-Methods to include POST, got %q", allowMethods)
	}

	if allowHeaders := rec.Header().Get("Access-Control-Allow-Headers"); !strings.Contains(strings.ToLower(allowHeaders), "x-client-name") {
		t.Fatalf("expected Access-Control-Allow-Headers to include X-Client-Name, got %q", allowHeaders)
	}
}

func TestCORSRespectsAllowedOrigins(t *testing.T) {
	t.Parallel()

	router := newTestRouter(Dependencies{AllowedOrigins: []string{"https://dash.acme.dev"}})
	req := httptest.NewRequest(http.MethodOptions, "/api/query", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if allowOrigin := rec.Header().Get("Access-Control-Allow-Origin"); allowOrigin != "" {
		t.Fatalf("expected no Access-Control-Allow-Origin for a foreign origin, got %q", allowOrigin)
	}
}

func TestJSONContentType(t *testing.T) {
	t.Parallel()

	router := newTestRouter(Dependencies{})

	for _, target := range []string{"/health", "/", "/api/metrics"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
			t.Fatalf("%s: expected content-type application/json, got %q", target, ct)
		}
	}
}

func TestAPITokenGuardsAPIRoutesOnly(t *testing.T) {
	t.Parallel()

	router := newTestRouter(Dependencies{APIToken: "s3cret"})

	req := httptest.NewRequest(http.MethodGet, "/api/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/metrics", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected health to stay public, got %d", rec.Code)
	}
}
