package api

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/samhotchkiss/jirabot/internal/chat"
	authmw "github.com/samhotchkiss/jirabot/internal/middleware"
	"github.com/samhotchkiss/jirabot/internal/ws"
)

var startTime = time.Now()

type HealthResponse struct {
	Status    string `json:"status"`
	Uptime    string `json:"uptime"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}

// Dependencies wires the HTTP surface to the bot. Hub may be nil, in which
// case the websocket endpoint and the activity feed are disabled.
type Dependencies struct {
	Processor      Processor
	Checker        chat.ConnectionChecker
	ProjectKey     string
	Hub            *ws.Hub
	AllowedOrigins []string
	APIToken       string
}

func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	allowedOrigins := deps.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Token", authmw.ClientNameHeader},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Use(middleware.SetHeader("Content-Type", "application/json"))

	r.Get("/health", handleHealth)
	r.Get("/", handleRoot(deps.ProjectKey))

	chatRouter := chat.NewRouter(deps.Processor, deps.Checker, deps.ProjectKey)
	queries := &QueryHandler{
		Router:     chatRouter,
		Checker:    deps.Checker,
		ProjectKey: deps.ProjectKey,
		Hub:        deps.Hub,
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(authmw.RequireToken(deps.APIToken))
		r.Post("/query", queries.Query)
		r.Get("/connection", queries.Connection)
		r.Get("/metrics", handleMetrics)
	})

	if deps.Hub != nil {
		r.Handle("/ws", &ws.Handler{
			Hub:            deps.Hub,
			Replier:        chatRouter,
			AllowedOrigins: deps.AllowedOrigins,
		})
	}

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:    "ok",
		Uptime:    time.Since(startTime).Round(time.Second).String(),
		Version:   getVersion(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	_ = json.NewEncoder(w).Encode(resp)
}

func handleRoot(projectKey string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}

		_ = json.NewEncoder(w).Encode(map[string]string{
			"name":       "Jira Bot",
			"tagline":    "Ask Jira questions in plain English",
			"project":    projectKey,
			"health":     "/health",
			"query":      "/api/query",
			"connection": "/api/connection",
			"metrics":    "/api/metrics",
			"ws":         "/ws",
		})
	}
}

func getVersion() string {
	if v := os.Getenv("VERSION"); v != "" {
		return v
	}
	return "dev"
}
