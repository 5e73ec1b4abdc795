// Package app builds the bot's object graph from configuration. Every binary
// shares it so the HTTP server, CLI and MCP server answer identically.
package app

import (
	"fmt"
	"net/http"

	"github.com/samhotchkiss/jirabot/internal/assistant"
	"github.com/samhotchkiss/jirabot/internal/chat"
	"github.com/samhotchkiss/jirabot/internal/config"
	"github.com/samhotchkiss/jirabot/internal/discord"
	"github.com/samhotchkiss/jirabot/internal/jira"
	"github.com/samhotchkiss/jirabot/internal/llm"
)

type App struct {
	Config    config.Config
	Jira      *jira.Client
	Model     *llm.OpenAIClient
	Assistant *assistant.Assistant
	Router    *chat.Router
}

func New(cfg config.Config) (*App, error) {
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	jiraClient, err := jira.NewClient(cfg.Jira.Domain, cfg.Jira.Email, cfg.Jira.Token,
		jira.WithHTTPClient(httpClient),
		jira.WithRequestBodyLogging(cfg.Environment != "production"),
	)
	if err != nil {
		return nil, fmt.Errorf("create jira client: %w", err)
	}

	model, err := llm.NewOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model,
		llm.WithBaseURL(cfg.OpenAI.BaseURL),
		llm.WithHTTPClient(httpClient),
	)
	if err != nil {
		return nil, fmt.Errorf("create openai client: %w", err)
	}

	bot, err := assistant.New(jiraClient, model, assistant.SettingsFromConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("create assistant: %w", err)
	}

	return &App{
		Config:    cfg,
		Jira:      jiraClient,
		Model:     model,
		Assistant: bot,
		Router:    chat.NewRouter(bot, jiraClient, cfg.Jira.ProjectKey),
	}, nil
}

// NewDiscordBot wires a gateway bot that answers through replier. It returns
// nil when Discord is disabled.
func (a *App) NewDiscordBot(replier discord.Replier) (*discord.Bot, error) {
	if !a.Config.Discord.Enabled {
		return nil, nil
	}
	rest := discord.NewRESTClient(a.Config.Discord.Token, a.Config.Discord.APIBaseURL, &http.Client{Timeout: a.Config.HTTPTimeout})
	bot, err := discord.NewBot(discord.Config{
		Token:      a.Config.Discord.Token,
		GatewayURL: a.Config.Discord.GatewayURL,
	}, replier, rest)
	if err != nil {
		return nil, fmt.Errorf("create discord bot: %w", err)
	}
	return bot, nil
}
