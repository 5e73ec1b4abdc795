package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samhotchkiss/jirabot/internal/chat"
	"github.com/samhotchkiss/jirabot/internal/config"
)

func testConfig() config.Config {
	return config.Config{
		Port:        "8080",
		Environment: "test",
		HTTPTimeout: 5 * time.Second,
		Jira: config.JiraConfig{
			Domain:     "https://acme.atlassian.net",
			Email:      "bot@acme.dev",
			Token:      "secret",
			ProjectKey: "AAD",
		},
		OpenAI: config.OpenAIConfig{
			APIKey:  "sk-test",
			Model:   "gpt-3.5-turbo",
			BaseURL: "https://api.openai.com",
		},
		Discord: config.DiscordConfig{
			GatewayURL: "wss://gateway.discord.gg/?v=10&encoding=json",
			APIBaseURL: "https://discord.com/api/v10",
		},
		Vocabulary: config.DefaultVocabulary(),
	}
}

func TestNewBuildsObjectGraph(t *testing.T) {
	a, err := New(testConfig())
	require.NoError(t, err)

	assert.Equal(t, "AAD", a.Assistant.ProjectKey())
	assert.Equal(t, "https://acme.atlassian.net/rest/api/3/", a.Jira.BaseURL())
	assert.Equal(t, "gpt-3.5-turbo", a.Model.Model())
	assert.Equal(t, chat.HelpText, a.Router.Reply(context.Background(), "  "))
}

func TestNewRejectsBadJiraDomain(t *testing.T) {
	cfg := testConfig()
	cfg.Jira.Domain = "acme.atlassian.net"

	_, err := New(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create jira client")
}

func TestNewDiscordBotRespectsEnabledFlag(t *testing.T) {
	a, err := New(testConfig())
	require.NoError(t, err)

	bot, err := a.NewDiscordBot(a.Router)
	require.NoError(t, err)
	assert.Nil(t, bot)

	a.Config.Discord.Enabled = true
	a.Config.Discord.Token = "discord-token"
	bot, err = a.NewDiscordBot(a.Router)
	require.NoError(t, err)
	assert.NotNil(t, bot)
	assert.Empty(t, bot.UserID())
}
