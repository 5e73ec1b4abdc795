package config

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

func init() {
	// Auto-load .env file if present (don't override existing env vars)
	loadDotEnv(".env")
}

func loadDotEnv(path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		val = strings.TrimSpace(val)
		// Remove surrounding quotes
		if len(val) >= 2 && ((val[0] == '"' && val[len(val)-1] == '"') || (val[0] == '\'' && val[len(val)-1] == '\'')) {
			val = val[1 : len(val)-1]
		}
		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, val)
		}
	}
}

const (
	defaultPort           = "4300"
	defaultEnvironment    = "development"
	defaultHTTPTimeout    = 30 * time.Second
	defaultOpenAIBaseURL  = "https://api.openai.com"
	defaultOpenAIModel    = "gpt-4"
	defaultDiscordGateway = "wss://gateway.discord.gg/?v=10&encoding=json"
	defaultDiscordAPIBase = "https://discord.com/api/v10"
)

const (
	TokenSourceEnv     = "env"
	TokenSourceKeyring = "keyring"
)

var projectKeyPattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)

type JiraConfig struct {
	Domain      string
	Email       string
	Token       string
	TokenSource string
	ProjectKey  string
}

type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

type DiscordConfig struct {
	Enabled    bool
	Token      string
	GatewayURL string
	APIBaseURL string
}

type Config struct {
	Port           string
	Environment    string
	HTTPTimeout    time.Duration
	AllowedOrigins []string
	APIToken       string
	Jira           JiraConfig
	OpenAI         OpenAIConfig
	Discord        DiscordConfig
	Vocabulary     Vocabulary
}

func Load() (Config, error) {
	cfg := Config{
		Port:           firstNonEmpty(strings.TrimSpace(os.Getenv("PORT")), defaultPort),
		Environment:    resolveEnvironment(),
		AllowedOrigins: parseList(os.Getenv("WS_ALLOWED_ORIGINS")),
		APIToken:       strings.TrimSpace(os.Getenv("API_TOKEN")),
		Jira: JiraConfig{
			Domain:     strings.TrimRight(strings.TrimSpace(os.Getenv("JIRA_DOMAIN")), "/"),
			Email:      strings.TrimSpace(os.Getenv("JIRA_EMAIL")),
			Token:      strings.TrimSpace(os.Getenv("JIRA_TOKEN")),
			ProjectKey: strings.TrimSpace(os.Getenv("JIRA_PROJECT_KEY")),
		},
		OpenAI: OpenAIConfig{
			APIKey: strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
			BaseURL: strings.TrimRight(firstNonEmpty(
				strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")),
				defaultOpenAIBaseURL,
			), "/"),
			Model: firstNonEmpty(
				strings.TrimSpace(os.Getenv("OPENAI_MODEL")),
				defaultOpenAIModel,
			),
		},
		Discord: DiscordConfig{
			Token: strings.TrimSpace(os.Getenv("DISCORD_TOKEN")),
			GatewayURL: firstNonEmpty(
				strings.TrimSpace(os.Getenv("DISCORD_GATEWAY_URL")),
				defaultDiscordGateway,
			),
			APIBaseURL: strings.TrimRight(firstNonEmpty(
				strings.TrimSpace(os.Getenv("DISCORD_API_BASE_URL")),
				defaultDiscordAPIBase,
			), "/"),
		},
	}

	if cfg.Jira.Token != "" {
		cfg.Jira.TokenSource = TokenSourceEnv
	} else if token, err := LoadJiraToken(cfg.Jira.Email); err == nil && token != "" {
		cfg.Jira.Token = token
		cfg.Jira.TokenSource = TokenSourceKeyring
	}

	discordEnabled, err := parseBool("DISCORD_ENABLED", cfg.Discord.Token != "")
	if err != nil {
		return Config{}, err
	}
	cfg.Discord.Enabled = discordEnabled

	httpTimeout, err := parseDuration("HTTP_TIMEOUT", defaultHTTPTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.HTTPTimeout = httpTimeout

	vocabulary, err := LoadVocabulary(strings.TrimSpace(os.Getenv("JIRA_VOCABULARY_FILE")))
	if err != nil {
		return Config{}, err
	}
	cfg.Vocabulary = vocabulary

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if c.Jira.Domain == "" {
		return fmt.Errorf("JIRA_DOMAIN is required")
	}
	parsed, err := url.Parse(c.Jira.Domain)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("JIRA_DOMAIN must include scheme and host")
	}
	if c.Jira.Email == "" {
		return fmt.Errorf("JIRA_EMAIL is required")
	}
	if c.Jira.Token == "" {
		return fmt.Errorf("JIRA_TOKEN is required (set it in the environment or run `jirabot token set`)")
	}
	if c.Jira.ProjectKey == "" {
		return fmt.Errorf("JIRA_PROJECT_KEY is required")
	}
	if !projectKeyPattern.MatchString(c.Jira.ProjectKey) {
		return fmt.Errorf("JIRA_PROJECT_KEY must be an uppercase project key, got %q", c.Jira.ProjectKey)
	}
	if c.OpenAI.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	if c.OpenAI.Model == "" {
		return fmt.Errorf("OPENAI_MODEL must not be empty")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be greater than zero")
	}

	if !c.Discord.Enabled {
		return nil
	}

	if c.Discord.Token == "" {
		return fmt.Errorf("DISCORD_TOKEN is required when the Discord bot is enabled")
	}
	if c.Discord.GatewayURL == "" {
		return fmt.Errorf("DISCORD_GATEWAY_URL must not be empty when the Discord bot is enabled")
	}

	return nil
}

func resolveEnvironment() string {
	return strings.ToLower(firstNonEmpty(
		strings.TrimSpace(os.Getenv("APP_ENV")),
		strings.TrimSpace(os.Getenv("ENVIRONMENT")),
		strings.TrimSpace(os.Getenv("GO_ENV")),
		defaultEnvironment,
	))
}

func parseBool(name string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return defaultValue, nil
	}

	switch strings.ToLower(raw) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s must be a boolean value", name)
	}
}

func parseDuration(name string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return defaultValue, nil
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		if seconds, convErr := strconv.Atoi(raw); convErr == nil {
			parsed = time.Duration(seconds) * time.Second
		} else {
			return 0, fmt.Errorf("%s must be a valid duration: %w", name, err)
		}
	}

	if parsed <= 0 {
		return 0, fmt.Errorf("%s must be greater than zero", name)
	}

	return parsed, nil
}

func parseList(raw string) []string {
	var values []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
