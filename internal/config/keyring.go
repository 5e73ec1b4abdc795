package config

import (
	"errors"
	"strings"

	"github.com/zalando/go-keyring"
)

const jiraTokenServiceName = "jirabot.jira"

// ErrAccountRequired is returned when a keychain operation has no account to key on.
var ErrAccountRequired = errors.New("jira account email is required")

// LoadJiraToken retrieves the Jira API token stored for an account email.
func LoadJiraToken(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", ErrAccountRequired
	}
	return keyring.Get(jiraTokenServiceName, email)
}

// StoreJiraToken persists the Jira API token in the OS keychain.
func StoreJiraToken(email, token string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrAccountRequired
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("jira token is required")
	}
	return keyring.Set(jiraTokenServiceName, email, token)
}

// DeleteJiraToken removes the stored token for an account email.
func DeleteJiraToken(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrAccountRequired
	}
	return keyring.Delete(jiraTokenServiceName, email)
}
