package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
)

// Vocabulary lists the closed value sets embedded in query-translation prompts.
type Vocabulary struct {
	Statuses   []string `yaml:"statuses"`
	Priorities []string `yaml:"priorities"`
	IssueTypes []string `yaml:"issue_types"`
}

func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Statuses:   []string{"To Do", "In Progress", "Done", "Backlog"},
		Priorities: []string{"Highest", "High", "Medium", "Low", "Lowest"},
		IssueTypes: []string{"Story", "Task", "Bug", "Epic"},
	}
}

// LoadVocabulary reads a YAML vocabulary file. An empty path yields the defaults,
// and any list the file leaves empty keeps its default.
func LoadVocabulary(path string) (Vocabulary, error) {
	vocabulary := DefaultVocabulary()
	path = strings.TrimSpace(path)
	if path == "" {
		return vocabulary, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Vocabulary{}, fmt.Errorf("read JIRA_VOCABULARY_FILE: %w", err)
	}

	var parsed Vocabulary
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return Vocabulary{}, fmt.Errorf("parse JIRA_VOCABULARY_FILE: %w", err)
	}

	if values := normalizeValues(parsed.Statuses); len(values) > 0 {
		vocabulary.Statuses = values
	}
	if values := normalizeValues(parsed.Priorities); len(values) > 0 {
		vocabulary.Priorities = values
	}
	if values := normalizeValues(parsed.IssueTypes); len(values) > 0 {
		vocabulary.IssueTypes = values
	}
	return vocabulary, nil
}

func normalizeValues(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		key := strings.ToLower(trimmed)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}
