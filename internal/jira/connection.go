package jira

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// ConnectionReport summarizes a credentials and project access probe.
type ConnectionReport struct {
	OK          bool   `json:"ok"`
	User        string `json:"user,omitempty"`
	Email       string `json:"email,omitempty"`
	Project     string `json:"project,omitempty"`
	TotalIssues int    `json:"total_issues"`
	Error       string `json:"error,omitempty"`
}

// CheckConnection verifies authentication, project access and search access in
// that order, stopping at the first failure.
func (c *Client) CheckConnection(ctx context.Context, projectKey string) ConnectionReport {
	myself, err := c.Myself(ctx)
	if err != nil {
		return ConnectionReport{Error: err.Error()}
	}
	report := ConnectionReport{User: myself.DisplayName, Email: myself.EmailAddress}

	project, err := c.Project(ctx, projectKey)
	if err != nil {
		report.Error = err.Error()
		return report
	}
	report.Project = project.Name

	query := url.Values{}
	query.Set("jql", fmt.Sprintf("project=%q", strings.TrimSpace(projectKey)))
	query.Set("maxResults", "1")
	var result SearchResult
	if err := c.doJSON(ctx, http.MethodGet, "search?"+query.Encode(), nil, &result); err != nil {
		report.Error = err.Error()
		return report
	}

	report.TotalIssues = result.Total
	report.OK = true
	return report
}
