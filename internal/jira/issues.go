package jira

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	// MaxSearchResults caps every search issued by the bot.
	MaxSearchResults = 20

	assignableUsersLimit = 50
)

// SearchFields are the issue fields requested on every search.
var SearchFields = []string{
	"key",
	"summary",
	"status",
	"assignee",
	"priority",
	"issuetype",
	"created",
	"updated",
	"description",
}

func (c *Client) Myself(ctx context.Context) (User, error) {
	var user User
	if err := c.doJSON(ctx, http.MethodGet, "myself", nil, &user); err != nil {
		return User{}, err
	}
	return user, nil
}

func (c *Client) Project(ctx context.Context, projectKey string) (Project, error) {
	var project Project
	if err := c.doJSON(ctx, http.MethodGet, "project/"+url.PathEscape(projectKey), nil, &project); err != nil {
		return Project{}, err
	}
	return project, nil
}

// Search runs a JQL query. maxResults <= 0 or above MaxSearchResults is clamped
// to MaxSearchResults.
func (c *Client) Search(ctx context.Context, jql string, maxResults int) (SearchResult, error) {
	if strings.TrimSpace(jql) == "" {
		return SearchResult{}, fmt.Errorf("jql is required")
	}
	if maxResults <= 0 || maxResults > MaxSearchResults {
		maxResults = MaxSearchResults
	}

	query := url.Values{}
	query.Set("jql", jql)
	query.Set("fields", strings.Join(SearchFields, ","))
	query.Set("maxResults", strconv.Itoa(maxResults))

	var result SearchResult
	if err := c.doJSON(ctx, http.MethodGet, "search?"+query.Encode(), nil, &result); err != nil {
		return SearchResult{}, err
	}
	if len(result.Issues) > maxResults {
		result.Issues = result.Issues[:maxResults]
	}
	return result, nil
}

func (c *Client) AssignableUsers(ctx context.Context, projectKey string) ([]User, error) {
	query := url.Values{}
	query.Set("project", projectKey)
	query.Set("maxResults", strconv.Itoa(assignableUsersLimit))

	var users []User
	if err := c.doJSON(ctx, http.MethodGet, "user/assignable/search?"+query.Encode(), nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) CreateMeta(ctx context.Context, projectKey string) (CreateMeta, error) {
	query := url.Values{}
	query.Set("projectKeys", projectKey)
	query.Set("expand", "projects.issuetypes.fields")

	var meta CreateMeta
	if err := c.doJSON(ctx, http.MethodGet, "issue/createmeta?"+query.Encode(), nil, &meta); err != nil {
		return CreateMeta{}, err
	}
	return meta, nil
}

func (c *Client) CreateIssue(ctx context.Context, payload IssuePayload) (CreatedIssue, error) {
	var created CreatedIssue
	if err := c.doJSON(ctx, http.MethodPost, "issue", payload, &created); err != nil {
		return CreatedIssue{}, err
	}
	return created, nil
}

func (c *Client) UpdateIssue(ctx context.Context, issueKey string, payload IssuePayload) error {
	return c.doJSON(ctx, http.MethodPut, "issue/"+url.PathEscape(issueKey), payload, nil)
}

func (c *Client) DeleteIssue(ctx context.Context, issueKey string) error {
	return c.doJSON(ctx, http.MethodDelete, "issue/"+url.PathEscape(issueKey), nil, nil)
}

func (c *Client) Transitions(ctx context.Context, issueKey string) ([]Transition, error) {
	var response transitionsResponse
	if err := c.doJSON(ctx, http.MethodGet, "issue/"+url.PathEscape(issueKey)+"/transitions", nil, &response); err != nil {
		return nil, err
	}
	return response.Transitions, nil
}

func (c *Client) ApplyTransition(ctx context.Context, issueKey, transitionID string) error {
	body := map[string]any{"transition": IDRef{ID: transitionID}}
	return c.doJSON(ctx, http.MethodPost, "issue/"+url.PathEscape(issueKey)+"/transitions", body, nil)
}
