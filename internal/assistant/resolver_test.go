package assistant

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samhotchkiss/jirabot/internal/jira"
)

func TestResolveUser(t *testing.T) {
	candidates := []jira.User{
		{AccountID: "acc-1", DisplayName: "Jon Lee", EmailAddress: "jlee@acme.dev"},
		{AccountID: "acc-2", DisplayName: "Jon", EmailAddress: "jon@acme.dev"},
		{AccountID: "acc-3", DisplayName: "Sarah Connor", EmailAddress: "sarah@acme.dev"},
	}

	tests := []struct {
		name    string
		text    string
		wantID  string
		wantHit bool
	}{
		{name: "exact name wins over earlier substring", text: "jon", wantID: "acc-2", wantHit: true},
		{name: "exact email", text: "SARAH@ACME.DEV", wantID: "acc-3", wantHit: true},
		{name: "exact account id", text: "acc-1", wantID: "acc-1", wantHit: true},
		{name: "substring first in order", text: "lee", wantID: "acc-1", wantHit: true},
		{name: "substring on email", text: "sarah@", wantID: "acc-3", wantHit: true},
		{name: "empty", text: "  ", wantHit: false},
		{name: "no match", text: "mike", wantHit: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			user, ok := ResolveUser(tc.text, candidates)
			assert.Equal(t, tc.wantHit, ok)
			assert.Equal(t, tc.wantID, user.AccountID)
		})
	}
}

func TestResolveUserSubstringTierFollowsTrackerOrder(t *testing.T) {
	candidates := []jira.User{
		{AccountID: "a", DisplayName: "Jon Lee"},
		{AccountID: "b", DisplayName: "Jonathan"},
	}
	user, ok := ResolveUser("jon", candidates)
	require.True(t, ok)
	assert.Equal(t, "a", user.AccountID)

	again, _ := ResolveUser("jon", candidates)
	assert.Equal(t, user, again)
}

func TestResolveIssueKeySkipsSearch(t *testing.T) {
	tracker := &fakeTracker{}
	resolver := NewResolver(tracker, "AAD")

	key, found, err := resolver.ResolveIssue(context.Background(), "AAD-42")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "AAD-42", key)
	assert.Empty(t, tracker.searches)
}

func TestResolveIssueSearchesSummary(t *testing.T) {
	tracker := &fakeTracker{searchResult: jira.SearchResult{Issues: []jira.Issue{issue("AAD-7", "Login bug"), issue("AAD-9", "Login bug 2")}}}
	resolver := NewResolver(tracker, "AAD")

	key, found, err := resolver.ResolveIssue(context.Background(), `login "bug"`)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "AAD-7", key)
	require.Len(t, tracker.searches, 1)
	assert.Equal(t, `project = "AAD" AND summary ~ "login \"bug\""`, tracker.searches[0])
}

func TestResolveIssueNoHits(t *testing.T) {
	tracker := &fakeTracker{}
	resolver := NewResolver(tracker, "AAD")

	_, found, err := resolver.ResolveIssue(context.Background(), "login bug")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Len(t, tracker.searches, 1)
}

func TestResolveIssueEmptyTargetAndErrors(t *testing.T) {
	tracker := &fakeTracker{searchErr: &jira.TrackerError{StatusCode: 400, Message: "bad jql"}}
	resolver := NewResolver(tracker, "AAD")

	_, found, err := resolver.ResolveIssue(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, tracker.searches)

	_, _, err = resolver.ResolveIssue(context.Background(), "aad-1")
	var trackerErr *jira.TrackerError
	require.True(t, errors.As(err, &trackerErr))
	assert.Equal(t, 400, trackerErr.StatusCode)
}

func TestIsIssueKey(t *testing.T) {
	assert.True(t, IsIssueKey("AAD-123"))
	assert.True(t, IsIssueKey("AB-1"))
	assert.False(t, IsIssueKey("aad-123"))
	assert.False(t, IsIssueKey("AAD-"))
	assert.False(t, IsIssueKey("AAD1-2"))
	assert.False(t, IsIssueKey(" AAD-1 extra"))
}

func TestPriorityID(t *testing.T) {
	for _, name := range []string{"HIGH", "high", "High", " High "} {
		id, ok := PriorityID(name)
		assert.True(t, ok, name)
		assert.Equal(t, "2", id, name)
	}

	expected := map[string]string{"Highest": "1", "High": "2", "Medium": "3", "Low": "4", "Lowest": "5"}
	for name, want := range expected {
		id, ok := PriorityID(name)
		require.True(t, ok)
		assert.Equal(t, want, id)
	}

	_, ok := PriorityID("urgent")
	assert.False(t, ok)
}
