package jira

import (
	"testing"
	"time"

	jiraapi "github.com/andygrunwald/go-jira"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("JIRA_BASE_URL", "https://example.atlassian.net")
	t.Setenv("JIRA_EMAIL", "dev@example.com")
	t.Setenv("JIRA_API_TOKEN", "token")

	cfg, err := ConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "https://example.atlassian.net", cfg.BaseURL)
	assert.Equal(t, "dev@example.com", cfg.Email)
	assert.Equal(t, "token", cfg.APIToken)
}

func TestConfigFromEnvAliases(t *testing.T) {
	t.Setenv("JIRA_BASE_URL", "")
	t.Setenv("JIRA_EMAIL", "")
	t.Setenv("JIRA_INSTANCE_URL", "https://alias.atlassian.net")
	t.Setenv("JIRA_USERNAME", "alias@example.com")
	t.Setenv("JIRA_API_TOKEN", "token")

	cfg, err := ConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "https://alias.atlassian.net", cfg.BaseURL)
	assert.Equal(t, "alias@example.com", cfg.Email)
}

func TestConfigFromEnvMissing(t *testing.T) {
	t.Setenv("JIRA_BASE_URL", "")
	t.Setenv("JIRA_INSTANCE_URL", "")
	t.Setenv("JIRA_EMAIL", "")
	t.Setenv("JIRA_USERNAME", "")
	t.Setenv("JIRA_API_TOKEN", "")

	_, err := ConfigFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JIRA_API_TOKEN")
}

func TestFromAPIIssue(t *testing.T) {
	created := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)

	issue := fromAPIIssue(&jiraapi.Issue{
		Key: "PROJ-42",
		Fields: &jiraapi.IssueFields{
			Summary:     "Fix the flaky pipeline",
			Description: "It fails on Mondays.",
			Status:      &jiraapi.Status{Name: "In Progress"},
			Assignee:    &jiraapi.User{DisplayName: "Dev One"},
			Type:        jiraapi.IssueType{Name: "Bug"},
			Created:     jiraapi.Time(created),
		},
	})

	assert.Equal(t, "PROJ-42", issue.Key)
	assert.Equal(t, "Fix the flaky pipeline", issue.Summary)
	assert.Equal(t, "In Progress", issue.Status)
	assert.Equal(t, "Dev One", issue.Assignee)
	assert.Equal(t, "Bug", issue.IssueType)
	assert.Equal(t, "2026-02-03T10:00:00Z", issue.Created)
	assert.Empty(t, issue.Updated)
}

func TestFromAPIIssueNilFields(t *testing.T) {
	issue := fromAPIIssue(&jiraapi.Issue{Key: "PROJ-1"})
	assert.Equal(t, "PROJ-1", issue.Key)
	assert.Empty(t, issue.Summary)
}
