package jira

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	jira "github.com/andygrunwald/go-jira"

	"github.com/theapemachine/toolbench/pkg/errors"
)

// Config holds the Jira Cloud connection settings. Several environment
// variable names are accepted for each field because deployments differ.
type Config struct {
	BaseURL  string
	Email    string
	APIToken string
}

// ConfigFromEnv reads JIRA_BASE_URL (or JIRA_INSTANCE_URL), JIRA_EMAIL
// (or JIRA_USERNAME) and JIRA_API_TOKEN.
func ConfigFromEnv() (Config, error) {
	cfg := Config{
		BaseURL:  firstEnv("JIRA_BASE_URL", "JIRA_INSTANCE_URL"),
		Email:    firstEnv("JIRA_EMAIL", "JIRA_USERNAME"),
		APIToken: os.Getenv("JIRA_API_TOKEN"),
	}

	var missing []string

	if cfg.BaseURL == "" {
		missing = append(missing, "JIRA_BASE_URL/JIRA_INSTANCE_URL")
	}

	if cfg.Email == "" {
		missing = append(missing, "JIRA_EMAIL/JIRA_USERNAME")
	}

	if cfg.APIToken == "" {
		missing = append(missing, "JIRA_API_TOKEN")
	}

	if len(missing) > 0 {
		return cfg, errors.NewError(
			errors.ErrMissingCredentials,
			fmt.Errorf("jira credentials not found in environment: %s", strings.Join(missing, ", ")),
		)
	}

	return cfg, nil
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if value := os.Getenv(name); value != "" {
			return value
		}
	}

	return ""
}

// Issue is the trimmed view handed to agents: enough to reason about a
// ticket without the full REST payload.
type Issue struct {
	Key         string `json:"key"`
	Summary     string `json:"summary"`
	Description string `json:"description"`
	Status      string `json:"status,omitempty"`
	Assignee    string `json:"assignee,omitempty"`
	Reporter    string `json:"reporter,omitempty"`
	Priority    string `json:"priority,omitempty"`
	IssueType   string `json:"issue_type,omitempty"`
	Created     string `json:"created,omitempty"`
	Updated     string `json:"updated,omitempty"`
}

// Comment is a single issue comment.
type Comment struct {
	ID      string `json:"id"`
	Author  string `json:"author"`
	Body    string `json:"body"`
	Created string `json:"created"`
}

// Service wraps a Jira Cloud client authenticated with an API token.
type Service struct {
	client *jira.Client
}

func NewService(cfg Config) (*Service, error) {
	tp := jira.BasicAuthTransport{
		Username: cfg.Email,
		Password: cfg.APIToken,
	}

	client, err := jira.NewClient(tp.Client(), cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("creating jira client for %s: %w", cfg.BaseURL, err)
	}

	return &Service{client: client}, nil
}

// GetIssue fetches a single issue by key, e.g. "PROJ-123".
func (s *Service) GetIssue(ctx context.Context, issueKey string) (*Issue, error) {
	issue, _, err := s.client.Issue.GetWithContext(ctx, issueKey, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching issue %s: %w", issueKey, err)
	}

	return fromAPIIssue(issue), nil
}

// SearchIssues runs a JQL query, e.g. "project = PROJ AND status = 'In Progress'".
func (s *Service) SearchIssues(ctx context.Context, jql string, maxResults int) ([]*Issue, error) {
	if maxResults <= 0 {
		maxResults = 10
	}

	found, _, err := s.client.Issue.SearchWithContext(ctx, jql, &jira.SearchOptions{
		MaxResults: maxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("searching issues with %q: %w", jql, err)
	}

	issues := make([]*Issue, 0, len(found))
	for i := range found {
		issues = append(issues, fromAPIIssue(&found[i]))
	}

	return issues, nil
}

// GetComments returns all comments on an issue, oldest first.
func (s *Service) GetComments(ctx context.Context, issueKey string) ([]*Comment, error) {
	issue, _, err := s.client.Issue.GetWithContext(ctx, issueKey, &jira.GetQueryOptions{
		Fields: "comment",
	})
	if err != nil {
		return nil, fmt.Errorf("fetching comments of %s: %w", issueKey, err)
	}

	if issue.Fields == nil || issue.Fields.Comments == nil {
		return nil, nil
	}

	comments := make([]*Comment, 0, len(issue.Fields.Comments.Comments))
	for _, c := range issue.Fields.Comments.Comments {
		comments = append(comments, &Comment{
			ID:      c.ID,
			Author:  c.Author.DisplayName,
			Body:    c.Body,
			Created: c.Created,
		})
	}

	return comments, nil
}

func fromAPIIssue(issue *jira.Issue) *Issue {
	out := &Issue{Key: issue.Key}

	fields := issue.Fields
	if fields == nil {
		return out
	}

	out.Summary = fields.Summary
	out.Description = fields.Description

	if fields.Status != nil {
		out.Status = fields.Status.Name
	}

	if fields.Assignee != nil {
		out.Assignee = fields.Assignee.DisplayName
	}

	if fields.Reporter != nil {
		out.Reporter = fields.Reporter.DisplayName
	}

	if fields.Priority != nil {
		out.Priority = fields.Priority.Name
	}

	out.IssueType = fields.Type.Name
	out.Created = formatTime(time.Time(fields.Created))
	out.Updated = formatTime(time.Time(fields.Updated))

	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.Format(time.RFC3339)
}
