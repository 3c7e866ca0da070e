package tools

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	jirasvc "github.com/theapemachine/toolbench/pkg/tools/jira"
)

// JiraTool exposes Jira Cloud issue extraction as MCP tools.
type JiraTool struct {
	svc *jirasvc.Service
}

func NewJiraTool(svc *jirasvc.Service) *JiraTool {
	return &JiraTool{svc: svc}
}

func (jt *JiraTool) Register(srv *server.MCPServer) {
	srv.AddTool(mcp.NewTool(
		"extract_jira_issue",
		mcp.WithDescription("Extract the summary, description and key fields from a Jira issue using its key, e.g. PROJ-123."),
		mcp.WithString("issue_key", mcp.Required(), mcp.Description("The Jira issue key")),
	), jt.handleExtractIssue)

	srv.AddTool(mcp.NewTool(
		"search_jira_issues",
		mcp.WithDescription("Search issues with a JQL query, e.g. \"project = PROJ AND status = 'In Progress' ORDER BY updated DESC\"."),
		mcp.WithString("jql", mcp.Required(), mcp.Description("The JQL query to run")),
		mcp.WithNumber("max_results", mcp.Description("Maximum number of issues to return (default 10)")),
	), jt.handleSearchIssues)

	srv.AddTool(mcp.NewTool(
		"get_jira_comments",
		mcp.WithDescription("Retrieve all comments on a Jira issue, oldest first."),
		mcp.WithString("issue_key", mcp.Required(), mcp.Description("The Jira issue key")),
	), jt.handleGetComments)
}

func (jt *JiraTool) handleExtractIssue(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	issueKey, err := req.RequireString("issue_key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	log.Info("extract_jira_issue executing", "issue_key", issueKey)

	issue, err := jt.svc.GetIssue(ctx, issueKey)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultJSON(issue)
}

func (jt *JiraTool) handleSearchIssues(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jql, err := req.RequireString("jql")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	log.Info("search_jira_issues executing", "jql", jql)

	issues, err := jt.svc.SearchIssues(ctx, jql, req.GetInt("max_results", 10))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultJSON(map[string]any{
		"issues": issues,
		"count":  len(issues),
	})
}

func (jt *JiraTool) handleGetComments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	issueKey, err := req.RequireString("issue_key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	log.Info("get_jira_comments executing", "issue_key", issueKey)

	comments, err := jt.svc.GetComments(ctx, issueKey)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultJSON(map[string]any{
		"comments": comments,
		"count":    len(comments),
	})
}
