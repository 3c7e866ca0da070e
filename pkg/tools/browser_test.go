package tools

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBrowserTestServer(t *testing.T) *server.MCPServer {
	t.Helper()

	srv := server.NewMCPServer("browser-test", "0.0.1",
		server.WithToolCapabilities(true),
	)
	NewBrowserTool().Register(srv)

	return srv
}

func TestBrowserToolRegistration(t *testing.T) {
	c := newTestClient(t, newBrowserTestServer(t))

	result, err := c.ListTools(context.Background(), mcp.ListToolsRequest{})
	require.NoError(t, err)

	names := make([]string, len(result.Tools))
	for i, tool := range result.Tools {
		names[i] = tool.Name
	}

	assert.ElementsMatch(t, []string{
		"browser_fetch",
		"browser_screenshot",
		"browser_click",
		"browser_fill",
		"browser_evaluate",
	}, names)
}

func TestBrowserToolRejectsBadInput(t *testing.T) {
	c := newTestClient(t, newBrowserTestServer(t))
	ctx := context.Background()

	cases := []struct {
		tool string
		args map[string]any
	}{
		{"browser_fetch", map[string]any{}},
		{"browser_fetch", map[string]any{"url": "file:///etc/passwd"}},
		{"browser_click", map[string]any{"url": "https://example.com"}},
		{"browser_fill", map[string]any{"url": "https://example.com", "selector": "#q"}},
		{"browser_evaluate", map[string]any{"url": "https://example.com"}},
	}

	for _, tc := range cases {
		result, err := c.CallTool(ctx, mcp.CallToolRequest{
			Params: mcp.CallToolParams{
				Name:      tc.tool,
				Arguments: tc.args,
			},
		})
		require.NoError(t, err)
		assert.True(t, result.IsError, "tool %s should reject %v", tc.tool, tc.args)
	}
}
