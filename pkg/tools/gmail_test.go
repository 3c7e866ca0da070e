package tools

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theapemachine/toolbench/pkg/stores/history"
)

var gmailToolNames = []string{
	"list_gmail_messages",
	"get_gmail_profile",
	"setup_gmail_watch",
	"create_gmail_draft",
	"delete_gmail_draft",
	"get_gmail_draft",
	"list_gmail_drafts",
	"send_gmail_draft",
	"update_gmail_draft",
	"load_saved_history_id",
	"get_gmail_history",
	"authenticate_gmail",
	"send_gmail_message",
	"modify_gmail_message",
	"list_gmail_threads",
	"get_gmail_thread",
	"list_gmail_labels",
	"create_gmail_label",
	"update_gmail_label",
	"list_gmail_filters",
	"create_gmail_filter",
}

func newTestClient(t *testing.T, srv *server.MCPServer) *client.Client {
	t.Helper()

	c, err := client.NewInProcessClient(srv)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, c.Start(ctx))
	t.Cleanup(func() { c.Close() })

	_, err = c.Initialize(ctx, mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			Capabilities:    mcp.ClientCapabilities{},
			ClientInfo: mcp.Implementation{
				Name:    "test-client",
				Version: "0.0.1",
			},
		},
	})
	require.NoError(t, err)

	return c
}

func newGmailTestServer(t *testing.T) *server.MCPServer {
	t.Helper()

	srv := server.NewMCPServer("gmail-test", "0.0.1",
		server.WithToolCapabilities(true),
	)

	store := history.NewStore(filepath.Join(t.TempDir(), "history_id.txt"))
	NewGmailTool(nil, nil, store).Register(srv)

	return srv
}

func TestGmailToolRegistration(t *testing.T) {
	c := newTestClient(t, newGmailTestServer(t))

	result, err := c.ListTools(context.Background(), mcp.ListToolsRequest{})
	require.NoError(t, err)

	names := make([]string, len(result.Tools))
	for i, tool := range result.Tools {
		names[i] = tool.Name
	}

	assert.Len(t, result.Tools, len(gmailToolNames))
	for _, name := range gmailToolNames {
		assert.Contains(t, names, name)
	}
}

func TestGmailToolMissingArguments(t *testing.T) {
	c := newTestClient(t, newGmailTestServer(t))
	ctx := context.Background()

	cases := []struct {
		tool string
		args map[string]any
	}{
		{"delete_gmail_draft", map[string]any{}},
		{"get_gmail_thread", map[string]any{}},
		{"update_gmail_label", map[string]any{}},
		{"send_gmail_message", map[string]any{"to": "a@b.com"}},
		{"modify_gmail_message", map[string]any{"message_id": "m1"}},
		{"create_gmail_filter", map[string]any{"add_label_ids": []string{"X"}}},
	}

	for _, tc := range cases {
		t.Run(tc.tool, func(t *testing.T) {
			result, err := c.CallTool(ctx, mcp.CallToolRequest{
				Params: mcp.CallToolParams{
					Name:      tc.tool,
					Arguments: tc.args,
				},
			})
			require.NoError(t, err)
			assert.True(t, result.IsError)
		})
	}
}

func TestLoadSavedHistoryID(t *testing.T) {
	srv := server.NewMCPServer("gmail-test", "0.0.1",
		server.WithToolCapabilities(true),
	)

	path := filepath.Join(t.TempDir(), "history_id.txt")
	store := history.NewStore(path)
	NewGmailTool(nil, nil, store).Register(srv)

	c := newTestClient(t, srv)
	ctx := context.Background()

	result, err := c.CallTool(ctx, mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: "load_saved_history_id"},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)

	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "first check")

	require.NoError(t, store.Save("424242"))

	result, err = c.CallTool(ctx, mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: "load_saved_history_id"},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)

	text, ok = result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "424242")
}
