package tools

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var driveToolNames = []string{
	"list_drive_files",
	"get_file_metadata",
	"create_drive_folder",
	"create_drive_document",
	"create_drive_spreadsheet",
	"create_drive_presentation",
	"download_drive_file",
	"delete_drive_file",
	"share_drive_file",
	"upload_file_to_drive",
	"move_drive_file",
	"get_document_content",
	"update_document_content",
	"get_spreadsheet_content",
	"update_spreadsheet_content",
	"update_spreadsheet_values",
	"get_presentation_content",
	"update_presentation_content",
	"authenticate_drive",
}

func newDriveTestServer(t *testing.T) *server.MCPServer {
	t.Helper()

	srv := server.NewMCPServer("drive-test", "0.0.1",
		server.WithToolCapabilities(true),
	)
	NewDriveTool(nil, nil).Register(srv)

	return srv
}

func TestDriveToolRegistration(t *testing.T) {
	c := newTestClient(t, newDriveTestServer(t))

	result, err := c.ListTools(context.Background(), mcp.ListToolsRequest{})
	require.NoError(t, err)

	names := make([]string, len(result.Tools))
	for i, tool := range result.Tools {
		names[i] = tool.Name
	}

	assert.Len(t, result.Tools, len(driveToolNames))
	for _, name := range driveToolNames {
		assert.Contains(t, names, name)
	}
}

func TestDriveToolMissingArguments(t *testing.T) {
	c := newTestClient(t, newDriveTestServer(t))
	ctx := context.Background()

	cases := []struct {
		tool string
		args map[string]any
	}{
		{"get_file_metadata", map[string]any{}},
		{"share_drive_file", map[string]any{"file_id": "f1"}},
		{"move_drive_file", map[string]any{"file_id": "f1"}},
		{"update_document_content", map[string]any{"document_id": "d1"}},
		{"update_document_content", map[string]any{"document_id": "d1", "requests": []any{}}},
		{"update_spreadsheet_values", map[string]any{"spreadsheet_id": "s1", "range": "A1:B2"}},
		{"update_spreadsheet_values", map[string]any{
			"spreadsheet_id": "s1",
			"range":          "A1:B2",
			"values":         []any{"not-a-row"},
		}},
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
