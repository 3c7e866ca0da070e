package tools

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var calendarToolNames = []string{
	"list_calendars",
	"get_calendar",
	"create_calendar",
	"delete_calendar",
	"list_events",
	"get_event",
	"create_event",
	"update_event",
	"delete_event",
	"find_free_busy",
	"quick_add_event",
	"authenticate_calendar",
}

func TestCalendarToolRegistration(t *testing.T) {
	srv := server.NewMCPServer("calendar-test", "0.0.1",
		server.WithToolCapabilities(true),
	)
	NewCalendarTool(nil, nil).Register(srv)

	c := newTestClient(t, srv)

	result, err := c.ListTools(context.Background(), mcp.ListToolsRequest{})
	require.NoError(t, err)

	names := make([]string, len(result.Tools))
	for i, tool := range result.Tools {
		names[i] = tool.Name
	}

	assert.Len(t, result.Tools, len(calendarToolNames))
	for _, name := range calendarToolNames {
		assert.Contains(t, names, name)
	}
}

func TestCalendarToolMissingArguments(t *testing.T) {
	srv := server.NewMCPServer("calendar-test", "0.0.1",
		server.WithToolCapabilities(true),
	)
	NewCalendarTool(nil, nil).Register(srv)

	c := newTestClient(t, srv)
	ctx := context.Background()

	cases := []struct {
		tool string
		args map[string]any
	}{
		{"get_calendar", map[string]any{}},
		{"delete_event", map[string]any{"calendar_id": "primary"}},
		{"quick_add_event", map[string]any{}},
		{"find_free_busy", map[string]any{"start_time": "2026-01-01", "end_time": "2026-01-02"}},
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
