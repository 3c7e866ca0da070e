package tools

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	videosvc "github.com/theapemachine/toolbench/pkg/tools/video"
)

func newVideoTestServer(t *testing.T) *server.MCPServer {
	t.Helper()

	srv := server.NewMCPServer("video-test", "0.0.1",
		server.WithToolCapabilities(true),
	)
	NewVideoTool(videosvc.NewService("test-key", "")).Register(srv)

	return srv
}

func TestVideoToolRegistration(t *testing.T) {
	c := newTestClient(t, newVideoTestServer(t))

	result, err := c.ListTools(context.Background(), mcp.ListToolsRequest{})
	require.NoError(t, err)

	names := make([]string, len(result.Tools))
	for i, tool := range result.Tools {
		names[i] = tool.Name
	}

	assert.ElementsMatch(t, []string{
		"transcribe_video",
		"summarize_video_transcript",
		"summarize_video",
	}, names)
}

func TestVideoToolRejectsBadInput(t *testing.T) {
	c := newTestClient(t, newVideoTestServer(t))
	ctx := context.Background()

	cases := []struct {
		tool string
		args map[string]any
	}{
		{"transcribe_video", map[string]any{}},
		{"transcribe_video", map[string]any{"video_data_base64": "!!!"}},
		{"summarize_video_transcript", map[string]any{}},
		{"summarize_video", map[string]any{}},
		{"summarize_video", map[string]any{"video_url": "file:///tmp/v.mp4"}},
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
