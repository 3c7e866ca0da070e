package agent

import (
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromMCPTool(t *testing.T) {
	tool := fromMCPTool(mcp.NewTool(
		"echo",
		mcp.WithDescription("Echoes input"),
		mcp.WithString("text", mcp.Required(), mcp.Description("Text to echo")),
	))

	assert.Equal(t, "echo", tool.Name)
	assert.Equal(t, "Echoes input", tool.Description)
	assert.Contains(t, string(tool.Parameters), "text")
}

func TestToMCPCallToolRequest(t *testing.T) {
	req := toMCPCallToolRequest(ToolCall{
		ID:        "c1",
		Name:      "echo",
		Arguments: `{"text":"hi"}`,
	})

	assert.Equal(t, "echo", req.Params.Name)

	args, ok := req.Params.Arguments.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "hi", args["text"])
}

func TestToMCPCallToolRequestInvalidJSON(t *testing.T) {
	req := toMCPCallToolRequest(ToolCall{Name: "echo", Arguments: "not json"})
	assert.Equal(t, "not json", req.Params.Arguments)
}

func TestFromMCPCallToolResult(t *testing.T) {
	result := fromMCPCallToolResult("c1", &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: "line one"},
			mcp.TextContent{Type: "text", Text: "line two"},
		},
	})

	assert.Equal(t, "c1", result.ToolCallID)
	assert.Equal(t, "line one\nline two", result.Content)
	assert.False(t, result.IsError)
}

func TestFromMCPCallToolResultNil(t *testing.T) {
	result := fromMCPCallToolResult("c1", nil)
	assert.True(t, result.IsError)
}
