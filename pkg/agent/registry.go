package agent

import (
	"context"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
)

// RemoteRegistry exposes the tools of one MCP server to a provider and
// proxies execution back over the connection. The tool list is cached
// locally; Refresh re-fetches it.
//
// RemoteRegistry is safe for concurrent use.
type RemoteRegistry struct {
	client *client.Client
	mu     sync.RWMutex
	tools  map[string]Tool
}

// NewRemoteRegistry connects to an MCP server over SSE, e.g.
// "http://localhost:3005/sse".
func NewRemoteRegistry(ctx context.Context, baseURL string) (*RemoteRegistry, error) {
	c, err := client.NewSSEMCPClient(baseURL)
	if err != nil {
		return nil, fmt.Errorf("creating SSE MCP client: %w", err)
	}

	return NewRemoteRegistryFromClient(ctx, c)
}

// NewRemoteRegistryFromClient wraps an existing, unstarted MCP client.
func NewRemoteRegistryFromClient(ctx context.Context, c *client.Client) (*RemoteRegistry, error) {
	if err := c.Start(ctx); err != nil {
		return nil, fmt.Errorf("starting MCP client: %w", err)
	}

	_, err := c.Initialize(ctx, mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			Capabilities:    mcp.ClientCapabilities{},
			ClientInfo: mcp.Implementation{
				Name:    "toolbench-agent",
				Version: "1.0.0",
			},
		},
	})
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("initializing MCP session: %w", err)
	}

	r := &RemoteRegistry{
		client: c,
		tools:  make(map[string]Tool),
	}

	if err := r.Refresh(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("listing tools: %w", err)
	}

	return r, nil
}

func (r *RemoteRegistry) Close() error {
	return r.client.Close()
}

// Refresh fetches the current tool list from the server.
func (r *RemoteRegistry) Refresh(ctx context.Context) error {
	result, err := r.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.tools = make(map[string]Tool, len(result.Tools))
	for _, t := range result.Tools {
		r.tools[t.Name] = fromMCPTool(t)
	}

	return nil
}

// Tools returns all cached tool definitions.
func (r *RemoteRegistry) Tools() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		tools = append(tools, t)
	}

	return tools
}

// Has reports whether the server exposes a tool with the given name.
func (r *RemoteRegistry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.tools[name]
	return ok
}

// Execute calls a tool on the remote server. Transport failures become
// error results rather than hard errors so the conversation can continue.
func (r *RemoteRegistry) Execute(ctx context.Context, call ToolCall) ToolResult {
	result, err := r.client.CallTool(ctx, toMCPCallToolRequest(call))
	if err != nil {
		return ToolResult{
			ToolCallID: call.ID,
			Content:    err.Error(),
			IsError:    true,
		}
	}

	return fromMCPCallToolResult(call.ID, result)
}
