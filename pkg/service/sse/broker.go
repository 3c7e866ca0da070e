package sse

import (
	"context"
	"net/http"

	"github.com/mark3labs/mcp-go/server"
)

// MCPBroker pairs an MCP server with its SSE transport. Each tool family
// (gmail, calendar, drive, jira, browser, video) runs its own broker on its
// own port, mirroring the one-process-per-tool deployment model.
type MCPBroker struct {
	srv *server.MCPServer
	sse *server.SSEServer
}

// NewMCPBroker constructs a named MCP server wrapped in an SSE transport.
// Tools are registered by the caller via Server().
func NewMCPBroker(name, version string) *MCPBroker {
	mcpSrv := server.NewMCPServer(
		name,
		version,
		server.WithLogging(),
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	sseSrv := server.NewSSEServer(mcpSrv)

	return &MCPBroker{
		srv: mcpSrv,
		sse: sseSrv,
	}
}

// Server exposes the underlying MCP server for tool registration.
func (b *MCPBroker) Server() *server.MCPServer {
	return b.srv
}

// Handler exposes the SSE transport as an http.Handler for embedding.
func (b *MCPBroker) Handler() http.Handler {
	return b.sse
}

// Start blocks serving SSE on addr.
func (b *MCPBroker) Start(addr string) error {
	return b.sse.Start(addr)
}

// Shutdown stops the SSE server.
func (b *MCPBroker) Shutdown(ctx context.Context) error {
	return b.sse.Shutdown(ctx)
}
