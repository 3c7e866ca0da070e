package tools

import (
	"context"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/theapemachine/toolbench/pkg/auth"
)

// authStatusResult reports authentication state without ever opening a
// browser: the consent flow has to happen out of band (the auth command),
// so a failing probe returns the consent URL for the operator to follow.
func authStatusResult(ctx context.Context, authenticator *auth.Authenticator, probe func(context.Context) error) (*mcp.CallToolResult, error) {
	status := authenticator.Status()

	if !status.Authenticated {
		return mcp.NewToolResultJSON(map[string]any{
			"authenticated": false,
			"message":       "no stored token, run the auth command to authorize",
			"auth_url":      authenticator.AuthURL(uuid.NewString()),
		})
	}

	if err := probe(ctx); err != nil {
		return mcp.NewToolResultJSON(map[string]any{
			"authenticated": false,
			"message":       "stored token was rejected: " + err.Error(),
			"auth_url":      authenticator.AuthURL(uuid.NewString()),
		})
	}

	return mcp.NewToolResultJSON(map[string]any{
		"authenticated": true,
		"token_expiry":  status.Expiry,
	})
}
