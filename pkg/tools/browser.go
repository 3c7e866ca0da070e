package tools

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/theapemachine/toolbench/pkg/tools/browser"
)

// BrowserTool exposes headless browser automation as MCP tools. Each call
// runs in a fresh browser; no state is shared between calls.
type BrowserTool struct{}

func NewBrowserTool() *BrowserTool {
	return &BrowserTool{}
}

func (bt *BrowserTool) Register(srv *server.MCPServer) {
	srv.AddTool(mcp.NewTool(
		"browser_fetch",
		mcp.WithDescription("Load a web page in a headless browser and extract its visible text, optionally restricted to a CSS selector."),
		mcp.WithString("url", mcp.Required(), mcp.Description("The page URL (http, https or data)")),
		mcp.WithString("selector", mcp.Description("CSS selector to extract, defaults to the whole body")),
		mcp.WithString("wait_for", mcp.Description("CSS selector to wait for before extracting")),
		mcp.WithBoolean("screenshot", mcp.Description("Include a base64 screenshot in the result")),
	), bt.handleFetch)

	srv.AddTool(mcp.NewTool(
		"browser_screenshot",
		mcp.WithDescription("Load a web page and capture a full page screenshot, base64 encoded."),
		mcp.WithString("url", mcp.Required(), mcp.Description("The page URL to capture")),
	), bt.handleScreenshot)

	srv.AddTool(mcp.NewTool(
		"browser_click",
		mcp.WithDescription("Load a web page, click the element matching a CSS selector and return the resulting page state."),
		mcp.WithString("url", mcp.Required(), mcp.Description("The page URL")),
		mcp.WithString("selector", mcp.Required(), mcp.Description("CSS selector of the element to click")),
		mcp.WithBoolean("screenshot", mcp.Description("Include a base64 screenshot of the result")),
	), bt.handleClick)

	srv.AddTool(mcp.NewTool(
		"browser_fill",
		mcp.WithDescription("Load a web page, type a value into the element matching a CSS selector and optionally submit with Enter."),
		mcp.WithString("url", mcp.Required(), mcp.Description("The page URL")),
		mcp.WithString("selector", mcp.Required(), mcp.Description("CSS selector of the input element")),
		mcp.WithString("value", mcp.Required(), mcp.Description("The text to type")),
		mcp.WithBoolean("submit", mcp.Description("Press Enter after typing")),
		mcp.WithBoolean("screenshot", mcp.Description("Include a base64 screenshot of the result")),
	), bt.handleFill)

	srv.AddTool(mcp.NewTool(
		"browser_evaluate",
		mcp.WithDescription("Load a web page and evaluate a JavaScript function in the page context, e.g. () => document.title."),
		mcp.WithString("url", mcp.Required(), mcp.Description("The page URL")),
		mcp.WithString("script", mcp.Required(), mcp.Description("JavaScript function to evaluate")),
	), bt.handleEvaluate)
}

func (bt *BrowserTool) handleFetch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageURL, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	log.Info("browser_fetch executing", "url", pageURL)

	result, err := browser.Fetch(ctx, pageURL,
		req.GetString("selector", ""),
		req.GetBool("screenshot", false),
		req.GetString("wait_for", ""),
	)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultJSON(result)
}

func (bt *BrowserTool) handleScreenshot(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageURL, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	log.Info("browser_screenshot executing", "url", pageURL)

	result, err := browser.Screenshot(ctx, pageURL)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultJSON(result)
}

func (bt *BrowserTool) handleClick(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageURL, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	selector, err := req.RequireString("selector")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	log.Info("browser_click executing", "url", pageURL, "selector", selector)

	result, err := browser.Click(ctx, pageURL, selector, req.GetBool("screenshot", false))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultJSON(result)
}

func (bt *BrowserTool) handleFill(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageURL, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	selector, err := req.RequireString("selector")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	value, err := req.RequireString("value")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	log.Info("browser_fill executing", "url", pageURL, "selector", selector)

	result, err := browser.Fill(ctx, pageURL, selector, value,
		req.GetBool("submit", false),
		req.GetBool("screenshot", false),
	)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultJSON(result)
}

func (bt *BrowserTool) handleEvaluate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageURL, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	script, err := req.RequireString("script")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	log.Info("browser_evaluate executing", "url", pageURL)

	result, err := browser.Evaluate(ctx, pageURL, script)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultJSON(result)
}
