package agent

import "context"

// Completion is what a provider returned for one turn: assistant text,
// tool calls, or both.
type Completion struct {
	Content   string
	ToolCalls []ToolCall
}

// Provider abstracts an LLM chat API with tool calling.
type Provider interface {
	Complete(ctx context.Context, system string, messages []Message, tools []Tool) (*Completion, error)
}
