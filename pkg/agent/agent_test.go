package agent

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedProvider struct {
	completions []*Completion
	calls       int
	lastSystem  string
	lastMsgs    []Message
}

func (p *scriptedProvider) Complete(ctx context.Context, system string, messages []Message, tools []Tool) (*Completion, error) {
	p.lastSystem = system
	p.lastMsgs = messages

	c := p.completions[p.calls]
	p.calls++

	return c, nil
}

type fakeExecutor struct {
	tools    []Tool
	executed []ToolCall
	results  map[string]ToolResult
}

func (e *fakeExecutor) Tools() []Tool { return e.tools }

func (e *fakeExecutor) Execute(ctx context.Context, call ToolCall) ToolResult {
	e.executed = append(e.executed, call)

	if result, ok := e.results[call.Name]; ok {
		result.ToolCallID = call.ID
		return result
	}

	return ToolResult{ToolCallID: call.ID, Content: "ok"}
}

func TestAgentAnswersDirectly(t *testing.T) {
	provider := &scriptedProvider{
		completions: []*Completion{{Content: "the answer"}},
	}
	executor := &fakeExecutor{}

	a := New(provider, executor, WithSystemPrompt("be brief"))

	answer, err := a.Run(context.Background(), "question")
	require.NoError(t, err)
	assert.Equal(t, "the answer", answer)
	assert.Equal(t, "be brief", provider.lastSystem)
	assert.Empty(t, executor.executed)
}

func TestAgentExecutesToolCallsThenAnswers(t *testing.T) {
	provider := &scriptedProvider{
		completions: []*Completion{
			{ToolCalls: []ToolCall{{ID: "c1", Name: "lookup", Arguments: `{"q":"x"}`}}},
			{Content: "done"},
		},
	}
	executor := &fakeExecutor{
		tools:   []Tool{{Name: "lookup"}},
		results: map[string]ToolResult{"lookup": {Content: "found it"}},
	}

	a := New(provider, executor)

	answer, err := a.Run(context.Background(), "find x")
	require.NoError(t, err)
	assert.Equal(t, "done", answer)

	require.Len(t, executor.executed, 1)
	assert.Equal(t, "lookup", executor.executed[0].Name)

	// the provider saw user, assistant tool call, and tool result turns
	require.Len(t, provider.lastMsgs, 3)
	assert.Equal(t, RoleUser, provider.lastMsgs[0].Role)
	assert.Equal(t, RoleAssistant, provider.lastMsgs[1].Role)
	assert.Equal(t, RoleTool, provider.lastMsgs[2].Role)
	assert.Equal(t, "found it", provider.lastMsgs[2].ToolResults[0].Content)
	assert.Equal(t, "c1", provider.lastMsgs[2].ToolResults[0].ToolCallID)
}

func TestAgentStopsAfterMaxIterations(t *testing.T) {
	looping := &Completion{
		ToolCalls: []ToolCall{{ID: "c", Name: "spin", Arguments: "{}"}},
	}
	provider := &scriptedProvider{
		completions: []*Completion{looping, looping, looping},
	}
	executor := &fakeExecutor{tools: []Tool{{Name: "spin"}}}

	a := New(provider, executor, WithMaxIterations(3))

	_, err := a.Run(context.Background(), "loop forever")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "3 iterations")
	assert.Len(t, executor.executed, 3)
}

func TestOpenAIToolsConversion(t *testing.T) {
	tools := openaiTools([]Tool{{
		Name:        "get_weather",
		Description: "Get the weather",
		Parameters:  json.RawMessage(`{"type":"object","properties":{"city":{"type":"string"}},"required":["city"]}`),
	}})

	require.Len(t, tools, 1)
	assert.Equal(t, "get_weather", tools[0].Function.Name)
	assert.Contains(t, tools[0].Function.Parameters, "properties")
}

func TestAnthropicToolsConversion(t *testing.T) {
	tools := anthropicTools([]Tool{{
		Name:        "get_weather",
		Description: "Get the weather",
		Parameters:  json.RawMessage(`{"type":"object","properties":{"city":{"type":"string"}},"required":["city"]}`),
	}})

	require.Len(t, tools, 1)
	require.NotNil(t, tools[0].OfTool)
	assert.Equal(t, "get_weather", tools[0].OfTool.Name)
	assert.Equal(t, []string{"city"}, tools[0].OfTool.InputSchema.Required)
}
