package agent

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
)

// Executor resolves and runs tool calls. RemoteRegistry is the usual
// implementation; tests substitute their own.
type Executor interface {
	Tools() []Tool
	Execute(ctx context.Context, call ToolCall) ToolResult
}

const defaultMaxIterations = 5

// Agent runs a reason-act loop: ask the provider, execute any tool calls
// it makes, feed the results back, and repeat until the provider answers
// in plain text or the iteration budget runs out.
type Agent struct {
	provider      Provider
	executor      Executor
	system        string
	maxIterations int
}

type Option func(*Agent)

func WithSystemPrompt(system string) Option {
	return func(a *Agent) { a.system = system }
}

func WithMaxIterations(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.maxIterations = n
		}
	}
}

func New(provider Provider, executor Executor, opts ...Option) *Agent {
	a := &Agent{
		provider:      provider,
		executor:      executor,
		maxIterations: defaultMaxIterations,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Run answers a single query, calling tools as needed.
func (a *Agent) Run(ctx context.Context, query string) (string, error) {
	messages := []Message{{Role: RoleUser, Content: query}}
	tools := a.executor.Tools()

	for i := 0; i < a.maxIterations; i++ {
		completion, err := a.provider.Complete(ctx, a.system, messages, tools)
		if err != nil {
			return "", err
		}

		if len(completion.ToolCalls) == 0 {
			return completion.Content, nil
		}

		messages = append(messages, Message{
			Role:      RoleAssistant,
			Content:   completion.Content,
			ToolCalls: completion.ToolCalls,
		})

		results := make([]ToolResult, 0, len(completion.ToolCalls))
		for _, call := range completion.ToolCalls {
			log.Info("executing tool call", "tool", call.Name, "iteration", i+1)

			result := a.executor.Execute(ctx, call)
			if result.IsError {
				log.Warn("tool call failed", "tool", call.Name, "error", result.Content)
			}

			results = append(results, result)
		}

		messages = append(messages, Message{
			Role:        RoleTool,
			ToolResults: results,
		})
	}

	return "", fmt.Errorf("no final answer after %d iterations", a.maxIterations)
}
