package agent

import (
	"context"

	"github.com/hupe1980/agentweave/core"
)

// InvokeFunc is the signature of a function-backed agent.
type InvokeFunc func(ctx context.Context, history []core.Message, ec core.ExecutionContext) (core.Message, error)

// FuncAgent adapts an ordinary function to the core.Agent interface. It is
// the quickest way to register deterministic agents in tests and examples,
// or to wrap bespoke backends without a full Model implementation.
type FuncAgent struct {
	name string
	fn   InvokeFunc
}

// NewFuncAgent creates a function-backed agent.
func NewFuncAgent(name string, fn InvokeFunc) *FuncAgent {
	return &FuncAgent{name: name, fn: fn}
}

// Name implements core.Agent.
func (a *FuncAgent) Name() string { return a.name }

// Invoke implements core.Agent.
func (a *FuncAgent) Invoke(ctx context.Context, history []core.Message, ec core.ExecutionContext) (core.Message, error) {
	return a.fn(ctx, history, ec)
}

// NewStaticAgent creates an agent that always replies with the same text.
func NewStaticAgent(name, reply string) *FuncAgent {
	return NewFuncAgent(name, func(context.Context, []core.Message, core.ExecutionContext) (core.Message, error) {
		return core.AssistantMessage(reply), nil
	})
}
