package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hupe1980/agentweave/core"
)

// StubAgent is a deterministic core.Agent for tests. It replies with a fixed
// text (or echoes the last input when none is set), counts invocations and
// can fail or delay on demand.
type StubAgent struct {
	AgentName string
	Reply     string
	Err       error
	Delay     time.Duration

	calls atomic.Int64
	// LastHistory and LastContext capture the most recent invocation inputs.
	LastHistory []core.Message
	LastContext core.ExecutionContext
}

// NewStubAgent creates a stub replying with reply.
func NewStubAgent(name, reply string) *StubAgent {
	return &StubAgent{AgentName: name, Reply: reply}
}

// NewFailingAgent creates a stub that always fails with the given message.
func NewFailingAgent(name, errMsg string) *StubAgent {
	return &StubAgent{AgentName: name, Err: fmt.Errorf("%s", errMsg)}
}

// Name implements core.Agent.
func (a *StubAgent) Name() string { return a.AgentName }

// Invoke implements core.Agent.
func (a *StubAgent) Invoke(ctx context.Context, history []core.Message, ec core.ExecutionContext) (core.Message, error) {
	a.calls.Add(1)
	a.LastHistory = history
	a.LastContext = ec

	if a.Delay > 0 {
		select {
		case <-time.After(a.Delay):
		case <-ctx.Done():
			return core.Message{}, ctx.Err()
		}
	}

	if a.Err != nil {
		return core.Message{}, a.Err
	}

	reply := a.Reply
	if reply == "" && len(history) > 0 {
		reply = "echo: " + history[len(history)-1].Text
	}

	return core.AssistantMessage(reply), nil
}

// Calls returns how many times the agent was invoked.
func (a *StubAgent) Calls() int { return int(a.calls.Load()) }

// ScriptedAgent replies with scripted responses in order, repeating the last
// one once the script is exhausted.
type ScriptedAgent struct {
	AgentName string
	Script    []string

	calls atomic.Int64
}

// NewScriptedAgent creates an agent cycling through the given replies.
func NewScriptedAgent(name string, script ...string) *ScriptedAgent {
	return &ScriptedAgent{AgentName: name, Script: script}
}

// Name implements core.Agent.
func (a *ScriptedAgent) Name() string { return a.AgentName }

// Invoke implements core.Agent.
func (a *ScriptedAgent) Invoke(_ context.Context, _ []core.Message, _ core.ExecutionContext) (core.Message, error) {
	n := int(a.calls.Add(1)) - 1
	if n >= len(a.Script) {
		n = len(a.Script) - 1
	}
	return core.AssistantMessage(a.Script[n]), nil
}

// Calls returns how many times the agent was invoked.
func (a *ScriptedAgent) Calls() int { return int(a.calls.Load()) }
