package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/agentweave/core"
	"github.com/hupe1980/agentweave/model"
)

// ModelAgentOptions configures a ModelAgent instance.
//
// Use functional options with NewModelAgent to override defaults.
type ModelAgentOptions struct {
	Instruction Instruction
	// MaxHistoryMessages bounds the conversation window passed to the model;
	// older messages are dropped from the front. 0 keeps everything.
	MaxHistoryMessages int
	// IncludePreviousResults renders accumulated upstream outputs from the
	// execution context into the system instructions, so chained patterns
	// feed earlier contributions to the model without mutating the history.
	IncludePreviousResults bool
}

// ModelAgent backs the core.Agent invoke contract with a language model.
// Each invocation resolves the instruction (static or provider-derived),
// optionally renders upstream pattern results into it, and performs one
// generation call.
type ModelAgent struct {
	name                   string
	llm                    model.Model
	instruction            Instruction
	maxHistoryMessages     int
	includePreviousResults bool
}

// NewModelAgent creates a model-backed agent with sensible defaults: a
// generic assistant instruction, a 20-message history window and
// previous-result injection enabled.
func NewModelAgent(name string, llm model.Model, optFns ...func(o *ModelAgentOptions)) *ModelAgent {
	opts := ModelAgentOptions{
		Instruction:            NewInstructionFromText(fmt.Sprintf("You are %s, a helpful AI assistant.", name)),
		MaxHistoryMessages:     20,
		IncludePreviousResults: true,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &ModelAgent{
		name:                   name,
		llm:                    llm,
		instruction:            opts.Instruction,
		maxHistoryMessages:     opts.MaxHistoryMessages,
		includePreviousResults: opts.IncludePreviousResults,
	}
}

// Name implements core.Agent.
func (a *ModelAgent) Name() string { return a.name }

// Model returns the underlying language model.
func (a *ModelAgent) Model() model.Model { return a.llm }

// Invoke implements core.Agent.
func (a *ModelAgent) Invoke(ctx context.Context, history []core.Message, ec core.ExecutionContext) (core.Message, error) {
	instructions, err := a.instruction.Resolve(ec)
	if err != nil {
		return core.Message{}, fmt.Errorf("resolve instructions: %w", err)
	}

	if a.includePreviousResults {
		if prior := ec.PreviousResults(); len(prior) > 0 {
			instructions = instructions + "\n\nResults from earlier agents:\n" + renderResults(prior)
		}
	}

	window := history
	if a.maxHistoryMessages > 0 && len(window) > a.maxHistoryMessages {
		window = window[len(window)-a.maxHistoryMessages:]
	}

	resp, err := a.llm.Generate(ctx, model.Request{
		Instructions: instructions,
		Messages:     window,
	})
	if err != nil {
		return core.Message{}, fmt.Errorf("model generate: %w", err)
	}

	return core.AssistantMessage(resp.Text), nil
}

func renderResults(results []core.AgentResult) string {
	var b strings.Builder
	for _, r := range results {
		fmt.Fprintf(&b, "- %s: %s\n", r.AgentID, r.Text)
	}
	return b.String()
}
