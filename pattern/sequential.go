package pattern

import (
	"context"

	"github.com/hupe1980/agentweave/core"
)

// Sequential executes agents one after another in the exact order given.
// Each agent receives the original task plus an accumulated context exposing
// every previous agent's output under core.PreviousResultsKey.
//
// With FailFast (the default) the first agent error aborts the chain and the
// partial trace is returned with status error. Tolerant chains record the
// failure, contribute an empty string for the failed step and continue; the
// terminal output is the last successfully produced text.
type Sequential struct {
	IDs      []string
	FailFast bool
}

// NewSequential creates a fail-fast sequential chain over the given agents.
func NewSequential(agentIDs ...string) *Sequential {
	return &Sequential{IDs: agentIDs, FailFast: true}
}

// Kind implements Pattern.
func (s *Sequential) Kind() string { return "sequential" }

// AgentIDs implements Pattern.
func (s *Sequential) AgentIDs() []string { return s.IDs }

// Validate implements Pattern.
func (s *Sequential) Validate() error {
	if len(s.IDs) == 0 {
		return &core.InvalidPatternConfigError{Pattern: s.Kind(), Reason: "at least one agent id required"}
	}
	return nil
}

// Run implements Pattern.
func (s *Sequential) Run(ctx context.Context, rt *Runtime, task string, ec core.ExecutionContext) (*core.PatternResult, error) {
	history := []core.Message{core.UserMessage(task)}
	chainCtx := ec.Clone()

	var lastText string
	produced := false
	failures := 0

	for _, id := range s.IDs {
		if rt.Cancelled(ctx) {
			return rt.cancelledResult(nil), nil
		}

		out, err := rt.InvokeRecorded(ctx, id, history, chainCtx)
		if err != nil {
			failures++
			if s.FailFast {
				return &core.PatternResult{
					FinalText: lastText,
					Status:    core.StatusError,
					Trace:     rt.Trace(),
					Metadata:  map[string]any{"failed_agent": id, "error": err.Error()},
				}, nil
			}
			// Tolerant chains contribute an empty string and continue.
			chainCtx = chainCtx.WithPreviousResult(core.AgentResult{AgentID: id})
			continue
		}

		lastText = out.Text
		produced = true
		chainCtx = chainCtx.WithPreviousResult(core.AgentResult{AgentID: id, Text: out.Text})
	}

	status := core.StatusOK
	switch {
	case !produced:
		status = core.StatusError
	case failures > 0:
		status = core.StatusPartial
	}

	return &core.PatternResult{
		FinalText: lastText,
		Status:    status,
		Trace:     rt.Trace(),
		Metadata:  map[string]any{"steps": len(s.IDs), "failures": failures},
	}, nil
}
