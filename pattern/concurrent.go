package pattern

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/hupe1980/agentweave/core"
)

// Aggregation selects how a Concurrent pattern combines its outputs.
type Aggregation string

const (
	// AggregationConcat joins all successful outputs with a separator in
	// declared agent order.
	AggregationConcat Aggregation = "concat"
	// AggregationConsensus synthesizes one combined answer through an
	// explicit aggregator agent.
	AggregationConsensus Aggregation = "consensus"
	// AggregationFirstSuccess returns the first non-error output in declared
	// agent order, ignoring completion timing.
	AggregationFirstSuccess Aggregation = "first_success"
)

// DefaultSeparator joins concatenated outputs unless overridden.
const DefaultSeparator = "\n\n"

// Concurrent invokes every agent with the same task and the same initial
// context; invocations proceed independently and race freely underneath.
// Determinism is restored above the race: results land in pre-sized
// per-agent slots and trace entries are committed in declared agent order,
// so aggregation never depends on completion timing.
type Concurrent struct {
	IDs               []string
	Aggregate         Aggregation
	Separator         string
	RequireAllSuccess bool
	// AggregatorID names the agent performing consensus synthesis. It is an
	// explicit dependency of AggregationConsensus, not an implicit default.
	AggregatorID string
}

// NewConcurrent creates a concat-aggregating concurrent fan-out.
func NewConcurrent(agentIDs ...string) *Concurrent {
	return &Concurrent{IDs: agentIDs, Aggregate: AggregationConcat, Separator: DefaultSeparator}
}

// Kind implements Pattern.
func (c *Concurrent) Kind() string { return "concurrent" }

// AgentIDs implements Pattern.
func (c *Concurrent) AgentIDs() []string {
	ids := append([]string{}, c.IDs...)
	if c.Aggregate == AggregationConsensus && c.AggregatorID != "" {
		ids = append(ids, c.AggregatorID)
	}
	return ids
}

// Validate implements Pattern.
func (c *Concurrent) Validate() error {
	if len(c.IDs) < 2 {
		return &core.InvalidPatternConfigError{Pattern: c.Kind(), Reason: "at least two agent ids required"}
	}
	switch c.Aggregate {
	case AggregationConcat, AggregationFirstSuccess:
	case AggregationConsensus:
		if c.AggregatorID == "" {
			return &core.InvalidPatternConfigError{Pattern: c.Kind(), Reason: "consensus aggregation requires an aggregator agent id"}
		}
	case "":
		return &core.InvalidPatternConfigError{Pattern: c.Kind(), Reason: "aggregation policy required"}
	default:
		return &core.InvalidPatternConfigError{Pattern: c.Kind(), Reason: fmt.Sprintf("unsupported aggregation %q", c.Aggregate)}
	}
	return nil
}

// slot is the write-once result cell for one agent position.
type slot struct {
	msg core.Message
	rec core.StepRecord
	err error
}

// Run implements Pattern.
func (c *Concurrent) Run(ctx context.Context, rt *Runtime, task string, ec core.ExecutionContext) (*core.PatternResult, error) {
	if rt.Cancelled(ctx) {
		return rt.cancelledResult(nil), nil
	}

	history := []core.Message{core.UserMessage(task)}
	shared := ec.Clone()

	// One pre-sized slot per agent position: every goroutine writes exactly
	// its own index, so no lock is needed on the result path.
	slots := make([]slot, len(c.IDs))

	var wg sync.WaitGroup
	for i, id := range c.IDs {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			msg, rec, err := rt.Invoke(ctx, id, history, shared)
			slots[i] = slot{msg: msg, rec: rec, err: err}
		}(i, id)
	}
	wg.Wait()

	if rt.Cancelled(ctx) {
		// In-flight invocations completed above; their results are discarded.
		return rt.cancelledResult(map[string]any{"aggregation": string(c.Aggregate)}), nil
	}

	// Commit trace entries in declared agent order, not completion order.
	for _, s := range slots {
		rt.Record(s.rec)
	}

	failures := 0
	for _, s := range slots {
		if s.err != nil {
			failures++
		}
	}

	metadata := map[string]any{
		"aggregation": string(c.Aggregate),
		"failures":    failures,
	}

	if c.RequireAllSuccess && failures > 0 {
		return &core.PatternResult{Status: core.StatusError, Trace: rt.Trace(), Metadata: metadata}, nil
	}
	if failures == len(slots) {
		return &core.PatternResult{Status: core.StatusError, Trace: rt.Trace(), Metadata: metadata}, nil
	}

	var finalText string
	switch c.Aggregate {
	case AggregationConcat:
		sep := c.Separator
		if sep == "" {
			sep = DefaultSeparator
		}
		parts := make([]string, 0, len(slots))
		for _, s := range slots {
			if s.err == nil {
				parts = append(parts, s.msg.Text)
			}
		}
		finalText = strings.Join(parts, sep)

	case AggregationFirstSuccess:
		for _, s := range slots {
			if s.err == nil {
				finalText = s.msg.Text
				break
			}
		}

	case AggregationConsensus:
		text, err := c.synthesize(ctx, rt, task, shared, slots)
		if err != nil {
			metadata["aggregator_error"] = err.Error()
			return &core.PatternResult{Status: core.StatusError, Trace: rt.Trace(), Metadata: metadata}, nil
		}
		finalText = text
	}

	status := core.StatusOK
	if failures > 0 {
		status = core.StatusPartial
	}

	return &core.PatternResult{
		FinalText: finalText,
		Status:    status,
		Trace:     rt.Trace(),
		Metadata:  metadata,
	}, nil
}

// synthesize asks the aggregator agent for one combined answer over the
// successful outputs, in declared agent order.
func (c *Concurrent) synthesize(ctx context.Context, rt *Runtime, task string, ec core.ExecutionContext, slots []slot) (string, error) {
	var b strings.Builder
	b.WriteString("Synthesize a single consensus answer for the task below from the independent responses.\n")
	b.WriteString("Task: " + task + "\n")

	aggCtx := ec.Clone()
	for i, s := range slots {
		if s.err != nil {
			continue
		}
		fmt.Fprintf(&b, "Response from %s:\n%s\n", c.IDs[i], s.msg.Text)
		aggCtx = aggCtx.WithPreviousResult(core.AgentResult{AgentID: c.IDs[i], Text: s.msg.Text})
	}

	history := []core.Message{core.UserMessage(b.String())}
	out, err := rt.InvokeRecorded(ctx, c.AggregatorID, history, aggCtx)
	if err != nil {
		return "", err
	}
	return out.Text, nil
}
