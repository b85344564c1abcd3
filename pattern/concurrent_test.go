package pattern

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentweave/core"
	"github.com/hupe1980/agentweave/internal/testutil"
)

func TestConcurrent_ValidateMinimumAgents(t *testing.T) {
	a1 := testutil.NewStubAgent("a1", "one")

	err := NewConcurrent("a1").Validate()

	var invalid *core.InvalidPatternConfigError
	require.ErrorAs(t, err, &invalid)
	// Validation happens before any invocation.
	assert.Equal(t, 0, a1.Calls())
}

func TestConcurrent_ValidateConsensusNeedsAggregator(t *testing.T) {
	p := NewConcurrent("a1", "a2")
	p.Aggregate = AggregationConsensus

	var invalid *core.InvalidPatternConfigError
	require.ErrorAs(t, p.Validate(), &invalid)
}

func TestConcurrent_ConcatDeterministicOrder(t *testing.T) {
	// Delays are reversed relative to declaration order: completion order is
	// c, b, a but output and trace must follow agent_ids order.
	a := testutil.NewStubAgent("a", "A")
	a.Delay = 60 * time.Millisecond
	b := testutil.NewStubAgent("b", "B")
	b.Delay = 30 * time.Millisecond
	c := testutil.NewStubAgent("c", "C")
	rt := newTestRuntime(a, b, c)

	res, err := NewConcurrent("a", "b", "c").Run(context.Background(), rt, "task", nil)
	require.NoError(t, err)

	assert.Equal(t, core.StatusOK, res.Status)
	assert.Equal(t, "A\n\nB\n\nC", res.FinalText)

	steps := res.Trace.InvokeSteps()
	require.Len(t, steps, 3)
	assert.Equal(t, "a", steps[0].AgentID)
	assert.Equal(t, "b", steps[1].AgentID)
	assert.Equal(t, "c", steps[2].AgentID)
}

func TestConcurrent_FirstSuccessIgnoresTiming(t *testing.T) {
	a := testutil.NewFailingAgent("a", "down")
	b := testutil.NewStubAgent("b", "B")
	b.Delay = 40 * time.Millisecond
	c := testutil.NewStubAgent("c", "C")
	rt := newTestRuntime(a, b, c)

	p := NewConcurrent("a", "b", "c")
	p.Aggregate = AggregationFirstSuccess

	res, err := p.Run(context.Background(), rt, "task", nil)
	require.NoError(t, err)

	// c completes first, but b is first in declared order among successes.
	assert.Equal(t, "B", res.FinalText)
	assert.Equal(t, core.StatusPartial, res.Status)
}

func TestConcurrent_PartialFailureExcludedFromConcat(t *testing.T) {
	a := testutil.NewStubAgent("a", "A")
	b := testutil.NewFailingAgent("b", "down")
	rt := newTestRuntime(a, b)

	res, err := NewConcurrent("a", "b").Run(context.Background(), rt, "task", nil)
	require.NoError(t, err)

	assert.Equal(t, core.StatusPartial, res.Status)
	assert.Equal(t, "A", res.FinalText)
	assert.Equal(t, 1, res.Metadata["failures"])
}

func TestConcurrent_RequireAllSuccess(t *testing.T) {
	a := testutil.NewStubAgent("a", "A")
	b := testutil.NewFailingAgent("b", "down")
	rt := newTestRuntime(a, b)

	p := NewConcurrent("a", "b")
	p.RequireAllSuccess = true

	res, err := p.Run(context.Background(), rt, "task", nil)
	require.NoError(t, err)

	assert.Equal(t, core.StatusError, res.Status)
}

func TestConcurrent_AllFailed(t *testing.T) {
	a := testutil.NewFailingAgent("a", "down")
	b := testutil.NewFailingAgent("b", "down")
	rt := newTestRuntime(a, b)

	res, err := NewConcurrent("a", "b").Run(context.Background(), rt, "task", nil)
	require.NoError(t, err)

	assert.Equal(t, core.StatusError, res.Status)
	assert.Equal(t, 2, res.Trace.ErrorCount())
}

func TestConcurrent_ConsensusSynthesis(t *testing.T) {
	a := testutil.NewStubAgent("a", "the answer is blue")
	b := testutil.NewStubAgent("b", "blue, most likely")
	agg := testutil.NewStubAgent("agg", "consensus: blue")
	rt := newTestRuntime(a, b, agg)

	p := NewConcurrent("a", "b")
	p.Aggregate = AggregationConsensus
	p.AggregatorID = "agg"

	res, err := p.Run(context.Background(), rt, "pick a color", nil)
	require.NoError(t, err)

	assert.Equal(t, "consensus: blue", res.FinalText)
	assert.Equal(t, 1, agg.Calls())

	// The aggregator is an explicit dependency and sees both outputs.
	prompt := agg.LastHistory[len(agg.LastHistory)-1].Text
	assert.Contains(t, prompt, "the answer is blue")
	assert.Contains(t, prompt, "blue, most likely")
	assert.Contains(t, prompt, "pick a color")
}

func TestConcurrent_SharesSameInitialContext(t *testing.T) {
	a := testutil.NewStubAgent("a", "A")
	b := testutil.NewStubAgent("b", "B")
	rt := newTestRuntime(a, b)

	_, err := NewConcurrent("a", "b").Run(context.Background(), rt, "task", core.ExecutionContext{"region": "eu"})
	require.NoError(t, err)

	// No chain: both agents see the initial context, no previous_results.
	assert.Equal(t, "eu", a.LastContext["region"])
	assert.Empty(t, a.LastContext.PreviousResults())
	assert.Empty(t, b.LastContext.PreviousResults())
}
