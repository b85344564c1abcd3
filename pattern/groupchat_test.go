package pattern

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentweave/core"
	"github.com/hupe1980/agentweave/internal/testutil"
)

func TestGroupChat_Validate(t *testing.T) {
	var invalid *core.InvalidPatternConfigError
	require.ErrorAs(t, NewGroupChat(2, "only").Validate(), &invalid)
	require.ErrorAs(t, NewGroupChat(0, "a", "b").Validate(), &invalid)
	require.ErrorAs(t, (&GroupChat{IDs: []string{"a", "b"}}).Validate(), &invalid)

	bad := &GroupChat{IDs: []string{"a", "b"}, Strategy: ConsensusDriven{Threshold: 1.5, MaxRounds: 2}}
	require.ErrorAs(t, bad.Validate(), &invalid)

	assert.NoError(t, NewGroupChat(2, "a", "b").Validate())
}

func TestGroupChat_RoundRobinTurnCount(t *testing.T) {
	a := testutil.NewStubAgent("a", "point from a")
	b := testutil.NewStubAgent("b", "point from b")
	c := testutil.NewStubAgent("c", "point from c")
	rt := newTestRuntime(a, b, c)

	res, err := NewGroupChat(2, "a", "b", "c").Run(context.Background(), rt, "debate", nil)
	require.NoError(t, err)

	assert.Equal(t, core.StatusOK, res.Status)
	assert.Equal(t, 6, res.Metadata["turns"])
	assert.Equal(t, 2, a.Calls())
	assert.Equal(t, 2, b.Calls())
	assert.Equal(t, 2, c.Calls())
	assert.Equal(t, "point from c", res.FinalText)

	// Trace follows speaking order.
	steps := res.Trace.InvokeSteps()
	require.Len(t, steps, 6)
	assert.Equal(t, "a", steps[0].AgentID)
	assert.Equal(t, "b", steps[1].AgentID)
	assert.Equal(t, "a", steps[3].AgentID)
}

func TestGroupChat_ThreadVisibleToLaterSpeakers(t *testing.T) {
	a := testutil.NewStubAgent("a", "first opinion")
	b := testutil.NewStubAgent("b", "second opinion")
	rt := newTestRuntime(a, b)

	_, err := NewGroupChat(1, "a", "b").Run(context.Background(), rt, "discuss", nil)
	require.NoError(t, err)

	// b sees the task plus a's speaker-tagged contribution.
	require.Len(t, b.LastHistory, 2)
	assert.Equal(t, "discuss", b.LastHistory[0].Text)
	assert.Equal(t, "a: first opinion", b.LastHistory[1].Text)
	assert.Equal(t, core.RoleAssistant, b.LastHistory[1].Role)
}

func TestGroupChat_ConsensusStopsEarly(t *testing.T) {
	// Identical contributions give a consensus score of 1.0 after the second
	// turn, ending the chat before max rounds.
	a := testutil.NewStubAgent("a", "the answer is forty two")
	b := testutil.NewStubAgent("b", "the answer is forty two")
	rt := newTestRuntime(a, b)

	p := &GroupChat{IDs: []string{"a", "b"}, Strategy: ConsensusDriven{Threshold: 0.8, MaxRounds: 5}}

	res, err := p.Run(context.Background(), rt, "settle this", nil)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Metadata["turns"])
	assert.InDelta(t, 1.0, res.Metadata["consensus_score"], 0.001)
}

func TestGroupChat_FailedTurnContinues(t *testing.T) {
	a := testutil.NewFailingAgent("a", "offline")
	b := testutil.NewStubAgent("b", "carrying on")
	rt := newTestRuntime(a, b)

	res, err := NewGroupChat(1, "a", "b").Run(context.Background(), rt, "discuss", nil)
	require.NoError(t, err)

	assert.Equal(t, core.StatusPartial, res.Status)
	assert.Equal(t, "carrying on", res.FinalText)
	assert.Equal(t, 2, res.Metadata["turns"])

	// The failed contribution is skipped in b's view of the thread.
	require.Len(t, b.LastHistory, 1)
	assert.Equal(t, "discuss", b.LastHistory[0].Text)
}

func TestConsensusScore(t *testing.T) {
	assert.Zero(t, ConsensusScore(nil))
	assert.Zero(t, ConsensusScore([]Contribution{{AgentID: "a", Text: "alone"}}))

	thread := []Contribution{
		{AgentID: "a", Text: "Ship it now."},
		{AgentID: "b", Text: "ship it now"},
	}
	assert.InDelta(t, 1.0, ConsensusScore(thread), 0.001)

	disjoint := []Contribution{
		{AgentID: "a", Text: "red green"},
		{AgentID: "b", Text: "blue yellow"},
	}
	assert.Zero(t, ConsensusScore(disjoint))
}
