package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTrace() ExecutionTrace {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return ExecutionTrace{
		{ID: NewID(), AgentID: "", Phase: PhaseDispatch, StartedAt: start, FinishedAt: start, Status: StepOK},
		{ID: NewID(), AgentID: "writer", Phase: PhaseInvoke, Input: "draft it", Output: AssistantMessage("draft"), StartedAt: start, FinishedAt: start.Add(time.Second), Status: StepOK},
		{ID: NewID(), AgentID: "critic", Phase: PhaseInvoke, Input: "review it", StartedAt: start.Add(time.Second), FinishedAt: start.Add(2 * time.Second), Status: StepError, ErrorDetail: "boom"},
		{ID: NewID(), AgentID: "", Phase: PhaseComplete, StartedAt: start, FinishedAt: start.Add(2 * time.Second), Status: StepOK},
	}
}

func TestExecutionTrace_JSONRoundTrip(t *testing.T) {
	trace := sampleTrace()

	data, err := json.Marshal(trace)
	require.NoError(t, err)

	var decoded ExecutionTrace
	require.NoError(t, json.Unmarshal(data, &decoded))

	require.Len(t, decoded, len(trace))
	for i := range trace {
		assert.Equal(t, trace[i].AgentID, decoded[i].AgentID)
		assert.Equal(t, trace[i].Phase, decoded[i].Phase)
		assert.Equal(t, trace[i].Status, decoded[i].Status)
		assert.Equal(t, trace[i].ErrorDetail, decoded[i].ErrorDetail)
		assert.True(t, trace[i].StartedAt.Equal(decoded[i].StartedAt))
		assert.True(t, trace[i].FinishedAt.Equal(decoded[i].FinishedAt))
	}
}

func TestStepRecord_Duration(t *testing.T) {
	trace := sampleTrace()

	for _, step := range trace {
		assert.GreaterOrEqual(t, step.Duration(), time.Duration(0))
	}
	assert.Equal(t, time.Second, trace[1].Duration())
}

func TestExecutionTrace_Helpers(t *testing.T) {
	trace := sampleTrace()

	assert.Equal(t, 1, trace.ErrorCount())
	assert.Len(t, trace.InvokeSteps(), 2)
	assert.Equal(t, "writer", trace.InvokeSteps()[0].AgentID)
}

func TestNewID_Unique(t *testing.T) {
	assert.NotEqual(t, NewID(), NewID())
}
