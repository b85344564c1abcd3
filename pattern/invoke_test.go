package pattern

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentweave/core"
	"github.com/hupe1980/agentweave/internal/testutil"
)

func TestInvoke_Timeout(t *testing.T) {
	slow := testutil.NewStubAgent("slow", "too late")
	slow.Delay = 200 * time.Millisecond
	rt := newTestRuntime(slow)
	rt.CallTimeout = 20 * time.Millisecond

	_, rec, err := rt.Invoke(context.Background(), "slow", []core.Message{core.UserMessage("go")}, nil)

	var inv *core.AgentInvocationError
	require.ErrorAs(t, err, &inv)
	assert.True(t, inv.Timeout)
	assert.Equal(t, "slow", inv.AgentID)
	assert.Equal(t, core.StepError, rec.Status)
	assert.NotEmpty(t, rec.ErrorDetail)
}

func TestInvoke_RetrySucceedsAfterFailures(t *testing.T) {
	attempts := 0
	flaky := &flakyAgent{failures: 2, onCall: func() { attempts++ }}
	rt := newTestRuntime(flaky)
	rt.Retry = RetryPolicy{
		MaxAttempts: 3,
		NewBackOff:  func() backoff.BackOff { return backoff.NewConstantBackOff(time.Millisecond) },
	}

	msg, rec, err := rt.Invoke(context.Background(), "flaky", []core.Message{core.UserMessage("go")}, nil)
	require.NoError(t, err)

	assert.Equal(t, "recovered", msg.Text)
	assert.Equal(t, core.StepOK, rec.Status)
	assert.Equal(t, 3, attempts)
}

func TestInvoke_RetryExhausted(t *testing.T) {
	always := testutil.NewFailingAgent("down", "still broken")
	rt := newTestRuntime(always)
	rt.Retry = RetryPolicy{
		MaxAttempts: 2,
		NewBackOff:  func() backoff.BackOff { return backoff.NewConstantBackOff(time.Millisecond) },
	}

	_, _, err := rt.Invoke(context.Background(), "down", []core.Message{core.UserMessage("go")}, nil)

	var inv *core.AgentInvocationError
	require.ErrorAs(t, err, &inv)
	assert.Equal(t, 2, always.Calls())
}

func TestInvoke_LimiterExceeded(t *testing.T) {
	a := testutil.NewStubAgent("a", "ok")
	rt := newTestRuntime(a)
	rt.Limiter = core.NewInvocationLimiter(1)

	_, _, err := rt.Invoke(context.Background(), "a", []core.Message{core.UserMessage("one")}, nil)
	require.NoError(t, err)

	_, rec, err := rt.Invoke(context.Background(), "a", []core.Message{core.UserMessage("two")}, nil)

	var inv *core.AgentInvocationError
	require.ErrorAs(t, err, &inv)
	assert.Equal(t, core.StepError, rec.Status)
	// The agent itself is never reached once the budget is spent.
	assert.Equal(t, 1, a.Calls())
}

func TestInvoke_UnknownAgent(t *testing.T) {
	rt := newTestRuntime()

	_, rec, err := rt.Invoke(context.Background(), "ghost", nil, nil)

	var unknown *core.UnknownAgentError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, core.StepError, rec.Status)
}

func TestInvokeRecorded_CommitsImmediately(t *testing.T) {
	a := testutil.NewStubAgent("a", "ok")
	rt := newTestRuntime(a)

	_, err := rt.InvokeRecorded(context.Background(), "a", []core.Message{core.UserMessage("go")}, nil)
	require.NoError(t, err)

	trace := rt.Trace()
	require.Len(t, trace, 1)
	assert.Equal(t, core.PhaseInvoke, trace[0].Phase)
	assert.Equal(t, "go", trace[0].Input)
	assert.Equal(t, "ok", trace[0].Output.Text)
	assert.False(t, trace[0].FinishedAt.Before(trace[0].StartedAt))
}

// flakyAgent fails a fixed number of times before succeeding.
type flakyAgent struct {
	failures int
	calls    int
	onCall   func()
}

func (f *flakyAgent) Name() string { return "flaky" }

func (f *flakyAgent) Invoke(context.Context, []core.Message, core.ExecutionContext) (core.Message, error) {
	f.calls++
	if f.onCall != nil {
		f.onCall()
	}
	if f.calls <= f.failures {
		return core.Message{}, errors.New("transient")
	}
	return core.AssistantMessage("recovered"), nil
}
