package pattern

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/hupe1980/agentweave/core"
)

// RetryPolicy configures per-invocation retries. MaxAttempts counts the
// initial attempt, so 1 disables retrying. NewBackOff supplies the wait
// strategy between attempts; nil means exponential backoff.
type RetryPolicy struct {
	MaxAttempts int
	NewBackOff  func() backoff.BackOff
}

// DefaultRetryPolicy returns an exponential-backoff policy with the given
// number of attempts.
func DefaultRetryPolicy(maxAttempts int) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: maxAttempts,
		NewBackOff: func() backoff.BackOff {
			bo := backoff.NewExponentialBackOff()
			bo.InitialInterval = 250 * time.Millisecond
			return bo
		},
	}
}

func (p RetryPolicy) execute(ctx context.Context, op func() error) error {
	attempts := p.MaxAttempts
	if attempts <= 1 {
		return op()
	}

	newBackOff := p.NewBackOff
	if newBackOff == nil {
		newBackOff = func() backoff.BackOff { return backoff.NewExponentialBackOff() }
	}

	bo := backoff.WithMaxRetries(backoff.WithContext(newBackOff(), ctx), uint64(attempts-1))
	return backoff.Retry(op, bo)
}

// Invoke performs one agent invocation under the runtime's policy: limiter
// check, per-call timeout, retries, and StepRecord assembly. The record is
// returned, not recorded, so fan-out patterns can commit records in
// initiation order after collecting results into their own slots.
//
// On failure the returned error is a *core.AgentInvocationError; the record
// carries status error and the error detail.
func (rt *Runtime) Invoke(ctx context.Context, agentID string, history []core.Message, ec core.ExecutionContext) (core.Message, core.StepRecord, error) {
	started := time.Now().UTC()

	rec := core.StepRecord{
		ID:        core.NewID(),
		RunID:     rt.RunID,
		AgentID:   agentID,
		Phase:     core.PhaseInvoke,
		Input:     inputSnapshot(history),
		StartedAt: started,
	}

	agent, ok := rt.Agents[agentID]
	if !ok {
		// Resolution happens before any pattern runs, so this indicates a
		// pattern constructing ids it never declared via AgentIDs.
		err := &core.UnknownAgentError{ID: agentID}
		rec.FinishedAt = time.Now().UTC()
		rec.Status = core.StepError
		rec.ErrorDetail = err.Error()
		return core.Message{}, rec, err
	}

	if err := rt.Limiter.Increment(); err != nil {
		invErr := &core.AgentInvocationError{AgentID: agentID, Err: err}
		rec.FinishedAt = time.Now().UTC()
		rec.Status = core.StepError
		rec.ErrorDetail = invErr.Error()
		return core.Message{}, rec, invErr
	}

	timeout := rt.CallTimeout
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}

	var out core.Message
	op := func() error {
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		msg, err := agent.Invoke(callCtx, history, ec)
		if err != nil {
			return err
		}
		out = msg
		return nil
	}

	err := rt.Retry.execute(ctx, op)
	finished := time.Now().UTC()
	rec.FinishedAt = finished

	if err != nil {
		timedOut := errors.Is(err, context.DeadlineExceeded)
		invErr := &core.AgentInvocationError{AgentID: agentID, Timeout: timedOut, Err: err}
		rec.Status = core.StepError
		rec.ErrorDetail = invErr.Error()
		rt.logAgentCall(agentID, finished.Sub(started), invErr)
		return core.Message{}, rec, invErr
	}

	rec.Status = core.StepOK
	rec.Output = out
	rt.logAgentCall(agentID, finished.Sub(started), nil)
	return out, rec, nil
}

// InvokeRecorded is the single-flight convenience: invoke and immediately
// commit the record. Sequential-style patterns use this directly.
func (rt *Runtime) InvokeRecorded(ctx context.Context, agentID string, history []core.Message, ec core.ExecutionContext) (core.Message, error) {
	msg, rec, err := rt.Invoke(ctx, agentID, history, ec)
	rt.Record(rec)
	return msg, err
}

func (rt *Runtime) logAgentCall(agentID string, dur time.Duration, err error) {
	if err != nil {
		rt.Logger.Error("agent.invoke.error", "agent_id", agentID, "duration", dur, "error", err.Error())
		return
	}
	rt.Logger.Debug("agent.invoke.ok", "agent_id", agentID, "duration", dur)
}

// inputSnapshot captures the last message of the history for the trace.
// Full histories can be large; the final entry is the actual prompt the
// agent acts on.
func inputSnapshot(history []core.Message) string {
	if len(history) == 0 {
		return ""
	}
	return history[len(history)-1].Text
}
