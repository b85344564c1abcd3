// Package pattern contains the closed set of execution strategies that
// combine multiple agents to answer one task: Sequential, Concurrent, ReAct,
// Handoff, GroupChat and Hierarchical. Each strategy is a concrete type
// satisfying Pattern; dispatch is over the type, not over strings.
//
// Patterns hold no locks and perform no blocking work of their own; the only
// suspension points are agent invocations, which the shared Runtime wraps
// with a per-call timeout and optional retry. Cancellation is checked between
// steps, never mid-invocation.
package pattern

import (
	"context"
	"strings"
	"time"

	"github.com/hupe1980/agentweave/core"
	"github.com/hupe1980/agentweave/logging"
	"github.com/hupe1980/agentweave/telemetry"
)

// DefaultCallTimeout bounds a single agent invocation unless overridden.
const DefaultCallTimeout = 120 * time.Second

// Pattern is a strategy for combining multiple agent invocations.
//
// Validate is called before any agent invocation and returns a
// *core.InvalidPatternConfigError when structural invariants are violated.
// AgentIDs lists every agent id the pattern references so the orchestrator
// can resolve them up front. Run executes the strategy; recoverable agent
// failures are encoded in the returned PatternResult status, a non-nil error
// is reserved for unclassified internal failures.
type Pattern interface {
	Kind() string
	AgentIDs() []string
	Validate() error
	Run(ctx context.Context, rt *Runtime, task string, ec core.ExecutionContext) (*core.PatternResult, error)
}

// Predicate evaluates a routing or termination condition against an agent's
// output. The matching semantics are deliberately caller-supplied: keyword
// checks, structured-output parsing or a secondary classifier call all fit.
type Predicate func(core.Message) bool

// TextContains returns a predicate matching outputs whose text contains
// substr (case-insensitive).
func TextContains(substr string) Predicate {
	return func(m core.Message) bool {
		return strings.Contains(strings.ToLower(m.Text), strings.ToLower(substr))
	}
}

// TextEquals returns a predicate matching outputs whose trimmed text equals s.
func TextEquals(s string) Predicate {
	return func(m core.Message) bool { return strings.TrimSpace(m.Text) == s }
}

// Runtime bundles the per-run collaborators a pattern needs: the resolved
// agents, capability tags, trace recorder, logger and invocation policy. The
// orchestrator constructs one Runtime per Execute call; patterns never share
// a Runtime across runs.
type Runtime struct {
	RunID        string
	Agents       map[string]core.Agent
	Capabilities map[string][]string
	Recorder     *telemetry.Recorder
	Logger       logging.Logger
	CallTimeout  time.Duration
	Retry        RetryPolicy
	Limiter      *core.InvocationLimiter
}

// NewRuntime creates a Runtime with safe defaults for every zero field.
func NewRuntime(runID string, agents map[string]core.Agent) *Runtime {
	return &Runtime{
		RunID:       runID,
		Agents:      agents,
		Recorder:    telemetry.NewRecorder(nil),
		Logger:      logging.NoOpLogger{},
		CallTimeout: DefaultCallTimeout,
		Retry:       RetryPolicy{MaxAttempts: 1},
		Limiter:     core.NewInvocationLimiter(0),
	}
}

// Record forwards a step to the recorder.
func (rt *Runtime) Record(step core.StepRecord) { rt.Recorder.Record(step) }

// Trace returns the steps recorded so far in this run.
func (rt *Runtime) Trace() core.ExecutionTrace { return rt.Recorder.Trace() }

// Cancelled reports whether the run context has been cancelled. Patterns
// check this between steps; in-flight invocations are allowed to finish.
func (rt *Runtime) Cancelled(ctx context.Context) bool { return ctx.Err() != nil }

// cancelledResult builds the terminal result for a run cancelled between
// steps: whatever trace exists is attached, results of any discarded
// in-flight work are excluded.
func (rt *Runtime) cancelledResult(metadata map[string]any) *core.PatternResult {
	return &core.PatternResult{
		Status:   core.StatusCancelled,
		Trace:    rt.Trace(),
		Metadata: metadata,
	}
}
