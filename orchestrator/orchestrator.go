// Package orchestrator implements the dispatch contract: resolve every agent
// a pattern references, run the pattern behind a single failure boundary and
// return an aggregated result plus the full execution trace.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/agentweave/core"
	"github.com/hupe1980/agentweave/logging"
	"github.com/hupe1980/agentweave/pattern"
	"github.com/hupe1980/agentweave/registry"
	"github.com/hupe1980/agentweave/telemetry"
)

// Options configures an Orchestrator instance.
type Options struct {
	// Sink receives every StepRecord; defaults to a no-op sink.
	Sink telemetry.Sink
	// Logger defaults to NoOpLogger.
	Logger logging.Logger
	// CallTimeout bounds each agent invocation (default 120s).
	CallTimeout time.Duration
	// Retry is applied per invocation; default is a single attempt.
	Retry pattern.RetryPolicy
	// MaxInvocations caps total agent calls per run; 0 means unlimited.
	MaxInvocations int
}

// Orchestrator resolves agents through a Registry and executes patterns.
// It is an explicit handle, not ambient global state: construct one per
// registry and pass it where needed. A single instance is safe for
// concurrent Execute calls; every run gets its own context snapshot and
// recorder.
type Orchestrator struct {
	registry *registry.Registry
	opts     Options
}

// New creates an Orchestrator over the given registry.
func New(reg *registry.Registry, optFns ...func(o *Options)) *Orchestrator {
	opts := Options{
		Sink:        telemetry.NoopSink{},
		Logger:      logging.NoOpLogger{},
		CallTimeout: pattern.DefaultCallTimeout,
		Retry:       pattern.RetryPolicy{MaxAttempts: 1},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Sink == nil {
		opts.Sink = telemetry.NoopSink{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Orchestrator{registry: reg, opts: opts}
}

// Execute runs one pattern for one task.
//
// Validation and agent resolution happen before any invocation: an invalid
// config or an unknown agent id returns an error with zero trace entries and
// no partial dispatch. Recoverable agent failures never escape as errors —
// the returned PatternResult's status distinguishes ok from partial from
// error from cancelled. Anything unclassified escaping the pattern
// (including panics) is wrapped as *core.OrchestrationError carrying the
// trace collected so far.
func (o *Orchestrator) Execute(ctx context.Context, task string, p pattern.Pattern, ec core.ExecutionContext) (result *core.PatternResult, err error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	agents, caps, err := o.registry.Snapshot(p.AgentIDs())
	if err != nil {
		return nil, err
	}

	runID := core.NewID()
	recorder := telemetry.NewRecorder(o.opts.Sink)

	rt := pattern.NewRuntime(runID, agents)
	rt.Capabilities = caps
	rt.Recorder = recorder
	rt.Logger = o.opts.Logger
	rt.CallTimeout = o.opts.CallTimeout
	rt.Retry = o.opts.Retry
	rt.Limiter = core.NewInvocationLimiter(o.opts.MaxInvocations)

	started := time.Now().UTC()

	recorder.Record(core.StepRecord{
		ID:         core.NewID(),
		RunID:      runID,
		Phase:      core.PhaseDispatch,
		StartedAt:  started,
		FinishedAt: started,
		Status:     core.StepOK,
		Metadata:   map[string]any{"pattern": p.Kind(), "agents": p.AgentIDs(), "task": task},
	})

	o.opts.Logger.Info("orchestration.dispatch", "run_id", runID, "pattern", p.Kind(), "agents", len(agents))

	defer func() {
		if r := recover(); r != nil {
			panicErr := fmt.Errorf("pattern %s panicked: %v", p.Kind(), r)
			finished := time.Now().UTC()

			// An unclassified failure still terminates the trace: the sink
			// observes a failed completion record before the error is raised.
			recorder.Record(core.StepRecord{
				ID:          core.NewID(),
				RunID:       runID,
				Phase:       core.PhaseComplete,
				StartedAt:   started,
				FinishedAt:  finished,
				Status:      core.StepError,
				ErrorDetail: panicErr.Error(),
				Metadata:    map[string]any{"pattern": p.Kind(), "duration": finished.Sub(started).String(), "success": false},
			})

			err = &core.OrchestrationError{Err: panicErr, Trace: recorder.Trace()}
			result = nil
			o.opts.Logger.Error("orchestration.panic", "run_id", runID, "pattern", p.Kind(), "panic", fmt.Sprintf("%v", r))
		}
	}()

	// The orchestrator hands the pattern a snapshot so concurrent callers
	// reusing one context mapping cannot corrupt each other's state.
	res, runErr := p.Run(ctx, rt, task, ec.Clone())

	finished := time.Now().UTC()
	// Cancelled runs are not successes: the completion record must let a sink
	// tell a clean run from one that was stopped or failed.
	success := runErr == nil && res != nil &&
		res.Status != core.StatusError && res.Status != core.StatusCancelled

	completionMeta := map[string]any{"pattern": p.Kind(), "duration": finished.Sub(started).String(), "success": success}
	if res != nil {
		completionMeta["status"] = string(res.Status)
	}

	recorder.Record(core.StepRecord{
		ID:         core.NewID(),
		RunID:      runID,
		Phase:      core.PhaseComplete,
		StartedAt:  started,
		FinishedAt: finished,
		Status:     completionStatus(success),
		Metadata:   completionMeta,
	})

	if runErr != nil {
		o.opts.Logger.Error("orchestration.error", "run_id", runID, "pattern", p.Kind(), "error", runErr.Error())
		return nil, &core.OrchestrationError{Err: runErr, Trace: recorder.Trace()}
	}

	// Re-snapshot so the returned trace includes the completion record.
	final := *res
	final.Trace = recorder.Trace()

	o.opts.Logger.Info(
		"orchestration.complete",
		"run_id", runID,
		"pattern", p.Kind(),
		"status", string(final.Status),
		"steps", len(final.Trace),
		"duration", finished.Sub(started),
	)

	return &final, nil
}

func completionStatus(success bool) core.StepStatus {
	if success {
		return core.StepOK
	}
	return core.StepError
}
