// Package agentweave provides a high-level façade over the agent registry and
// the pattern orchestrator, enabling rapid construction of multi-agent
// systems. Most applications interact with this package by:
//  1. Creating a Weave via New() (optionally overriding the telemetry sink,
//     logger and invocation policy)
//  2. Registering one or more agents (model-backed, function-backed, custom)
//  3. Executing a pattern (sequential, concurrent, react, handoff, group
//     chat, hierarchical) against a task
//
// The façade delegates dispatch to orchestrator.Orchestrator while keeping
// setup and usage ergonomics concise. All defaults are safe for local
// development and testing; production deployments typically supply a
// structured logger and an OpenTelemetry sink.
package agentweave

import (
	"context"
	"time"

	"github.com/hupe1980/agentweave/core"
	"github.com/hupe1980/agentweave/logging"
	"github.com/hupe1980/agentweave/orchestrator"
	"github.com/hupe1980/agentweave/pattern"
	"github.com/hupe1980/agentweave/registry"
	"github.com/hupe1980/agentweave/telemetry"
)

// Options configures the Weave instance.
type Options struct {
	// Sink receives every StepRecord (defaults to a no-op sink).
	Sink telemetry.Sink

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger

	// CallTimeout bounds each agent invocation.
	CallTimeout time.Duration

	// Retry is the per-invocation retry policy.
	Retry pattern.RetryPolicy

	// MaxInvocations caps total agent calls per run; 0 means unlimited.
	MaxInvocations int
}

// Weave is the high-level façade aggregating the registry and orchestrator.
type Weave struct {
	opts         Options
	registry     *registry.Registry
	orchestrator *orchestrator.Orchestrator
}

// New creates a new Weave instance with optional overrides.
func New(optFns ...func(o *Options)) *Weave {
	opts := Options{
		Sink:        telemetry.NoopSink{},
		Logger:      logging.NoOpLogger{},
		CallTimeout: pattern.DefaultCallTimeout,
		Retry:       pattern.RetryPolicy{MaxAttempts: 1},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	reg := registry.New()
	orch := orchestrator.New(reg, func(o *orchestrator.Options) {
		o.Sink = opts.Sink
		o.Logger = opts.Logger
		o.CallTimeout = opts.CallTimeout
		o.Retry = opts.Retry
		o.MaxInvocations = opts.MaxInvocations
	})

	return &Weave{opts: opts, registry: reg, orchestrator: orch}
}

// Registry exposes the underlying agent registry.
func (w *Weave) Registry() *registry.Registry { return w.registry }

// RegisterAgent adds an agent under id with the given capability tags.
func (w *Weave) RegisterAgent(id string, a core.Agent, capabilities ...string) error {
	return w.registry.Register(id, a, capabilities...)
}

// Execute runs one pattern for one task through the orchestrator.
func (w *Weave) Execute(ctx context.Context, task string, p pattern.Pattern, ec core.ExecutionContext) (*core.PatternResult, error) {
	return w.orchestrator.Execute(ctx, task, p, ec)
}
