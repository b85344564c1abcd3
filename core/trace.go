package core

import (
	"time"

	"github.com/google/uuid"
)

// StepStatus classifies the outcome of a single trace step.
type StepStatus string

const (
	// StepOK marks a successful agent invocation or lifecycle phase.
	StepOK StepStatus = "ok"
	// StepError marks a failed invocation (including timeouts).
	StepError StepStatus = "error"
)

// Phase labels the lifecycle category of a StepRecord.
type Phase string

const (
	// PhaseDispatch is emitted once by the orchestrator after agent resolution
	// succeeds, before the pattern runs.
	PhaseDispatch Phase = "dispatch"
	// PhaseInvoke covers every individual agent invocation.
	PhaseInvoke Phase = "invoke"
	// PhaseObserve marks a ReAct observation snapshot, the one sub-step that
	// is assembled locally instead of invoking an agent.
	PhaseObserve Phase = "observe"
	// PhaseComplete is emitted once when the orchestration finishes, carrying
	// duration and the success flag.
	PhaseComplete Phase = "complete"
)

// StepRecord is the append-only record of one agent invocation attempt (or
// orchestrator lifecycle phase). After creation it must never be mutated.
// Timestamps are UTC and FinishedAt is always >= StartedAt.
type StepRecord struct {
	ID          string         `json:"id"`
	RunID       string         `json:"run_id,omitempty"`
	AgentID     string         `json:"agent_id"`
	Phase       Phase          `json:"phase"`
	Input       string         `json:"input,omitempty"`
	Output      Message        `json:"output"`
	StartedAt   time.Time      `json:"started_at"`
	FinishedAt  time.Time      `json:"finished_at"`
	Status      StepStatus     `json:"status"`
	ErrorDetail string         `json:"error_detail,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// Duration returns the wall time the step took.
func (s StepRecord) Duration() time.Duration { return s.FinishedAt.Sub(s.StartedAt) }

// ExecutionTrace is the ordered record of every step attempted during one
// orchestration run. Order is initiation order: for concurrent fan-out the
// entries follow the declared agent order, not completion timing.
type ExecutionTrace []StepRecord

// ErrorCount returns the number of failed steps in the trace.
func (t ExecutionTrace) ErrorCount() int {
	n := 0
	for _, s := range t {
		if s.Status == StepError {
			n++
		}
	}
	return n
}

// InvokeSteps returns only the agent-invocation records, excluding the
// orchestrator's dispatch/complete bookkeeping entries.
func (t ExecutionTrace) InvokeSteps() ExecutionTrace {
	var out ExecutionTrace
	for _, s := range t {
		if s.Phase == PhaseInvoke {
			out = append(out, s)
		}
	}
	return out
}

// ResultStatus is the caller-visible terminal status of an orchestration.
type ResultStatus string

const (
	// StatusOK means every invocation the pattern needed succeeded.
	StatusOK ResultStatus = "ok"
	// StatusPartial means some agents failed but a usable result was produced.
	StatusPartial ResultStatus = "partial"
	// StatusError means the pattern could not produce a usable result.
	StatusError ResultStatus = "error"
	// StatusCancelled means the caller cancelled between steps; the trace
	// covers whatever completed before cancellation.
	StatusCancelled ResultStatus = "cancelled"
)

// PatternResult is the immutable outcome of one pattern run: the aggregated
// text, the terminal status, the full trace and pattern-specific aggregation
// metadata (handoff_chain, consensus_score, ...).
type PatternResult struct {
	FinalText string         `json:"final_text"`
	Status    ResultStatus   `json:"status"`
	Trace     ExecutionTrace `json:"trace"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// NewID generates a unique identifier for runs and trace steps.
func NewID() string { return uuid.NewString() }
