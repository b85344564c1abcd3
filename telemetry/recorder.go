package telemetry

import (
	"sync"

	"github.com/hupe1980/agentweave/core"
)

// Recorder accumulates the ExecutionTrace for one orchestration run and
// pushes every record to the configured Sink as a side effect. Records are
// appended in the order Record is called; patterns that fan out are
// responsible for calling Record in initiation order (declared agent order),
// collecting concurrent results into pre-sized slots first.
type Recorder struct {
	mu    sync.Mutex
	steps core.ExecutionTrace
	sink  Sink
}

// NewRecorder creates a recorder pushing to sink (NoopSink if nil).
func NewRecorder(sink Sink) *Recorder {
	if sink == nil {
		sink = NoopSink{}
	}
	return &Recorder{sink: sink}
}

// Record appends a step to the trace and forwards it to the sink.
func (r *Recorder) Record(step core.StepRecord) {
	r.mu.Lock()
	r.steps = append(r.steps, step)
	r.mu.Unlock()

	r.sink.Record(step)
}

// Trace returns a copy of the steps recorded so far.
func (r *Recorder) Trace() core.ExecutionTrace {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(core.ExecutionTrace, len(r.steps))
	copy(out, r.steps)
	return out
}

// Len returns the number of recorded steps.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.steps)
}
