// Package telemetry defines the single observability boundary of the
// orchestration core: every StepRecord is pushed to an injected Sink. The
// default sink discards records; LoggerSink and OTelSink are ready-made
// collaborators for structured logs and OpenTelemetry traces.
package telemetry

import (
	"github.com/hupe1980/agentweave/core"
	"github.com/hupe1980/agentweave/logging"
)

// Sink receives every StepRecord produced during orchestration runs. Record
// must be safe for concurrent use; it is called from fan-out goroutines.
type Sink interface {
	Record(step core.StepRecord)
}

// NoopSink discards all records. It is the default when no sink is injected.
type NoopSink struct{}

// Record implements Sink.
func (NoopSink) Record(core.StepRecord) {}

// LoggerSink forwards each record to a logging.Logger as a structured entry.
type LoggerSink struct {
	logger logging.Logger
}

// NewLoggerSink creates a sink logging through l (NoOpLogger if nil).
func NewLoggerSink(l logging.Logger) *LoggerSink {
	if l == nil {
		l = logging.NoOpLogger{}
	}
	return &LoggerSink{logger: l}
}

// Record implements Sink.
func (s *LoggerSink) Record(step core.StepRecord) {
	if step.Status == core.StepError {
		s.logger.Error(
			"step recorded",
			"agent_id", step.AgentID,
			"phase", string(step.Phase),
			"status", string(step.Status),
			"duration", step.Duration(),
			"error", step.ErrorDetail,
		)
		return
	}

	s.logger.Info(
		"step recorded",
		"agent_id", step.AgentID,
		"phase", string(step.Phase),
		"status", string(step.Status),
		"duration", step.Duration(),
	)
}

// MultiSink fans records out to several sinks in order.
type MultiSink []Sink

// Record implements Sink.
func (m MultiSink) Record(step core.StepRecord) {
	for _, s := range m {
		s.Record(step)
	}
}
