package core

import "fmt"

// UnknownAgentError indicates a pattern referenced an agent id that is not
// registered. It is a caller programming error and is never recovered; the
// orchestrator fails before any invocation starts.
type UnknownAgentError struct {
	ID string
}

func (e *UnknownAgentError) Error() string { return fmt.Sprintf("unknown agent %q", e.ID) }

// DuplicateIDError indicates a second registration under an existing id
// without the overwrite flag.
type DuplicateIDError struct {
	ID string
}

func (e *DuplicateIDError) Error() string { return fmt.Sprintf("agent %q already registered", e.ID) }

// InvalidPatternConfigError indicates a pattern's structural invariants are
// violated (too few agents, non-positive bounds, missing aggregator). It is
// raised by validation before any agent invocation occurs and never recovered.
type InvalidPatternConfigError struct {
	Pattern string
	Reason  string
}

func (e *InvalidPatternConfigError) Error() string {
	return fmt.Sprintf("invalid %s pattern config: %s", e.Pattern, e.Reason)
}

// AgentInvocationError wraps the failure of a single agent call, including
// per-call timeouts. Patterns recover it locally whenever their failure
// tolerance allows; only exhausted policies surface it to the caller.
type AgentInvocationError struct {
	AgentID string
	Timeout bool
	Err     error
}

func (e *AgentInvocationError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("agent %q invocation timed out: %v", e.AgentID, e.Err)
	}
	return fmt.Sprintf("agent %q invocation failed: %v", e.AgentID, e.Err)
}

func (e *AgentInvocationError) Unwrap() error { return e.Err }

// OrchestrationError wraps any otherwise-unclassified failure (including
// panics) escaping a pattern run. The trace collected up to the failure is
// attached for diagnostics.
type OrchestrationError struct {
	Err   error
	Trace ExecutionTrace
}

func (e *OrchestrationError) Error() string { return fmt.Sprintf("orchestration failed: %v", e.Err) }

func (e *OrchestrationError) Unwrap() error { return e.Err }
