package core

import "maps"

// PreviousResultsKey is the stable ExecutionContext key under which chained
// patterns expose the ordered outputs of earlier agents ([]AgentResult).
const PreviousResultsKey = "previous_results"

// ExecutionContext carries free-form key/value state through one
// orchestration run. Patterns extend it copy-on-write: every mutation helper
// returns a new map so the caller's original mapping is never touched and an
// orchestrator instance can serve unrelated tasks concurrently without
// cross-task leakage.
type ExecutionContext map[string]any

// Clone returns a shallow copy of the context. A nil context clones to an
// empty, writable map.
func (ec ExecutionContext) Clone() ExecutionContext {
	c := make(ExecutionContext, len(ec)+1)
	maps.Copy(c, ec)
	return c
}

// With returns a copy of the context with key set to value.
func (ec ExecutionContext) With(key string, value any) ExecutionContext {
	c := ec.Clone()
	c[key] = value
	return c
}

// PreviousResults returns the accumulated upstream agent outputs, or nil if
// no chained pattern has populated them yet.
func (ec ExecutionContext) PreviousResults() []AgentResult {
	v, ok := ec[PreviousResultsKey]
	if !ok {
		return nil
	}
	results, _ := v.([]AgentResult)
	return results
}

// WithPreviousResult returns a copy of the context whose previous_results
// list has r appended. The existing slice is copied, not aliased, so sibling
// branches extending the same parent context stay isolated.
func (ec ExecutionContext) WithPreviousResult(r AgentResult) ExecutionContext {
	prior := ec.PreviousResults()
	results := make([]AgentResult, 0, len(prior)+1)
	results = append(results, prior...)
	results = append(results, r)
	return ec.With(PreviousResultsKey, results)
}
