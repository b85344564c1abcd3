// Package core provides the foundational domain types used by AgentWeave. It
// defines the core abstractions for:
//
//   - Messages (immutable role-tagged conversation units)
//   - Agents (the single invoke boundary to external text generation)
//   - ExecutionContext (copy-on-extend per-run key/value state)
//   - StepRecord / ExecutionTrace / PatternResult (append-only run records)
//   - The error taxonomy shared by registry, patterns and orchestrator
//
// The package intentionally keeps implementation concerns (registry storage,
// pattern strategies, dispatch) out of scope, exposing small value types and
// interfaces so higher packages avoid cyclic dependencies.
package core
