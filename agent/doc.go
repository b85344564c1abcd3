// Package agent contains first-class core.Agent implementations:
//
//   - FuncAgent: wraps an ordinary function (tests, examples, bespoke backends)
//   - ModelAgent: backs the invoke contract with a language model plus a
//     static or provider-derived Instruction
//
// Composite execution (chains, fan-out, loops) lives in the pattern package;
// agents here are deliberately leaf units so the orchestrator remains the
// only coordinator.
package agent
