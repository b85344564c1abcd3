// Package model defines the provider-neutral language model interface used by
// model-backed agents, plus a deterministic MockModel for tests and examples.
// Concrete provider adapters live in the openai and anthropic subpackages.
package model
