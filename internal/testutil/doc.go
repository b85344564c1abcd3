// Package testutil provides deterministic agent stubs shared by the package
// test suites. Internal on purpose: the public surface for building agents
// is the agent package.
package testutil
