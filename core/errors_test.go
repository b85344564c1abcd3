package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorTaxonomy_AsAndUnwrap(t *testing.T) {
	cause := errors.New("connection reset")

	inv := &AgentInvocationError{AgentID: "writer", Err: cause}
	assert.ErrorIs(t, inv, cause)
	assert.Contains(t, inv.Error(), "writer")

	wrapped := fmt.Errorf("pattern step: %w", inv)
	var target *AgentInvocationError
	require.ErrorAs(t, wrapped, &target)
	assert.Equal(t, "writer", target.AgentID)
}

func TestAgentInvocationError_TimeoutMessage(t *testing.T) {
	err := &AgentInvocationError{AgentID: "slow", Timeout: true, Err: errors.New("deadline exceeded")}
	assert.Contains(t, err.Error(), "timed out")
}

func TestOrchestrationError_CarriesTrace(t *testing.T) {
	cause := errors.New("unexpected")
	trace := ExecutionTrace{{AgentID: "a", Status: StepOK}}

	err := &OrchestrationError{Err: cause, Trace: trace}

	assert.ErrorIs(t, err, cause)
	assert.Len(t, err.Trace, 1)
}

func TestConfigErrors_Messages(t *testing.T) {
	assert.Contains(t, (&UnknownAgentError{ID: "ghost"}).Error(), "ghost")
	assert.Contains(t, (&DuplicateIDError{ID: "twin"}).Error(), "twin")
	assert.Contains(t, (&InvalidPatternConfigError{Pattern: "concurrent", Reason: "too few"}).Error(), "concurrent")
}

func TestInvocationLimiter(t *testing.T) {
	l := NewInvocationLimiter(2)

	require.NoError(t, l.Increment())
	require.NoError(t, l.Increment())
	assert.Error(t, l.Increment())
	assert.Equal(t, 3, l.Count())

	unlimited := NewInvocationLimiter(0)
	for i := 0; i < 10; i++ {
		require.NoError(t, unlimited.Increment())
	}
	assert.Equal(t, -1, unlimited.Remaining())
}
