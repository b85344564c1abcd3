package model

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentweave/core"
)

func TestMockModel_CannedResponse(t *testing.T) {
	m := NewMockModel("test-model", "mock")
	m.AddResponse("what is 2+2?", "4")

	resp, err := m.Generate(context.Background(), Request{
		Messages: []core.Message{core.UserMessage("what is 2+2?")},
	})
	require.NoError(t, err)

	assert.Equal(t, "4", resp.Text)
	assert.Equal(t, "stop", resp.FinishReason)
}

func TestMockModel_EchoFallback(t *testing.T) {
	m := NewMockModel("test-model", "mock")

	resp, err := m.Generate(context.Background(), Request{
		Messages: []core.Message{core.UserMessage("unregistered prompt")},
	})
	require.NoError(t, err)

	assert.Equal(t, "Mock response to: unregistered prompt", resp.Text)
}

func TestMockModel_UsesLastMessage(t *testing.T) {
	m := NewMockModel("test-model", "mock")
	m.AddResponse("second", "reply")

	resp, err := m.Generate(context.Background(), Request{
		Messages: []core.Message{core.UserMessage("first"), core.UserMessage("second")},
	})
	require.NoError(t, err)

	assert.Equal(t, "reply", resp.Text)
}

func TestMockModel_NoMessages(t *testing.T) {
	m := NewMockModel("test-model", "mock")

	_, err := m.Generate(context.Background(), Request{})
	assert.Error(t, err)
}

func TestMockModel_CancelledContext(t *testing.T) {
	m := NewMockModel("test-model", "mock")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Generate(ctx, Request{Messages: []core.Message{core.UserMessage("x")}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMockModel_Info(t *testing.T) {
	m := NewMockModel("test-model", "mock")

	info := m.Info()
	assert.Equal(t, "test-model", info.Name)
	assert.Equal(t, "mock", info.Provider)
}
