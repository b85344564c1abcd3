package registry

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentweave/core"
	"github.com/hupe1980/agentweave/internal/testutil"
)

func TestRegistry_RegisterAndGet(t *testing.T) {
	reg := New()
	a := testutil.NewStubAgent("writer", "draft")

	require.NoError(t, reg.Register("writer", a, "writing"))

	got, err := reg.Get("writer")
	require.NoError(t, err)
	assert.Equal(t, "writer", got.Name())
}

func TestRegistry_DuplicateID(t *testing.T) {
	reg := New()
	require.NoError(t, reg.Register("writer", testutil.NewStubAgent("writer", "one")))

	err := reg.Register("writer", testutil.NewStubAgent("writer", "two"))

	var dup *core.DuplicateIDError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "writer", dup.ID)
}

func TestRegistry_OverwriteKeepsPosition(t *testing.T) {
	reg := New()
	require.NoError(t, reg.Register("a", testutil.NewStubAgent("a", "")))
	require.NoError(t, reg.Register("b", testutil.NewStubAgent("b", "")))

	require.NoError(t, reg.RegisterOverwrite("a", testutil.NewStubAgent("a", "replaced")))

	assert.Equal(t, []string{"a", "b"}, reg.List())
}

func TestRegistry_GetUnknown(t *testing.T) {
	reg := New()

	_, err := reg.Get("ghost")

	var unknown *core.UnknownAgentError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "ghost", unknown.ID)
}

func TestRegistry_ListInsertionOrder(t *testing.T) {
	reg := New()
	for _, id := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, reg.Register(id, testutil.NewStubAgent(id, "")))
	}

	assert.Equal(t, []string{"zeta", "alpha", "mid"}, reg.List())
}

func TestRegistry_ListByCapability(t *testing.T) {
	reg := New()
	require.NoError(t, reg.Register("researcher", testutil.NewStubAgent("researcher", ""), "research", "web"))
	require.NoError(t, reg.Register("writer", testutil.NewStubAgent("writer", ""), "writing"))
	require.NoError(t, reg.Register("editor", testutil.NewStubAgent("editor", ""), "writing", "review"))

	assert.Equal(t, []string{"writer", "editor"}, reg.List("writing"))
	assert.Equal(t, []string{"editor"}, reg.List("writing", "review"))
	assert.Empty(t, reg.List("missing"))
	assert.Equal(t, []string{"researcher", "writer", "editor"}, reg.List())
}

func TestRegistry_SnapshotFailsFast(t *testing.T) {
	reg := New()
	require.NoError(t, reg.Register("a", testutil.NewStubAgent("a", "")))

	_, _, err := reg.Snapshot([]string{"a", "ghost"})

	var unknown *core.UnknownAgentError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "ghost", unknown.ID)
}

func TestRegistry_SnapshotCapabilities(t *testing.T) {
	reg := New()
	require.NoError(t, reg.Register("researcher", testutil.NewStubAgent("researcher", ""), "research"))

	agents, caps, err := reg.Snapshot([]string{"researcher"})
	require.NoError(t, err)

	assert.Len(t, agents, 1)
	assert.Equal(t, []string{"research"}, caps["researcher"])
}

func TestRegistry_ConcurrentReadsDuringRegistration(t *testing.T) {
	reg := New()
	require.NoError(t, reg.Register("seed", testutil.NewStubAgent("seed", "")))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_, _, _ = reg.Snapshot([]string{"seed"})
				_ = reg.List()
			}
		}()
	}
	for i := 0; i < 100; i++ {
		require.NoError(t, reg.RegisterOverwrite("seed", testutil.NewStubAgent("seed", "")))
	}
	wg.Wait()
}
