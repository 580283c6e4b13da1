package hub

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialize_ReturnsExistingInstance(t *testing.T) {
	t.Cleanup(Shutdown)

	clock := clockwork.NewRealClock()
	first := Initialize(newFakeStore(), clock, 30*time.Second, 50, 16)
	second := Initialize(newFakeStore(), clock, time.Second, 1, 1)

	assert.Same(t, first, second)

	got, ok := Instance()
	require.True(t, ok)
	assert.Same(t, first, got)
}

func TestShutdown_Idempotent(t *testing.T) {
	clock := clockwork.NewRealClock()
	Initialize(newFakeStore(), clock, 30*time.Second, 50, 16)

	Shutdown()
	Shutdown() // second call is a no-op

	_, ok := Instance()
	assert.False(t, ok)
}

func TestInstance_BeforeInitialize(t *testing.T) {
	// Make sure no instance leaks in from another test.
	Shutdown()

	got, ok := Instance()
	assert.False(t, ok)
	assert.Nil(t, got)
}
