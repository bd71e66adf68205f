package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFenceSwitchInvalidatesEarlierTokens(t *testing.T) {
	f := NewFence()

	tokA := f.Switch("profile:alice")
	assert.True(t, f.Current("profile:alice", tokA))

	// The user navigates away and back before the first fetch resolves.
	tokB := f.Switch("profile:alice")

	assert.False(t, f.Current("profile:alice", tokA), "response from the first fetch is stale")
	assert.True(t, f.Current("profile:alice", tokB))
}

func TestFenceKeysAreIndependent(t *testing.T) {
	f := NewFence()

	tokAlice := f.Switch("profile:alice")
	f.Switch("profile:bob")

	assert.True(t, f.Current("profile:alice", tokAlice))
}

func TestFenceBeginObservesWithoutAdvancing(t *testing.T) {
	f := NewFence()

	tok := f.Begin("feed")
	assert.True(t, f.Current("feed", tok))

	again := f.Begin("feed")
	assert.Equal(t, tok, again)

	f.Switch("feed")
	assert.False(t, f.Current("feed", tok))
}
