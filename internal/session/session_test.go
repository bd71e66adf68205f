package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionSeededMembership(t *testing.T) {
	s := New("me", []string{"alice", "bob"})

	assert.True(t, s.Following("alice"))
	assert.True(t, s.Following("bob"))
	assert.False(t, s.Following("carol"))
	assert.Equal(t, 2, s.FollowingCount())
}

func TestSetFollowingAnnouncesChange(t *testing.T) {
	s := New("me", nil)

	s.SetFollowing("alice", true)

	msg := s.Wait()()
	change, ok := msg.(MembershipChange)
	require.True(t, ok)
	assert.Equal(t, "alice", change.Subject)
	assert.True(t, change.Following)
}

func TestSetFollowingUnchangedIsSilent(t *testing.T) {
	s := New("me", []string{"alice"})

	s.SetFollowing("alice", true)

	select {
	case change := <-s.changes:
		t.Fatalf("unexpected change announced: %+v", change)
	default:
	}
}

func TestUnfollowRemovesMembership(t *testing.T) {
	s := New("me", []string{"alice"})

	s.SetFollowing("alice", false)

	assert.False(t, s.Following("alice"))
	assert.Equal(t, 0, s.FollowingCount())
}

func TestFollowStatePrecedence(t *testing.T) {
	s := New("me", []string{"alice"})
	f := NewFollowState(s, "alice")

	// Membership derivation.
	assert.True(t, f.Following())

	// The server flag wins over membership when present.
	f.SetAuthoritative(false)
	assert.False(t, f.Following())

	f.SetAuthoritative(true)
	assert.True(t, f.Following())
}

func TestFollowStateNoDataMeansNotFollowing(t *testing.T) {
	s := New("me", nil)
	f := NewFollowState(s, "stranger")

	assert.False(t, f.Following())
}

func TestToggleFlipsDisplayAndMembership(t *testing.T) {
	s := New("me", nil)
	f := NewFollowState(s, "alice")

	next := f.Toggle()

	assert.True(t, next)
	assert.True(t, f.Following())
	assert.True(t, s.Following("alice"))
}

func TestToggleClearsStaleServerFlag(t *testing.T) {
	s := New("me", nil)
	f := NewFollowState(s, "alice")
	f.SetAuthoritative(false)

	f.Toggle()

	// The display must reflect the optimistic membership value, not the
	// pre-toggle server answer.
	assert.True(t, f.Following())
}

func TestDoubleToggleDisplaysFinalState(t *testing.T) {
	// Two rapid toggles before either confirmation resolves: following
	// then unfollowing must leave "not following" displayed.
	s := New("me", nil)
	f := NewFollowState(s, "alice")

	first := f.Toggle()
	second := f.Toggle()

	assert.True(t, first)
	assert.False(t, second)
	assert.False(t, f.Following())
	assert.False(t, s.Following("alice"))
}

func TestMembershipChangeRederivesOtherViews(t *testing.T) {
	// Two derivations for the same subject; a toggle through one is
	// visible through the other without a re-fetch.
	s := New("me", nil)
	listBadge := NewFollowState(s, "alice")
	profileView := NewFollowState(s, "alice")

	profileView.Toggle()

	assert.True(t, listBadge.Following())
}

func TestAuthoritativeRefreshOverwritesOptimisticValue(t *testing.T) {
	s := New("me", nil)
	f := NewFollowState(s, "alice")

	f.Toggle()
	require.True(t, f.Following())

	// The confirmation failed server-side; the refreshed profile says
	// not following.
	f.SetAuthoritative(false)
	assert.False(t, f.Following())
}
