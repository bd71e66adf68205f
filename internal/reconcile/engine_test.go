package reconcile

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/pulse/internal/model"
)

func notif(id string, read bool) model.Notification {
	return model.Notification{
		ID:        id,
		Kind:      model.KindLike,
		Actor:     model.Actor{Username: "alice", DisplayName: "Alice"},
		Message:   "liked your post",
		Read:      read,
		CreatedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func notifFrom(id, actor string, kind model.Kind, read bool) model.Notification {
	n := notif(id, read)
	n.Actor.Username = actor
	n.Kind = kind
	return n
}

func intPtr(v int) *int { return &v }

func TestSnapshotReplacesCollection(t *testing.T) {
	e := NewEngine()
	e.Apply(Snapshot{Items: []model.Notification{notif("a", false), notif("b", true)}})

	require.Equal(t, 2, e.Len())
	assert.Equal(t, 1, e.UnreadCount())

	e.Apply(Snapshot{Items: []model.Notification{notif("c", false)}})

	require.Equal(t, 1, e.Len())
	_, ok := e.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 1, e.UnreadCount())
}

func TestSnapshotServerCountWins(t *testing.T) {
	e := NewEngine()
	e.Apply(Snapshot{
		Items:       []model.Notification{notif("a", false)},
		UnreadCount: intPtr(7),
	})

	// The page holds one unread item but the server reports seven across
	// all pages.
	assert.Equal(t, 7, e.UnreadCount())
}

func TestSnapshotNegativeServerCountClamped(t *testing.T) {
	e := NewEngine()
	e.Apply(Snapshot{Items: nil, UnreadCount: intPtr(-3)})

	assert.Equal(t, 0, e.UnreadCount())
}

func TestSnapshotDropsDuplicateIDs(t *testing.T) {
	e := NewEngine()
	e.Apply(Snapshot{Items: []model.Notification{notif("a", false), notif("a", false)}})

	assert.Equal(t, 1, e.Len())
}

func TestPushInsertIdempotent(t *testing.T) {
	e := NewEngine()
	e.Apply(Snapshot{Items: []model.Notification{notif("a", false)}})

	before := e.UnreadCount()
	e.Apply(PushInsert{Item: notif("b", false)})
	e.Apply(PushInsert{Item: notif("b", false)})

	assert.Equal(t, 2, e.Len())
	assert.Equal(t, before+1, e.UnreadCount())
	assert.Equal(t, "b", e.Items()[0].ID, "push insert prepends")
}

func TestPushInsertDoesNotResurrectPendingDelete(t *testing.T) {
	e := NewEngine()
	e.Apply(Snapshot{Items: []model.Notification{notif("a", false)}})
	e.Apply(Delete{ID: "a"})

	// The removal raced a redelivery of the same notification.
	e.Apply(PushInsert{Item: notif("a", false)})
	assert.Equal(t, 0, e.Len())

	// The delete fails; the restore must not duplicate.
	e.Apply(Fail{ID: "a", Op: OpDelete})
	assert.Equal(t, 1, e.Len())
	assert.Equal(t, 1, e.UnreadCount())
}

func TestPushRemovalByPredicate(t *testing.T) {
	e := NewEngine()
	e.Apply(Snapshot{Items: []model.Notification{
		notifFrom("a", "mallory", model.KindFollow, false),
		notifFrom("b", "mallory", model.KindLike, false),
		notifFrom("c", "alice", model.KindFollow, false),
	}})

	// Mallory unfollowed again: the unread follow notification retracts.
	e.Apply(PushRemoval{Match: Predicate{
		Kind:       model.KindFollow,
		Actor:      "mallory",
		UnreadOnly: true,
	}})

	assert.Equal(t, 2, e.Len())
	_, ok := e.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 2, e.UnreadCount())
}

func TestPushRemovalNeverDrivesCountNegative(t *testing.T) {
	e := NewEngine()
	e.Apply(Snapshot{
		Items:       []model.Notification{notif("a", false)},
		UnreadCount: intPtr(0),
	})

	e.Apply(PushRemoval{Match: Predicate{Actor: "alice"}})

	assert.Equal(t, 0, e.UnreadCount())
}

func TestMarkReadOptimisticConfirm(t *testing.T) {
	e := NewEngine()
	e.Apply(Snapshot{Items: []model.Notification{notif("a", false)}})

	e.Apply(MarkRead{ID: "a"})
	n, ok := e.Get("a")
	require.True(t, ok)
	assert.True(t, n.Read, "read state flips before confirmation")
	assert.Equal(t, 0, e.UnreadCount())
	assert.True(t, e.HasPending("a"))

	e.Apply(Confirm{ID: "a", Op: OpRead})
	assert.False(t, e.HasPending("a"))
	assert.Equal(t, 0, e.UnreadCount())
}

func TestMarkReadFailReverts(t *testing.T) {
	e := NewEngine()
	e.Apply(Snapshot{Items: []model.Notification{notif("a", false)}})

	e.Apply(MarkRead{ID: "a"})
	e.Apply(Fail{ID: "a", Op: OpRead})

	n, ok := e.Get("a")
	require.True(t, ok)
	assert.False(t, n.Read)
	assert.Equal(t, 1, e.UnreadCount())
	assert.False(t, e.HasPending("a"))
}

func TestMarkReadAlreadyReadNoop(t *testing.T) {
	e := NewEngine()
	e.Apply(Snapshot{Items: []model.Notification{notif("a", true)}})

	e.Apply(MarkRead{ID: "a"})

	assert.False(t, e.HasPending("a"))
	assert.Equal(t, 0, e.UnreadCount())
}

func TestDeleteFailRestoresAtPosition(t *testing.T) {
	e := NewEngine()
	e.Apply(Snapshot{Items: []model.Notification{
		notif("a", true), notif("b", false), notif("c", true),
	}})

	e.Apply(Delete{ID: "b"})
	assert.Equal(t, 2, e.Len())
	assert.Equal(t, 0, e.UnreadCount())

	e.Apply(Fail{ID: "b", Op: OpDelete})
	require.Equal(t, 3, e.Len())
	assert.Equal(t, "b", e.Items()[1].ID)
	assert.Equal(t, 1, e.UnreadCount())
}

func TestDeleteConfirmSettles(t *testing.T) {
	e := NewEngine()
	e.Apply(Snapshot{Items: []model.Notification{notif("a", false)}})

	e.Apply(Delete{ID: "a"})
	e.Apply(Confirm{ID: "a", Op: OpDelete})

	assert.Equal(t, 0, e.Len())
	assert.Equal(t, 0, e.UnreadCount())
	assert.False(t, e.HasPending("a"))
}

func TestFailAfterSnapshotIsNoop(t *testing.T) {
	e := NewEngine()
	e.Apply(Snapshot{Items: []model.Notification{notif("a", false)}})
	e.Apply(MarkRead{ID: "a"})

	// An authoritative snapshot lands before the failure resolves.
	e.Apply(Snapshot{Items: []model.Notification{notif("a", true)}})
	e.Apply(Fail{ID: "a", Op: OpRead})

	n, _ := e.Get("a")
	assert.True(t, n.Read, "snapshot state is not reverted")
}

func TestMarkAllReadSettlesPerID(t *testing.T) {
	e := NewEngine()
	e.Apply(Snapshot{Items: []model.Notification{
		notif("a", false), notif("b", false), notif("c", true),
	}})

	ids := e.UnreadIDs()
	require.ElementsMatch(t, []string{"a", "b"}, ids)

	for _, id := range ids {
		e.Apply(MarkRead{ID: id})
	}
	assert.Equal(t, 0, e.UnreadCount())

	// One confirmation fails, one succeeds; only the failed id reverts.
	e.Apply(Confirm{ID: "a", Op: OpRead})
	e.Apply(Fail{ID: "b", Op: OpRead})

	a, _ := e.Get("a")
	b, _ := e.Get("b")
	assert.True(t, a.Read)
	assert.False(t, b.Read)
	assert.Equal(t, 1, e.UnreadCount())
}

func TestReadAndDeleteInFlightSettleIndependently(t *testing.T) {
	// Mark-read and delete both in flight for the same id (mark-all-read
	// followed by a delete before the read confirmation returns). The
	// read succeeding must not settle the delete; the failed delete must
	// still restore the item.
	e := NewEngine()
	e.Apply(Snapshot{Items: []model.Notification{notif("n1", false)}})

	e.Apply(MarkRead{ID: "n1"})
	e.Apply(Delete{ID: "n1"})

	e.Apply(Confirm{ID: "n1", Op: OpRead})
	e.Apply(Fail{ID: "n1", Op: OpDelete})

	n, ok := e.Get("n1")
	require.True(t, ok, "failed delete must restore the item")
	assert.True(t, n.Read, "confirmed read state survives the restore")
	assert.Equal(t, 0, e.UnreadCount())
	assert.False(t, e.HasPending("n1"))
}

func TestReadAndDeleteBothFailRestorePreMutationState(t *testing.T) {
	e := NewEngine()
	e.Apply(Snapshot{Items: []model.Notification{notif("n1", false)}})

	e.Apply(MarkRead{ID: "n1"})
	e.Apply(Delete{ID: "n1"})

	// The read failure lands while the item is still deleted; its revert
	// folds into the delete's snapshot.
	e.Apply(Fail{ID: "n1", Op: OpRead})
	e.Apply(Fail{ID: "n1", Op: OpDelete})

	n, ok := e.Get("n1")
	require.True(t, ok)
	assert.False(t, n.Read)
	assert.Equal(t, 1, e.UnreadCount())
}

func TestReadFailAfterDeleteRestored(t *testing.T) {
	// Opposite settlement order: the delete fails and restores first,
	// then the read fails and reverts in place.
	e := NewEngine()
	e.Apply(Snapshot{Items: []model.Notification{notif("n1", false)}})

	e.Apply(MarkRead{ID: "n1"})
	e.Apply(Delete{ID: "n1"})

	e.Apply(Fail{ID: "n1", Op: OpDelete})
	e.Apply(Fail{ID: "n1", Op: OpRead})

	n, ok := e.Get("n1")
	require.True(t, ok)
	assert.False(t, n.Read)
	assert.Equal(t, 1, e.UnreadCount())
}

func TestReadFailWithDeleteConfirmedStaysRemoved(t *testing.T) {
	e := NewEngine()
	e.Apply(Snapshot{Items: []model.Notification{notif("n1", false)}})

	e.Apply(MarkRead{ID: "n1"})
	e.Apply(Delete{ID: "n1"})

	e.Apply(Confirm{ID: "n1", Op: OpDelete})
	e.Apply(Fail{ID: "n1", Op: OpRead})

	assert.Equal(t, 0, e.Len())
	assert.Equal(t, 0, e.UnreadCount())
	assert.False(t, e.HasPending("n1"))
}

func TestAppendSkipsHeldIDs(t *testing.T) {
	e := NewEngine()
	e.Apply(Snapshot{Items: []model.Notification{notif("a", false), notif("b", false)}})

	// A refresh completed between page loads, so the next page overlaps.
	e.Apply(Append{Items: []model.Notification{notif("b", false), notif("c", false)}})

	require.Equal(t, 3, e.Len())
	assert.Equal(t, []string{"a", "b", "c"}, itemIDs(e))
	assert.Equal(t, 3, e.UnreadCount())
}

func TestAppendWithAuthoritativeCountDoesNotInflate(t *testing.T) {
	e := NewEngine()
	e.Apply(Snapshot{
		Items:       []model.Notification{notif("a", false)},
		UnreadCount: intPtr(5),
	})

	// Older unread pages are already included in the server total.
	e.Apply(Append{Items: []model.Notification{notif("b", false), notif("c", false)}})

	assert.Equal(t, 5, e.UnreadCount())
}

func TestEventualCountConsistency(t *testing.T) {
	// Interleave pushes and confirmed local mutations in an arbitrary
	// order; once everything settles the count must equal the number of
	// held unread items.
	e := NewEngine()
	e.Apply(Snapshot{Items: []model.Notification{
		notif("a", false), notif("b", false), notif("c", true),
	}})

	e.Apply(PushInsert{Item: notif("d", false)})
	e.Apply(MarkRead{ID: "a"})
	e.Apply(PushInsert{Item: notif("e", false)})
	e.Apply(Delete{ID: "d"})
	e.Apply(Confirm{ID: "a", Op: OpRead})
	e.Apply(PushRemoval{Match: Predicate{Actor: "nobody"}})
	e.Apply(Confirm{ID: "d", Op: OpDelete})

	unread := 0
	for _, n := range e.Items() {
		if !n.Read {
			unread++
		}
	}
	assert.Equal(t, unread, e.UnreadCount())
}

func TestItemsReturnsCopy(t *testing.T) {
	e := NewEngine()
	e.Apply(Snapshot{Items: []model.Notification{notif("a", false)}})

	items := e.Items()
	items[0].ID = "mutated"

	n, ok := e.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "a", n.ID)
}

func itemIDs(e *Engine) []string {
	items := e.Items()
	ids := make([]string, len(items))
	for i, n := range items {
		ids[i] = n.ID
	}
	return ids
}

func TestSnapshotIdempotent(t *testing.T) {
	e := NewEngine()
	snap := Snapshot{
		Items:       []model.Notification{notif("a", false), notif("b", true)},
		UnreadCount: intPtr(1),
	}

	e.Apply(snap)
	first := fmt.Sprintf("%v/%d", itemIDs(e), e.UnreadCount())
	e.Apply(snap)
	second := fmt.Sprintf("%v/%d", itemIDs(e), e.UnreadCount())

	assert.Equal(t, first, second)
}
