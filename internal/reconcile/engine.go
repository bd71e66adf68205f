package reconcile

import (
	"github.com/rs/zerolog"

	"github.com/nhle/pulse/internal/logging"
	"github.com/nhle/pulse/internal/model"
)

// Event is a state change applied to the Engine. Every mutation of the
// collection or the unread count goes through Apply, so the reducer is the
// single owner of the counter; call sites never adjust it directly.
type Event interface {
	isEvent()
}

// Snapshot replaces the collection wholesale with a fresh server pull.
// When UnreadCount is present the server value is authoritative; otherwise
// the count is recomputed from the items. Applying the same snapshot twice
// yields the same state.
type Snapshot struct {
	Items []model.Notification

	// UnreadCount is the server-reported unread total, when provided.
	UnreadCount *int
}

// Append adds a page of older notifications to the end of the collection.
// Items whose id is already held are skipped, which protects against
// overlap introduced by a full refresh completing between page loads.
type Append struct {
	Items []model.Notification
}

// PushInsert prepends a single notification delivered on the push channel.
// Delivery is at-least-once; a duplicate id is a no-op.
type PushInsert struct {
	Item model.Notification
}

// PushRemoval removes every notification matching the predicate.
type PushRemoval struct {
	Match Predicate
}

// MarkRead optimistically marks a notification read, recording the
// pre-mutation state so a later Fail can revert it.
type MarkRead struct {
	ID string
}

// Delete optimistically removes a notification, recording the pre-mutation
// state and position so a later Fail can restore it.
type Delete struct {
	ID string
}

// Op identifies which optimistic mutation a Confirm or Fail settles.
// A mark-read and a delete can be in flight for the same id at once, so
// settlement events carry the operation alongside the id.
type Op int

const (
	OpRead Op = iota
	OpDelete
)

// Confirm settles the pending mutation (id, op); the optimistic state
// becomes final.
type Confirm struct {
	ID string
	Op Op
}

// Fail reverts the pending mutation (id, op) to its pre-mutation snapshot.
type Fail struct {
	ID string
	Op Op
}

func (Snapshot) isEvent()    {}
func (Append) isEvent()      {}
func (PushInsert) isEvent()  {}
func (PushRemoval) isEvent() {}
func (MarkRead) isEvent()    {}
func (Delete) isEvent()      {}
func (Confirm) isEvent()     {}
func (Fail) isEvent()        {}

// Predicate selects notifications for a push removal event
// (e.g., the follow notification from an actor who just unfollowed).
type Predicate struct {
	// Kind matches the notification kind.
	Kind model.Kind

	// Actor matches the acting user's username.
	Actor string

	// UnreadOnly restricts the match to unread notifications.
	UnreadOnly bool
}

// Matches reports whether the predicate selects the given notification.
func (p Predicate) Matches(n model.Notification) bool {
	if p.Kind != "" && n.Kind != p.Kind {
		return false
	}
	if p.Actor != "" && n.Actor.Username != p.Actor {
		return false
	}
	if p.UnreadOnly && n.Read {
		return false
	}
	return true
}

// pendingKey identifies one in-flight optimistic mutation. Keying by id
// alone would let a delete clobber an outstanding mark-read for the same
// notification and cross-settle their confirmations.
type pendingKey struct {
	id string
	op Op
}

// pending holds the pre-mutation snapshot of an optimistically mutated
// notification so a Fail event can revert it.
type pending struct {
	prior model.Notification
	pos   int
}

// Engine holds the locally reconciled view of the server-owned notification
// collection and its unread count. It merges full snapshots, push deltas,
// and optimistic local mutations.
//
// The Engine is not safe for concurrent use; all events must be applied from
// the owning event loop (the Bubble Tea Update loop). Asynchronous work
// completes by delivering an Event there, never by touching the Engine from
// another goroutine.
type Engine struct {
	items  []model.Notification
	unread int

	// authoritative is true while the unread count was last set from a
	// server-reported total rather than derived locally. Older pages
	// appended while it holds are already included in the total.
	authoritative bool

	pendings map[pendingKey]pending
	log      zerolog.Logger
}

// NewEngine creates an empty reconciliation engine.
func NewEngine() *Engine {
	return &Engine{
		pendings: make(map[pendingKey]pending),
		log:      logging.Component("reconcile"),
	}
}

// Apply runs one event through the reducer.
func (e *Engine) Apply(ev Event) {
	switch ev := ev.(type) {
	case Snapshot:
		e.applySnapshot(ev)
	case Append:
		e.applyAppend(ev)
	case PushInsert:
		e.applyPushInsert(ev)
	case PushRemoval:
		e.applyPushRemoval(ev)
	case MarkRead:
		e.applyMarkRead(ev)
	case Delete:
		e.applyDelete(ev)
	case Confirm:
		delete(e.pendings, pendingKey{id: ev.ID, op: ev.Op})
	case Fail:
		e.applyFail(ev)
	}
}

func (e *Engine) applySnapshot(ev Snapshot) {
	// The snapshot is authoritative: prior optimistic state is dropped.
	e.items = e.items[:0]
	seen := make(map[string]bool, len(ev.Items))
	for _, n := range ev.Items {
		if seen[n.ID] {
			continue
		}
		seen[n.ID] = true
		e.items = append(e.items, n)
	}

	e.pendings = make(map[pendingKey]pending)

	if ev.UnreadCount != nil {
		e.unread = *ev.UnreadCount
		if e.unread < 0 {
			e.unread = 0
		}
		e.authoritative = true
	} else {
		e.unread = e.countUnread()
		e.authoritative = false
	}
}

func (e *Engine) applyAppend(ev Append) {
	present := e.idSet()
	for _, n := range ev.Items {
		if present[n.ID] {
			e.log.Debug().Str("id", n.ID).Msg("dropping overlapping page item")
			continue
		}
		present[n.ID] = true
		e.items = append(e.items, n)
		// A server-reported total already covers older pages.
		if !n.Read && !e.authoritative {
			e.unread++
		}
	}
}

func (e *Engine) applyPushInsert(ev PushInsert) {
	if e.contains(ev.Item.ID) {
		e.log.Debug().Str("id", ev.Item.ID).Msg("duplicate push insert dropped")
		return
	}
	// A pending delete still owns this id; re-inserting now would
	// duplicate the entry if the delete later fails and is restored.
	if _, ok := e.pendings[pendingKey{id: ev.Item.ID, op: OpDelete}]; ok {
		return
	}

	e.items = append([]model.Notification{ev.Item}, e.items...)
	if !ev.Item.Read {
		e.unread++
	}
}

func (e *Engine) applyPushRemoval(ev PushRemoval) {
	kept := e.items[:0]
	removedUnread := 0
	for _, n := range e.items {
		if ev.Match.Matches(n) {
			if !n.Read {
				removedUnread++
			}
			delete(e.pendings, pendingKey{id: n.ID, op: OpRead})
			delete(e.pendings, pendingKey{id: n.ID, op: OpDelete})
			continue
		}
		kept = append(kept, n)
	}
	e.items = kept
	e.decrementUnread(removedUnread)
}

func (e *Engine) applyMarkRead(ev MarkRead) {
	i := e.indexOf(ev.ID)
	if i < 0 {
		return
	}
	if e.items[i].Read {
		return
	}
	if _, ok := e.pendings[pendingKey{id: ev.ID, op: OpRead}]; ok {
		return
	}

	e.pendings[pendingKey{id: ev.ID, op: OpRead}] = pending{prior: e.items[i], pos: i}
	e.items[i].Read = true
	e.decrementUnread(1)
}

func (e *Engine) applyDelete(ev Delete) {
	i := e.indexOf(ev.ID)
	if i < 0 {
		return
	}

	// The snapshot captures the item as currently displayed, including
	// any optimistic read flag. An in-flight mark-read for the same id
	// keeps its own pending entry and composes through applyFail.
	n := e.items[i]
	e.pendings[pendingKey{id: ev.ID, op: OpDelete}] = pending{prior: n, pos: i}
	e.items = append(e.items[:i], e.items[i+1:]...)
	if !n.Read {
		e.decrementUnread(1)
	}
}

func (e *Engine) applyFail(ev Fail) {
	key := pendingKey{id: ev.ID, op: ev.Op}
	p, ok := e.pendings[key]
	if !ok {
		return
	}
	delete(e.pendings, key)

	e.log.Warn().Str("id", ev.ID).Int("op", int(ev.Op)).Msg("reverting failed optimistic mutation")

	switch ev.Op {
	case OpRead:
		i := e.indexOf(ev.ID)
		if i < 0 {
			// The item is currently removed. If a delete is still
			// pending, fold the read revert into its snapshot so a
			// later restore brings back the pre-read state; otherwise
			// a snapshot or push delta took the item and there is
			// nothing to revert.
			dk := pendingKey{id: ev.ID, op: OpDelete}
			if dp, ok := e.pendings[dk]; ok {
				dp.prior.Read = p.prior.Read
				e.pendings[dk] = dp
			}
			return
		}
		wasRead := e.items[i].Read
		e.items[i] = p.prior
		if wasRead && !p.prior.Read {
			e.unread++
		}

	case OpDelete:
		if e.contains(ev.ID) {
			return
		}
		pos := p.pos
		if pos > len(e.items) {
			pos = len(e.items)
		}
		e.items = append(e.items[:pos], append([]model.Notification{p.prior}, e.items[pos:]...)...)
		if !p.prior.Read {
			e.unread++
		}
	}
}

// Items returns a copy of the collection in display order
// (most recent first by insertion).
func (e *Engine) Items() []model.Notification {
	out := make([]model.Notification, len(e.items))
	copy(out, e.items)
	return out
}

// Len returns the number of held notifications.
func (e *Engine) Len() int {
	return len(e.items)
}

// Get returns the notification with the given id, if held.
func (e *Engine) Get(id string) (model.Notification, bool) {
	i := e.indexOf(id)
	if i < 0 {
		return model.Notification{}, false
	}
	return e.items[i], true
}

// UnreadCount returns the current unread aggregate.
func (e *Engine) UnreadCount() int {
	return e.unread
}

// UnreadIDs returns the ids of all currently unread notifications.
// Mark-all-read applies a MarkRead event per id and settles each
// confirmation independently.
func (e *Engine) UnreadIDs() []string {
	var ids []string
	for _, n := range e.items {
		if !n.Read {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

// HasPending reports whether id has any unconfirmed optimistic mutation.
func (e *Engine) HasPending(id string) bool {
	if _, ok := e.pendings[pendingKey{id: id, op: OpRead}]; ok {
		return true
	}
	_, ok := e.pendings[pendingKey{id: id, op: OpDelete}]
	return ok
}

func (e *Engine) indexOf(id string) int {
	for i, n := range e.items {
		if n.ID == id {
			return i
		}
	}
	return -1
}

func (e *Engine) contains(id string) bool {
	return e.indexOf(id) >= 0
}

func (e *Engine) idSet() map[string]bool {
	set := make(map[string]bool, len(e.items))
	for _, n := range e.items {
		set[n.ID] = true
	}
	return set
}

func (e *Engine) countUnread() int {
	count := 0
	for _, n := range e.items {
		if !n.Read {
			count++
		}
	}
	return count
}

func (e *Engine) decrementUnread(by int) {
	e.unread -= by
	if e.unread < 0 {
		e.unread = 0
	}
}
