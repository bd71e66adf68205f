package push

import "github.com/nhle/pulse/internal/model"

// EventName identifies a push channel event type.
type EventName string

const (
	// EventNewItem carries a freshly created notification.
	EventNewItem EventName = "notification"

	// EventItemRemoved carries a removal descriptor for notifications
	// that are no longer valid (e.g., the actor unfollowed again).
	EventItemRemoved EventName = "notification-removed"
)

// Removal describes which notifications a removal event targets.
type Removal struct {
	Kind       model.Kind `json:"kind"`
	Actor      string     `json:"actor"`
	UnreadOnly bool       `json:"unread_only"`
}

// Event is one push delta delivered outside the pull cycle. Delivery is
// at-least-once with no ordering guarantee relative to pull completions;
// the reconciliation engine's idempotence rules absorb duplicates.
type Event struct {
	Name    EventName
	Item    *model.Notification
	Removal *Removal
}
