package model

import "time"

// Kind identifies the type of activity a notification describes.
type Kind string

const (
	KindLike          Kind = "like"
	KindComment       Kind = "comment"
	KindMention       Kind = "mention"
	KindFollow        Kind = "follow"
	KindChallenge     Kind = "challenge"
	KindMessage       Kind = "message"
	KindCollaboration Kind = "collaboration"
	KindEdit          Kind = "edit"
)

// TargetKind identifies what a notification's target reference points at.
type TargetKind string

const (
	TargetPost    TargetKind = "post"
	TargetComment TargetKind = "comment"
	TargetRoom    TargetKind = "room"
)

// Actor is a reference to the user whose activity produced a notification.
type Actor struct {
	// Username is the unique handle of the acting user.
	Username string `json:"username"`

	// DisplayName is the acting user's current display name.
	DisplayName string `json:"display_name"`
}

// Target is an optional reference to the object a notification is about
// (the liked post, the commented thread, the collaboration room).
type Target struct {
	// Kind identifies the referenced object type.
	Kind TargetKind `json:"kind"`

	// ID is the referenced object's identifier within its kind.
	ID string `json:"id"`
}

// Notification is a single entry in the server-owned notification feed.
// Identity is immutable; only the read flag changes after creation.
type Notification struct {
	// ID is the unique identifier for this notification.
	ID string `json:"id"`

	// Kind is the activity type (use Kind* constants).
	Kind Kind `json:"kind"`

	// Actor is the user whose activity produced this notification.
	Actor Actor `json:"actor"`

	// Target optionally references the object the activity was about.
	Target *Target `json:"target,omitempty"`

	// Message is the human-readable notification text.
	Message string `json:"message"`

	// Read indicates whether the user has seen this notification.
	Read bool `json:"read"`

	// CreatedAt is when this notification was generated server-side.
	CreatedAt time.Time `json:"created_at"`
}
