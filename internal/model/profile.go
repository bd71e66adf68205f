package model

import "time"

// Profile is the server's view of a user at fetch time.
type Profile struct {
	// Username is the unique handle identifying the user.
	Username string `json:"username"`

	// DisplayName is the user's chosen display name.
	DisplayName string `json:"display_name"`

	// Bio is the free-text profile description.
	Bio string `json:"bio"`

	// Followers is the number of users following this user.
	Followers int `json:"followers"`

	// Following is the number of users this user follows.
	Following int `json:"following"`

	// IsFollowing, when present, is the server-authoritative answer to
	// whether the signed-in user follows this profile. Absent for the
	// signed-in user's own profile.
	IsFollowing *bool `json:"is_following,omitempty"`

	// FetchedAt is when this profile was last retrieved.
	FetchedAt time.Time `json:"fetched_at"`
}

// ProfileUpdate holds the editable profile fields for an update request.
type ProfileUpdate struct {
	DisplayName string `json:"display_name"`
	Bio         string `json:"bio"`
}
