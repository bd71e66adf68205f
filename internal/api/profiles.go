package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/nhle/pulse/internal/model"
)

// GetProfile retrieves the profile for username.
func (c *Client) GetProfile(ctx context.Context, username string) (*model.Profile, error) {
	path := "/api/v1/users/" + url.PathEscape(username)

	var profile model.Profile
	if err := c.Get(ctx, path, &profile); err != nil {
		return nil, fmt.Errorf("getting profile %s: %w", username, err)
	}
	return &profile, nil
}

// UpdateProfile updates the signed-in user's editable profile fields and
// returns the resulting profile.
func (c *Client) UpdateProfile(ctx context.Context, update model.ProfileUpdate) (*model.Profile, error) {
	var profile model.Profile
	if err := c.Put(ctx, "/api/v1/profile", update, &profile); err != nil {
		return nil, fmt.Errorf("updating profile: %w", err)
	}
	return &profile, nil
}

// Follow starts following username. Not idempotent: follow and unfollow
// are toggles, so each user action must issue exactly one call.
func (c *Client) Follow(ctx context.Context, username string) error {
	path := "/api/v1/users/" + url.PathEscape(username) + "/follow"
	if err := c.Post(ctx, path, nil, nil); err != nil {
		return fmt.Errorf("following %s: %w", username, err)
	}
	return nil
}

// Unfollow stops following username. Not idempotent.
func (c *Client) Unfollow(ctx context.Context, username string) error {
	path := "/api/v1/users/" + url.PathEscape(username) + "/follow"
	if err := c.Delete(ctx, path); err != nil {
		return fmt.Errorf("unfollowing %s: %w", username, err)
	}
	return nil
}

// ListFollowing retrieves the handles the signed-in user follows, used to
// seed the session's membership set at startup.
func (c *Client) ListFollowing(ctx context.Context) ([]string, error) {
	var resp struct {
		Following []string `json:"following"`
	}
	if err := c.Get(ctx, "/api/v1/profile/following", &resp); err != nil {
		return nil, fmt.Errorf("listing following: %w", err)
	}
	return resp.Following, nil
}
