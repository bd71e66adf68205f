package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/nhle/pulse/internal/model"
)

// NotificationPage is the pull endpoint's response: an authoritative
// snapshot page plus optional aggregate fields.
type NotificationPage struct {
	// Items is the page of notifications, most recent first.
	Items []model.Notification `json:"items"`

	// UnreadCount is the server's unread total across all pages,
	// when the server reports one.
	UnreadCount *int `json:"unread_count,omitempty"`

	// HasMore indicates whether further pages exist, when the server
	// reports it; otherwise completion is inferred from page length.
	HasMore *bool `json:"has_more,omitempty"`
}

// ListNotifications retrieves one page of the notification feed.
func (c *Client) ListNotifications(ctx context.Context, offset, limit int) (*NotificationPage, error) {
	q := url.Values{}
	q.Set("offset", fmt.Sprintf("%d", offset))
	q.Set("limit", fmt.Sprintf("%d", limit))

	var page NotificationPage
	if err := c.Get(ctx, "/api/v1/notifications?"+q.Encode(), &page); err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	return &page, nil
}

// MarkNotificationRead confirms a read-state change server-side.
// The endpoint is idempotent; repeated calls have no additional effect.
func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	path := "/api/v1/notifications/" + url.PathEscape(id) + "/read"
	if err := c.Post(ctx, path, nil, nil); err != nil {
		return fmt.Errorf("marking notification %s read: %w", id, err)
	}
	return nil
}

// DeleteNotification confirms a deletion server-side. Idempotent.
func (c *Client) DeleteNotification(ctx context.Context, id string) error {
	path := "/api/v1/notifications/" + url.PathEscape(id)
	if err := c.Delete(ctx, path); err != nil {
		return fmt.Errorf("deleting notification %s: %w", id, err)
	}
	return nil
}
