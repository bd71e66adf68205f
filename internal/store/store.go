package store

import (
	"context"

	"github.com/nhle/pulse/internal/model"
)

// Store defines the local cache interface. The cache exists so the screens
// have content before the first pull completes; the server remains the
// source of truth and every snapshot replaces the cached feed wholesale.
type Store interface {
	// === Notification feed cache ===

	ReplaceNotifications(ctx context.Context, items []model.Notification) error
	GetNotifications(ctx context.Context) ([]model.Notification, error)
	SetNotificationRead(ctx context.Context, id string, read bool) error
	DeleteNotification(ctx context.Context, id string) error

	// === Profile cache ===

	UpsertProfile(ctx context.Context, p model.Profile) error
	GetProfile(ctx context.Context, username string) (*model.Profile, error)
}
