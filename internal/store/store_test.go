package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/pulse/internal/model"
	"github.com/nhle/pulse/tests/testutil"
)

func sampleFeed() []model.Notification {
	return []model.Notification{
		{
			ID:   "n3",
			Kind: model.KindComment,
			Actor: model.Actor{
				Username:    "bob",
				DisplayName: "Bob",
			},
			Target:    &model.Target{Kind: model.TargetPost, ID: "p1"},
			Message:   "commented on your post",
			CreatedAt: time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC),
		},
		{
			ID:   "n2",
			Kind: model.KindFollow,
			Actor: model.Actor{
				Username: "carol",
			},
			Message:   "started following you",
			Read:      true,
			CreatedAt: time.Date(2026, 8, 19, 9, 0, 0, 0, time.UTC),
		},
		{
			ID:   "n1",
			Kind: model.KindLike,
			Actor: model.Actor{
				Username: "alice",
			},
			Message:   "liked your post",
			CreatedAt: time.Date(2026, 8, 18, 8, 0, 0, 0, time.UTC),
		},
	}
}

func TestReplaceAndGetNotificationsPreservesOrder(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.ReplaceNotifications(ctx, sampleFeed()))

	items, err := s.GetNotifications(ctx)
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, "n3", items[0].ID)
	assert.Equal(t, "n2", items[1].ID)
	assert.Equal(t, "n1", items[2].ID)

	require.NotNil(t, items[0].Target)
	assert.Equal(t, model.TargetPost, items[0].Target.Kind)
	assert.Equal(t, "p1", items[0].Target.ID)
	assert.Nil(t, items[1].Target)
	assert.True(t, items[1].Read)
}

func TestReplaceNotificationsIsWholesale(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.ReplaceNotifications(ctx, sampleFeed()))
	require.NoError(t, s.ReplaceNotifications(ctx, sampleFeed()[:1]))

	items, err := s.GetNotifications(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "n3", items[0].ID)
}

func TestSetNotificationRead(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.ReplaceNotifications(ctx, sampleFeed()))
	require.NoError(t, s.SetNotificationRead(ctx, "n1", true))

	items, err := s.GetNotifications(ctx)
	require.NoError(t, err)
	for _, n := range items {
		if n.ID == "n1" {
			assert.True(t, n.Read)
		}
	}
}

func TestDeleteNotification(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.ReplaceNotifications(ctx, sampleFeed()))
	require.NoError(t, s.DeleteNotification(ctx, "n2"))

	items, err := s.GetNotifications(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestProfileRoundTrip(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	following := true
	p := model.Profile{
		Username:    "alice",
		DisplayName: "Alice",
		Bio:         "says hi",
		Followers:   12,
		Following:   34,
		IsFollowing: &following,
		FetchedAt:   time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.UpsertProfile(ctx, p))

	got, err := s.GetProfile(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Alice", got.DisplayName)
	assert.Equal(t, 12, got.Followers)
	require.NotNil(t, got.IsFollowing)
	assert.True(t, *got.IsFollowing)
}

func TestProfileUpsertOverwrites(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	p := model.Profile{Username: "alice", DisplayName: "Alice", FetchedAt: time.Now()}
	require.NoError(t, s.UpsertProfile(ctx, p))

	p.DisplayName = "Alice L."
	p.IsFollowing = nil
	require.NoError(t, s.UpsertProfile(ctx, p))

	got, err := s.GetProfile(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Alice L.", got.DisplayName)
	assert.Nil(t, got.IsFollowing)
}

func TestGetProfileMissingReturnsNil(t *testing.T) {
	s := testutil.NewTestStore(t)

	got, err := s.GetProfile(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, got)
}
