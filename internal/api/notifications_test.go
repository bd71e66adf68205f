package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListNotificationsParsesAggregates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/notifications", r.URL.Path)
		assert.Equal(t, "40", r.URL.Query().Get("offset"))
		assert.Equal(t, "20", r.URL.Query().Get("limit"))

		w.Write([]byte(`{
			"items": [
				{"id": "n1", "kind": "like", "actor": {"username": "alice"}, "read": false},
				{"id": "n2", "kind": "follow", "actor": {"username": "bob"}, "read": true}
			],
			"unread_count": 14,
			"has_more": true
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "t")
	page, err := c.ListNotifications(context.Background(), 40, 20)

	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "n1", page.Items[0].ID)
	require.NotNil(t, page.UnreadCount)
	assert.Equal(t, 14, *page.UnreadCount)
	require.NotNil(t, page.HasMore)
	assert.True(t, *page.HasMore)
}

func TestListNotificationsOmittedAggregatesStayNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items": []}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "t")
	page, err := c.ListNotifications(context.Background(), 0, 20)

	require.NoError(t, err)
	assert.Nil(t, page.UnreadCount)
	assert.Nil(t, page.HasMore)
}

func TestMarkNotificationRead(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "t")
	err := c.MarkNotificationRead(context.Background(), "n1")

	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/api/v1/notifications/n1/read", gotPath)
}

func TestDeleteNotification(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "t")
	err := c.DeleteNotification(context.Background(), "n1")

	require.NoError(t, err)
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/api/v1/notifications/n1", gotPath)
}
