package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/pulse/internal/model"
	"github.com/nhle/pulse/internal/reconcile"
	"github.com/nhle/pulse/internal/session"
)

// requestTimeout bounds every one-shot confirmation or fetch issued from
// the event loop.
const requestTimeout = 30 * time.Second

// cachedFeedMsg carries the locally cached feed loaded at startup.
type cachedFeedMsg struct {
	items []model.Notification
}

// pageLoadedMsg carries one load-more page.
type pageLoadedMsg struct {
	page *pageResult
	err  error
}

// pageResult mirrors the fields of the listing response the loop needs.
type pageResult struct {
	Items   []model.Notification
	HasMore *bool
}

// markReadDoneMsg reports the server's answer to a mark-read confirmation.
type markReadDoneMsg struct {
	id  string
	err error
}

// deleteDoneMsg reports the server's answer to a delete confirmation.
type deleteDoneMsg struct {
	id  string
	err error
}

// cachedProfileMsg carries a cached profile for the fenced subject.
type cachedProfileMsg struct {
	subject string
	token   reconcile.Token
	profile *model.Profile
}

// profileLoadedMsg carries a fetched profile for the fenced subject.
type profileLoadedMsg struct {
	subject string
	token   reconcile.Token
	profile *model.Profile
	err     error
}

// followDoneMsg reports the server's answer to a follow toggle.
type followDoneMsg struct {
	subject   string
	following bool
	err       error
}

// profileSavedMsg reports the result of a profile edit submission.
type profileSavedMsg struct {
	profile *model.Profile
	err     error
}

// syncList pushes the engine's current collection into the list view.
// It runs inline on the loop, not as an async command.
func (m *Model) syncList() tea.Cmd {
	return m.notifList.SetItems(m.engine.Items())
}

// loadCachedFeed reads the cached feed so the screen has content before
// the first pull completes.
func (m Model) loadCachedFeed() tea.Cmd {
	s := m.store
	log := m.log
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		items, err := s.GetNotifications(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("loading cached feed failed")
			return cachedFeedMsg{}
		}
		return cachedFeedMsg{items: items}
	}
}

// persistFeed writes the engine's current collection to the cache.
// Cache writes are best effort; a failure never disturbs the loop.
func (m Model) persistFeed() tea.Cmd {
	s := m.store
	log := m.log
	items := m.engine.Items()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		if err := s.ReplaceNotifications(ctx, items); err != nil {
			log.Warn().Err(err).Msg("persisting feed failed")
		}
		return nil
	}
}

// mirrorRead mirrors a confirmed read-state change into the cache.
// Best effort, like every cache write.
func (m Model) mirrorRead(id string) tea.Cmd {
	s := m.store
	log := m.log
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		if err := s.SetNotificationRead(ctx, id, true); err != nil {
			log.Warn().Err(err).Str("id", id).Msg("mirroring read state failed")
		}
		return nil
	}
}

// mirrorDelete mirrors a confirmed deletion into the cache.
func (m Model) mirrorDelete(id string) tea.Cmd {
	s := m.store
	log := m.log
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		if err := s.DeleteNotification(ctx, id); err != nil {
			log.Warn().Err(err).Str("id", id).Msg("mirroring deletion failed")
		}
		return nil
	}
}

// confirmMarkRead issues the server confirmation for one optimistic
// mark-read.
func (m Model) confirmMarkRead(id string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		err := client.MarkNotificationRead(ctx, id)
		return markReadDoneMsg{id: id, err: err}
	}
}

// confirmDelete issues the server confirmation for one optimistic delete.
func (m Model) confirmDelete(id string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		err := client.DeleteNotification(ctx, id)
		return deleteDoneMsg{id: id, err: err}
	}
}

// loadMore fetches the next page at the cursor's offset.
func (m Model) loadMore() tea.Cmd {
	client := m.client
	offset := m.cursor.NextOffset(true)
	limit := m.cursor.PageSize()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		page, err := client.ListNotifications(ctx, offset, limit)
		if err != nil {
			return pageLoadedMsg{err: err}
		}
		return pageLoadedMsg{page: &pageResult{Items: page.Items, HasMore: page.HasMore}}
	}
}

// openProfile switches the profile screen to subject. The fence generation
// for the subject being left is advanced so its in-flight responses are
// discarded on arrival, and a fresh token is captured for the new subject.
func (m *Model) openProfile(subject string) tea.Cmd {
	if subject == "" {
		return nil
	}

	if prev := m.profileView.Subject(); prev != "" && prev != subject {
		m.fence.Switch(prev)
	}
	token := m.fence.Switch(subject)

	isSelf := subject == m.sess.Username
	m.follow = session.NewFollowState(m.sess, subject)
	m.profileView.SetSubject(subject, isSelf, m.follow)
	m.previousView = m.currentView
	m.currentView = ViewProfile
	m.notice = ""

	return tea.Batch(
		m.loadCachedProfile(subject, token),
		m.fetchProfile(subject, token),
	)
}

// loadCachedProfile reads the cached profile so the screen has content
// while the fetch is in flight.
func (m Model) loadCachedProfile(subject string, token reconcile.Token) tea.Cmd {
	s := m.store
	log := m.log
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		p, err := s.GetProfile(ctx, subject)
		if err != nil {
			log.Warn().Err(err).Str("subject", subject).Msg("loading cached profile failed")
			return nil
		}
		return cachedProfileMsg{subject: subject, token: token, profile: p}
	}
}

// fetchProfile retrieves the subject's profile from the server, carrying
// the fence token captured when the request was issued.
func (m Model) fetchProfile(subject string, token reconcile.Token) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		p, err := client.GetProfile(ctx, subject)
		if p != nil {
			p.FetchedAt = time.Now()
		}
		return profileLoadedMsg{subject: subject, token: token, profile: p, err: err}
	}
}

// persistProfile writes a profile to the cache. Best effort.
func (m Model) persistProfile(p model.Profile) tea.Cmd {
	s := m.store
	log := m.log
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		if err := s.UpsertProfile(ctx, p); err != nil {
			log.Warn().Err(err).Str("subject", p.Username).Msg("persisting profile failed")
		}
		return nil
	}
}

// confirmFollow issues exactly one follow or unfollow call for a toggle.
// The endpoints are not idempotent, so the command is never retried here;
// a failure surfaces as followDoneMsg and is settled by an authoritative
// refresh of the subject.
func (m Model) confirmFollow(subject string, following bool) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		var err error
		if following {
			err = client.Follow(ctx, subject)
		} else {
			err = client.Unfollow(ctx, subject)
		}
		return followDoneMsg{subject: subject, following: following, err: err}
	}
}

// saveProfile submits the profile edit form to the server.
func (m Model) saveProfile(update model.ProfileUpdate) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		p, err := client.UpdateProfile(ctx, update)
		if p != nil {
			p.FetchedAt = time.Now()
		}
		return profileSavedMsg{profile: p, err: err}
	}
}
