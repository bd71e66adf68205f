package app

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/nhle/pulse/internal/api"
	"github.com/nhle/pulse/internal/keys"
	"github.com/nhle/pulse/internal/logging"
	"github.com/nhle/pulse/internal/model"
	"github.com/nhle/pulse/internal/push"
	"github.com/nhle/pulse/internal/reconcile"
	"github.com/nhle/pulse/internal/session"
	"github.com/nhle/pulse/internal/store"
	appsync "github.com/nhle/pulse/internal/sync"
	"github.com/nhle/pulse/internal/ui"
	"github.com/nhle/pulse/internal/ui/command"
	helpview "github.com/nhle/pulse/internal/ui/help"
	"github.com/nhle/pulse/internal/ui/notiflist"
	profileview "github.com/nhle/pulse/internal/ui/profile"
	"github.com/nhle/pulse/internal/ui/profileform"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewFeed ViewState = iota
	ViewProfile
	ViewProfileEdit
	ViewHelp
	ViewCommand
)

// Model is the root Bubble Tea model. Its Update loop is the single
// logical thread of the client: every pull, push event, and confirmation
// completes by delivering a message here, in whatever order the network
// resolves them. All shared state (the reconciliation engine, the fence,
// the session) is owned by this loop.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	keys         *keys.KeyMap

	client *api.Client
	store  store.Store
	sess   *session.Session

	engine *reconcile.Engine
	fence  *reconcile.Fence
	cursor *reconcile.Cursor

	poller *appsync.Poller
	stream *push.Stream

	notifList   notiflist.Model
	profileView profileview.Model
	profileForm profileform.Model
	helpView    helpview.Model
	commandView command.Model

	// follow derives the displayed follow state for the viewed subject.
	follow *session.FollowState

	// ownProfile caches the signed-in user's profile for the edit form.
	ownProfile *model.Profile

	ready     bool
	notice    string
	authError string
	log       zerolog.Logger
}

// New creates the root application model.
func New(
	client *api.Client,
	s store.Store,
	sess *session.Session,
	poller *appsync.Poller,
	stream *push.Stream,
	pageSize int,
) Model {
	k := keys.DefaultKeyMap()

	return Model{
		currentView: ViewFeed,
		keys:        k,
		client:      client,
		store:       s,
		sess:        sess,
		engine:      reconcile.NewEngine(),
		fence:       reconcile.NewFence(),
		cursor:      reconcile.NewCursor(pageSize),
		poller:      poller,
		stream:      stream,
		notifList:   notiflist.New(k, 80, 24),
		profileView: profileview.New(k, 80, 24),
		profileForm: profileform.New(80, 24),
		helpView:    helpview.New(k, 80, 24),
		commandView: command.New(80, 24),
		log:         logging.Component("app"),
	}
}

// Init seeds the feed from the local cache, starts the pull cycle and the
// push stream, and subscribes to membership changes.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.loadCachedFeed(),
		m.poller.Start(),
		m.stream.Start(),
		m.sess.Wait(),
	)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		m.notifList.SetSize(contentWidth, contentHeight)
		m.profileView.SetSize(contentWidth, contentHeight)
		m.profileForm.SetSize(contentWidth, contentHeight)
		m.helpView.SetSize(contentWidth, contentHeight)
		m.commandView.SetSize(contentWidth, contentHeight)
		// Forward to the active view so huh forms can lay out.
		return m.updateActiveView(msg)

	case cachedFeedMsg:
		// Cache only seeds an empty engine; a pull that resolved first
		// is authoritative and must not be clobbered.
		if m.engine.Len() == 0 && len(msg.items) > 0 {
			m.engine.Apply(reconcile.Snapshot{Items: msg.items})
		}
		return m, m.syncList()

	case appsync.PullResultMsg:
		return m.handlePullResult(msg)

	case push.Event:
		return m.handlePushEvent(msg)

	case session.MembershipChange:
		// Follow state views derive from the session at render time;
		// nothing to recompute here beyond continuing to listen.
		return m, m.sess.Wait()

	case notiflist.OpenActorMsg:
		return m, m.openProfile(msg.Username)

	case notiflist.MarkReadMsg:
		m.engine.Apply(reconcile.MarkRead{ID: msg.ID})
		return m, tea.Batch(m.syncList(), m.confirmMarkRead(msg.ID))

	case notiflist.DeleteMsg:
		m.engine.Apply(reconcile.Delete{ID: msg.ID})
		return m, tea.Batch(m.syncList(), m.confirmDelete(msg.ID))

	case notiflist.MarkAllReadMsg:
		// Each id settles independently as its confirmation resolves.
		ids := m.engine.UnreadIDs()
		cmds := make([]tea.Cmd, 0, len(ids)+1)
		for _, id := range ids {
			m.engine.Apply(reconcile.MarkRead{ID: id})
			cmds = append(cmds, m.confirmMarkRead(id))
		}
		cmds = append(cmds, m.syncList())
		return m, tea.Batch(cmds...)

	case notiflist.LoadMoreMsg:
		if m.cursor.Exhausted() {
			m.notice = "no more notifications"
			return m, nil
		}
		m.notifList.SetLoading(true)
		return m, m.loadMore()

	case pageLoadedMsg:
		return m.handlePageLoaded(msg)

	case markReadDoneMsg:
		return m.handleMutationDone(msg.id, reconcile.OpRead, msg.err, "mark read")

	case deleteDoneMsg:
		return m.handleMutationDone(msg.id, reconcile.OpDelete, msg.err, "delete")

	case cachedProfileMsg:
		if !m.fence.Current(msg.subject, msg.token) {
			return m, nil
		}
		if msg.profile != nil {
			m.profileView.SetProfile(msg.profile)
		}
		return m, nil

	case profileLoadedMsg:
		return m.handleProfileLoaded(msg)

	case profileview.BackMsg:
		m.currentView = ViewFeed
		return m, nil

	case profileview.ToggleFollowMsg:
		return m.handleToggleFollow(msg.Subject)

	case followDoneMsg:
		return m.handleFollowDone(msg)

	case profileview.EditMsg:
		m.previousView = m.currentView
		m.currentView = ViewProfileEdit
		return m, m.profileForm.Start(m.ownProfile)

	case profileform.SubmitMsg:
		m.currentView = m.previousView
		return m, m.saveProfile(msg.Update)

	case profileform.CancelMsg:
		m.currentView = m.previousView
		return m, nil

	case profileSavedMsg:
		if msg.err != nil {
			m.notice = "profile update failed"
			m.log.Error().Err(msg.err).Msg("profile update failed")
			return m, nil
		}
		m.ownProfile = msg.profile
		if m.profileView.Subject() == m.sess.Username {
			m.profileView.SetProfile(msg.profile)
		}
		m.notice = "profile updated"
		return m, m.persistProfile(*msg.profile)

	case command.CommandMsg:
		m.currentView = m.previousView
		return m.executeCommand(string(msg))

	case tea.KeyMsg:
		return m.handleGlobalKeys(msg)
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// handlePullResult merges a completed pull snapshot.
func (m Model) handlePullResult(msg appsync.PullResultMsg) (tea.Model, tea.Cmd) {
	waitCmd := m.poller.WaitForNextResult()

	if msg.AuthError {
		m.authError = "authentication expired; run `pulse auth <token>`"
		return m, waitCmd
	}
	if msg.Error != nil {
		m.notice = "sync failed; will retry"
		return m, waitCmd
	}

	m.authError = ""
	m.engine.Apply(reconcile.Snapshot{
		Items:       msg.Page.Items,
		UnreadCount: msg.Page.UnreadCount,
	})
	m.cursor.CompleteRefresh(len(msg.Page.Items), msg.Page.HasMore)

	return m, tea.Batch(m.syncList(), m.persistFeed(), waitCmd)
}

// handlePushEvent merges one push delta.
func (m Model) handlePushEvent(ev push.Event) (tea.Model, tea.Cmd) {
	waitCmd := m.stream.WaitForEvent()

	switch ev.Name {
	case push.EventNewItem:
		m.engine.Apply(reconcile.PushInsert{Item: *ev.Item})
	case push.EventItemRemoved:
		m.engine.Apply(reconcile.PushRemoval{Match: reconcile.Predicate{
			Kind:       ev.Removal.Kind,
			Actor:      ev.Removal.Actor,
			UnreadOnly: ev.Removal.UnreadOnly,
		}})
	default:
		return m, waitCmd
	}

	return m, tea.Batch(m.syncList(), m.persistFeed(), waitCmd)
}

// handlePageLoaded merges a load-more page.
func (m Model) handlePageLoaded(msg pageLoadedMsg) (tea.Model, tea.Cmd) {
	m.notifList.SetLoading(false)

	if msg.err != nil {
		m.notice = "loading more failed"
		m.log.Warn().Err(msg.err).Msg("load more failed")
		return m, nil
	}

	m.engine.Apply(reconcile.Append{Items: msg.page.Items})
	m.cursor.CompleteLoadMore(len(msg.page.Items), msg.page.HasMore)

	return m, m.syncList()
}

// handleMutationDone settles an optimistic mutation's confirmation. A
// confirmed mutation is mirrored into the cache per row; the next full
// snapshot replaces the feed wholesale anyway.
func (m Model) handleMutationDone(id string, op reconcile.Op, err error, action string) (tea.Model, tea.Cmd) {
	if err != nil {
		m.engine.Apply(reconcile.Fail{ID: id, Op: op})
		m.notice = action + " failed"
		m.log.Warn().Err(err).Str("id", id).Msg(action + " confirmation failed")
		return m, m.syncList()
	}

	m.engine.Apply(reconcile.Confirm{ID: id, Op: op})

	var mirror tea.Cmd
	switch op {
	case reconcile.OpRead:
		mirror = m.mirrorRead(id)
	case reconcile.OpDelete:
		mirror = m.mirrorDelete(id)
	}
	return m, tea.Batch(m.syncList(), mirror)
}

// handleProfileLoaded applies a fetched profile, unless the viewed
// identity changed while the request was in flight. A stale response is
// dropped silently: none of its side effects run, not even clearing the
// loading flag, which now belongs to the newer request.
func (m Model) handleProfileLoaded(msg profileLoadedMsg) (tea.Model, tea.Cmd) {
	if !m.fence.Current(msg.subject, msg.token) {
		m.log.Debug().Str("subject", msg.subject).Msg("dropping stale profile response")
		return m, nil
	}

	if msg.err != nil {
		m.profileView.SetFetchFailed()
		m.notice = "could not load profile"
		m.log.Warn().Err(msg.err).Str("subject", msg.subject).Msg("profile fetch failed")
		return m, nil
	}

	m.profileView.SetProfile(msg.profile)

	// The server's answer is authoritative for the follow state.
	if msg.profile.IsFollowing != nil && m.follow != nil && m.follow.Subject() == msg.subject {
		m.follow.SetAuthoritative(*msg.profile.IsFollowing)
	}
	if msg.subject == m.sess.Username {
		m.ownProfile = msg.profile
	}

	return m, m.persistProfile(*msg.profile)
}

// handleToggleFollow optimistically flips the follow state and issues
// exactly one confirmation call for this toggle.
func (m Model) handleToggleFollow(subject string) (tea.Model, tea.Cmd) {
	if m.follow == nil || m.follow.Subject() != subject {
		return m, nil
	}
	next := m.follow.Toggle()
	return m, m.confirmFollow(subject, next)
}

// handleFollowDone reacts to a follow confirmation. On failure the
// optimistic value stays displayed and an authoritative refresh of the
// subject settles the disagreement.
func (m Model) handleFollowDone(msg followDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err == nil {
		return m, nil
	}

	m.notice = "follow change failed"
	m.log.Warn().Err(msg.err).Str("subject", msg.subject).Msg("follow confirmation failed")

	if m.currentView == ViewProfile && m.profileView.Subject() == msg.subject {
		token := m.fence.Switch(msg.subject)
		return m, m.fetchProfile(msg.subject, token)
	}
	return m, nil
}

// handleGlobalKeys processes keys that work regardless of current view.
func (m Model) handleGlobalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, m.quit()

	case "q":
		if m.currentView == ViewFeed {
			return m, m.quit()
		}

	case "?":
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return m, nil
		}
		if m.currentView == ViewFeed || m.currentView == ViewProfile {
			m.previousView = m.currentView
			m.currentView = ViewHelp
			return m, nil
		}

	case ":":
		if m.currentView == ViewCommand {
			m.currentView = m.previousView
			return m, nil
		}
		if m.currentView == ViewFeed || m.currentView == ViewProfile {
			m.previousView = m.currentView
			m.currentView = ViewCommand
			return m, m.commandView.Focus()
		}

	case "r":
		if m.currentView == ViewFeed {
			m.notice = ""
			m.poller.Refresh()
			return m, nil
		}

	case "p":
		if m.currentView == ViewFeed {
			return m, m.openProfile(m.sess.Username)
		}
	}

	return m.updateActiveView(msg)
}

// executeCommand handles a command string from the command palette.
func (m Model) executeCommand(cmd string) (tea.Model, tea.Cmd) {
	switch {
	case cmd == "refresh" || cmd == "sync":
		m.poller.Refresh()
		return m, nil
	case cmd == "quit" || cmd == "q":
		return m, m.quit()
	case cmd == "mark-all" || cmd == "read-all":
		return m.Update(notiflist.MarkAllReadMsg{})
	case cmd == "me" || cmd == "profile":
		return m, m.openProfile(m.sess.Username)
	case len(cmd) > 8 && cmd[:8] == "profile ":
		return m, m.openProfile(cmd[8:])
	default:
		m.notice = "unknown command: " + cmd
		return m, nil
	}
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewFeed:
		m.notifList, cmd = m.notifList.Update(msg)
	case ViewProfile:
		m.profileView, cmd = m.profileView.Update(msg)
	case ViewProfileEdit:
		m.profileForm, cmd = m.profileForm.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	}

	return m, cmd
}

// quit tears down background work and exits.
func (m Model) quit() tea.Cmd {
	m.poller.Stop()
	m.stream.Stop()
	return tea.Quit
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader("Pulse", m.engine.UnreadCount(), m.pullStatus())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewFeed:
		return m.notifList.View()
	case ViewProfile:
		return m.profileView.View()
	case ViewProfileEdit:
		return m.profileForm.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	default:
		return ""
	}
}

// pullStatus returns a short string describing the pull cycle state.
func (m Model) pullStatus() string {
	status := m.poller.Status()
	switch status.State {
	case appsync.StateRunning:
		return "syncing"
	case appsync.StateError:
		return "⚠ offline"
	default:
		return "idle"
	}
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	// Auth problems and transient notices take over the status bar.
	if m.authError != "" {
		return m.authError
	}
	if m.notice != "" {
		return m.notice
	}

	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return ": close command | enter execute | esc back"
	case ViewProfile:
		return "f follow | e edit (own) | esc back"
	case ViewProfileEdit:
		return "enter submit | esc cancel"
	default:
		return "q quit | ? help | enter profile | m read | d delete | A read all | L more"
	}
}
