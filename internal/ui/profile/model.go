package profile

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/pulse/internal/keys"
	"github.com/nhle/pulse/internal/model"
	"github.com/nhle/pulse/internal/session"
	"github.com/nhle/pulse/internal/theme"
)

// BackMsg is sent when the user leaves the profile screen.
type BackMsg struct{}

// ToggleFollowMsg is sent when the user toggles following the subject.
type ToggleFollowMsg struct {
	Subject string
}

// EditMsg is sent when the user wants to edit their own profile.
type EditMsg struct{}

// Model is the profile screen for one viewed subject. The subject can
// change while a fetch for the previous subject is still in flight; the
// root model fences those responses, so this view only ever receives
// data for its current subject.
type Model struct {
	subject     string
	profile     *model.Profile
	follow      *session.FollowState
	isSelf      bool
	loading     bool
	fetchFailed bool
	keys        *keys.KeyMap
	width       int
	height      int
}

// New creates an empty profile view.
func New(k *keys.KeyMap, width, height int) Model {
	return Model{
		keys:   k,
		width:  width,
		height: height,
	}
}

// SetSubject points the view at a new subject and resets per-subject state.
// The follow derivation is rebuilt for the new subject.
func (m *Model) SetSubject(subject string, isSelf bool, follow *session.FollowState) {
	m.subject = subject
	m.isSelf = isSelf
	m.follow = follow
	m.profile = nil
	m.loading = true
	m.fetchFailed = false
}

// Subject returns the currently viewed subject.
func (m Model) Subject() string {
	return m.subject
}

// SetProfile installs fetched (or cached) profile data for the subject.
func (m *Model) SetProfile(p *model.Profile) {
	m.profile = p
	m.loading = false
	m.fetchFailed = false
}

// SetLoading toggles the loading indicator.
func (m *Model) SetLoading(loading bool) {
	m.loading = loading
}

// SetFetchFailed marks the fetch as failed so the view shows an error state
// instead of a perpetual spinner.
func (m *Model) SetFetchFailed() {
	m.loading = false
	m.fetchFailed = true
}

// Update handles messages for the profile view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg { return BackMsg{} }

		case key.Matches(msg, m.keys.Follow):
			if m.isSelf || m.subject == "" {
				return m, nil
			}
			subject := m.subject
			return m, func() tea.Msg {
				return ToggleFollowMsg{Subject: subject}
			}

		case key.Matches(msg, m.keys.EditProfile):
			if !m.isSelf {
				return m, nil
			}
			return m, func() tea.Msg { return EditMsg{} }
		}
	}

	return m, nil
}

// View renders the profile screen.
func (m Model) View() string {
	style := theme.PanelStyle.Width(m.width - 4)

	if m.loading {
		return style.Render(fmt.Sprintf("Loading @%s...", m.subject))
	}
	if m.fetchFailed {
		return style.Render(fmt.Sprintf("Could not load @%s.\n\nPress esc to go back.", m.subject))
	}
	if m.profile == nil {
		return style.Render("No profile loaded.")
	}

	p := m.profile

	name := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		Render(p.DisplayName)
	handle := theme.DimmedStyle.Render("@" + p.Username)

	counts := fmt.Sprintf("%d followers · %d following", p.Followers, p.Following)

	var followLine string
	switch {
	case m.isSelf:
		followLine = theme.HelpStyle.Render("e edit profile")
	case m.follow != nil && m.follow.Following():
		followLine = theme.FollowingStyle.Render("✓ Following") +
			theme.HelpStyle.Render("  (f to unfollow)")
	default:
		followLine = theme.NotFollowingStyle.Render("Not following") +
			theme.HelpStyle.Render("  (f to follow)")
	}

	sections := []string{
		lipgloss.JoinHorizontal(lipgloss.Top, name, " ", handle),
		"",
		counts,
		"",
		followLine,
	}
	if p.Bio != "" {
		sections = append(sections, "", p.Bio)
	}

	return style.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
