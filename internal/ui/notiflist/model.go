package notiflist

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/pulse/internal/keys"
	"github.com/nhle/pulse/internal/model"
	"github.com/nhle/pulse/internal/theme"
)

// OpenActorMsg is sent when the user selects a notification to view the
// acting user's profile.
type OpenActorMsg struct {
	Username string
}

// MarkReadMsg is sent when the user marks the selected notification read.
type MarkReadMsg struct {
	ID string
}

// DeleteMsg is sent when the user deletes the selected notification.
type DeleteMsg struct {
	ID string
}

// MarkAllReadMsg is sent when the user marks every notification read.
type MarkAllReadMsg struct{}

// LoadMoreMsg is sent when the user requests the next page.
type LoadMoreMsg struct{}

// Model is the notifications screen. It renders whatever the
// reconciliation engine currently holds; it never mutates state itself.
type Model struct {
	list    list.Model
	keys    *keys.KeyMap
	width   int
	height  int
	loading bool
}

// New creates a new notification list model.
func New(k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, Delegate{}, width, height-2)
	l.Title = "Notifications"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	return Model{
		list:   l,
		keys:   k,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// SetItems replaces the rendered rows with the engine's current collection,
// preserving the cursor position where possible.
func (m *Model) SetItems(items []model.Notification) tea.Cmd {
	selected := m.list.Index()

	rows := make([]list.Item, len(items))
	for i, n := range items {
		rows[i] = Item{Notification: n}
	}
	cmd := m.list.SetItems(rows)

	if selected < len(rows) {
		m.list.Select(selected)
	} else if len(rows) > 0 {
		m.list.Select(len(rows) - 1)
	}
	return cmd
}

// SetLoading toggles the load-more indicator.
func (m *Model) SetLoading(loading bool) {
	m.loading = loading
}

// SelectedID returns the id of the currently focused notification.
func (m Model) SelectedID() (string, bool) {
	item, ok := m.list.SelectedItem().(Item)
	if !ok {
		return "", false
	}
	return item.Notification.ID, true
}

// Update handles messages for the notification list.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Select):
			item, ok := m.list.SelectedItem().(Item)
			if !ok {
				return m, nil
			}
			username := item.Notification.Actor.Username
			return m, func() tea.Msg {
				return OpenActorMsg{Username: username}
			}

		case key.Matches(msg, m.keys.MarkRead):
			item, ok := m.list.SelectedItem().(Item)
			if !ok || item.Notification.Read {
				return m, nil
			}
			id := item.Notification.ID
			return m, func() tea.Msg {
				return MarkReadMsg{ID: id}
			}

		case key.Matches(msg, m.keys.Delete):
			item, ok := m.list.SelectedItem().(Item)
			if !ok {
				return m, nil
			}
			id := item.Notification.ID
			return m, func() tea.Msg {
				return DeleteMsg{ID: id}
			}

		case key.Matches(msg, m.keys.MarkAllRead):
			return m, func() tea.Msg {
				return MarkAllReadMsg{}
			}

		case key.Matches(msg, m.keys.LoadMore):
			if m.loading {
				return m, nil
			}
			return m, func() tea.Msg {
				return LoadMoreMsg{}
			}
		}
	}

	// Delegate to the list for navigation keys (up/down/pgup/pgdn).
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the notification list.
func (m Model) View() string {
	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}

	view := m.list.View()
	if m.loading {
		loading := theme.HelpStyle.Render("loading more...")
		view = lipgloss.JoinVertical(lipgloss.Left, view, loading)
	}
	return view
}

// renderEmptyState shows guidance text when no notifications are held.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	return style.Render("No notifications yet.\n\nPress r to refresh.")
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}
