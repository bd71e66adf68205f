package profileform

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/pulse/internal/model"
	"github.com/nhle/pulse/internal/theme"
)

// SubmitMsg is dispatched when the user submits the profile edit form.
type SubmitMsg struct {
	Update model.ProfileUpdate
}

// CancelMsg is dispatched when the user cancels the form.
type CancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	displayName string
	bio         string
}

// Model is the Bubble Tea model for the profile edit form.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	width  int
	height int
}

// New creates a new profile form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// Start initializes the form with the current profile values.
func (m *Model) Start(p *model.Profile) tea.Cmd {
	m.fb.displayName = ""
	m.fb.bio = ""
	if p != nil {
		m.fb.displayName = p.DisplayName
		m.fb.bio = p.Bio
	}
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the profile form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		update := model.ProfileUpdate{
			DisplayName: m.fb.displayName,
			Bio:         m.fb.bio,
		}
		return m, func() tea.Msg { return SubmitMsg{Update: update} }
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the profile form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render("Edit Profile") + "\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Display Name").
				Placeholder("How your name appears to others").
				Value(&m.fb.displayName).
				Validate(validateRequired("Display name")),
			huh.NewText().
				Title("Bio").
				Placeholder("A few words about yourself...").
				Value(&m.fb.bio),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 4
	if h < 10 {
		h = 10
	}
	return h
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}
