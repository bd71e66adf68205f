package theme

import "github.com/charmbracelet/lipgloss"

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorOrange  = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for top-level section headers and the application title.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// UnreadBadgeStyle renders the unread count badge in the header.
var UnreadBadgeStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorRed).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// PanelStyle wraps full-screen panel content (profile, help, forms).
var PanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// ListItemStyle is the base style for items in a list.
var ListItemStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// SelectedItemStyle highlights the currently focused list item.
var SelectedItemStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Bold(true).
	Foreground(ColorBlue).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(ColorBlue)

// DimmedStyle renders read notifications at reduced prominence.
var DimmedStyle = lipgloss.NewStyle().
	Foreground(ColorGray)

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// FollowingStyle renders the "following" state on a profile.
var FollowingStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorGreen)

// NotFollowingStyle renders the "not following" state on a profile.
var NotFollowingStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorGray)

// KindStyle returns a color-coded style for the given notification kind.
func KindStyle(kind string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	switch kind {
	case "like":
		return base.Foreground(ColorRed)
	case "comment", "mention":
		return base.Foreground(ColorBlue)
	case "follow":
		return base.Foreground(ColorGreen)
	case "challenge":
		return base.Foreground(ColorOrange)
	case "message":
		return base.Foreground(ColorYellow)
	case "collaboration":
		return base.Foreground(ColorMagenta)
	case "edit":
		return base.Foreground(ColorGray)
	default:
		return base.Foreground(ColorGray)
	}
}

// KindGlyph returns a short badge label for the given notification kind.
func KindGlyph(kind string) string {
	switch kind {
	case "like":
		return "♥"
	case "comment":
		return "💬"
	case "mention":
		return "@"
	case "follow":
		return "+"
	case "challenge":
		return "⚔"
	case "message":
		return "✉"
	case "collaboration":
		return "⇄"
	case "edit":
		return "✎"
	default:
		return "•"
	}
}
