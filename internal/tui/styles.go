// Package tui is the interactive terminal client: login, signup and search
// views driven by the controller package.
package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary = lipgloss.Color("#2196F3")
	colorAccent  = lipgloss.Color("#8BC34A")
	colorError   = lipgloss.Color("#e53935")
	colorWarning = lipgloss.Color("#FFC107")
	colorMuted   = lipgloss.Color("#6b7280")
)

// Styles holds the styled components of every view.
type Styles struct {
	Title      lipgloss.Style
	Label      lipgloss.Style
	Suggestion lipgloss.Style
	Selected   lipgloss.Style
	Quote      lipgloss.Style
	Error      lipgloss.Style
	Muted      lipgloss.Style
	Alert      lipgloss.Style
	Help       lipgloss.Style
}

// NewStyles returns the client styles. With color disabled every style
// renders its input unchanged.
func NewStyles(color bool) Styles {
	if !color {
		plain := lipgloss.NewStyle()
		return Styles{
			Title: plain, Label: plain, Suggestion: plain, Selected: plain,
			Quote: plain, Error: plain, Muted: plain, Alert: plain, Help: plain,
		}
	}

	return Styles{
		Title: lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true),
		Label: lipgloss.NewStyle().
			Bold(true),
		Suggestion: lipgloss.NewStyle().
			Foreground(colorMuted),
		Selected: lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true),
		Quote: lipgloss.NewStyle().
			Foreground(colorAccent),
		Error: lipgloss.NewStyle().
			Foreground(colorError),
		Muted: lipgloss.NewStyle().
			Foreground(colorMuted),
		Alert: lipgloss.NewStyle().
			Foreground(colorWarning).
			Bold(true),
		Help: lipgloss.NewStyle().
			Foreground(colorMuted).
			Italic(true),
	}
}
