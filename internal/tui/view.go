package tui

import (
	"fmt"
	"strings"

	"stocksearch/internal/controller"
	"stocksearch/internal/models"
)

const (
	formHelp   = "enter: submit · tab: switch field · ctrl+n: %s · esc: quit"
	searchHelp = "enter: get quote · ↑/↓: choose suggestion · esc: dismiss · ctrl+l: log out · ctrl+c: quit"
)

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	switch m.view {
	case models.ViewSearch:
		m.viewSearch(&b)
	case models.ViewSignup:
		m.viewForm(&b, "Create account", "back to log in")
	default:
		m.viewForm(&b, "Log in", "create account")
	}
	if m.alert != "" {
		b.WriteString("\n" + m.styles.Alert.Render("! "+m.alert) + "\n")
	}
	return b.String()
}

func (m Model) viewForm(b *strings.Builder, title, other string) {
	b.WriteString(m.styles.Title.Render("Stock Search · "+title) + "\n\n")
	b.WriteString(m.styles.Label.Render("Username: ") + m.username.View() + "\n")
	b.WriteString(m.styles.Label.Render("Password: ") + m.password.View() + "\n\n")
	if m.busy {
		b.WriteString(m.styles.Muted.Render(controller.MsgLoading) + "\n\n")
	}
	b.WriteString(m.styles.Help.Render(fmt.Sprintf(formHelp, other)) + "\n")
}

// viewSearch keeps the title, a blank line and the input on the first three
// rows; click hit-testing depends on it.
func (m Model) viewSearch(b *strings.Builder) {
	b.WriteString(m.styles.Title.Render("Stock Search") + "\n\n")
	b.WriteString(m.styles.Label.Render("Symbol: ") + m.query.View() + "\n")

	for i, s := range m.page.Suggestions {
		line := fmt.Sprintf("%-6s %s", s.Symbol, s.Description)
		if i == m.cursor {
			b.WriteString(m.styles.Selected.Render("> "+line) + "\n")
			continue
		}
		b.WriteString(m.styles.Suggestion.Render("  "+line) + "\n")
	}
	b.WriteString("\n")

	style := m.styles.Quote
	switch m.page.Result.Kind {
	case controller.PanelError:
		style = m.styles.Error
	case controller.PanelLoading:
		style = m.styles.Muted
	}
	for _, line := range m.page.Result.Lines() {
		b.WriteString(style.Render(line) + "\n")
	}

	if len(m.page.History) > 0 {
		b.WriteString("\n" + m.styles.Label.Render("History") + "\n")
		for _, entry := range m.page.History {
			b.WriteString("  " + entry.String() + "\n")
		}
	}
	b.WriteString("\n" + m.styles.Help.Render(searchHelp) + "\n")
}
