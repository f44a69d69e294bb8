package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"stocksearch/internal/controller"
	"stocksearch/internal/models"
)

// Screen rows of the search view, used to hit-test mouse clicks.
const (
	inputRow      = 2
	suggestionTop = 3
)

const (
	fieldUsername = iota
	fieldPassword
)

type authDoneMsg struct{ effect controller.Effect }

// quoteDoneMsg carries the generation of the page that asked for the quote.
type quoteDoneMsg struct {
	gen uint64
	out controller.QuoteOutcome
}

type suggestDoneMsg struct{ out controller.SuggestOutcome }

// Model is the root bubbletea model. It owns the form inputs and the search
// page; all state changes of the page go through controller.SearchPage.
type Model struct {
	ctx    context.Context
	ctl    *controller.Controller
	styles Styles

	view  models.View
	alert string
	busy  bool

	username textinput.Model
	password textinput.Model
	focus    int

	query  textinput.Model
	page   controller.SearchPage
	cursor int
	// gen advances whenever the page is reset; quote results from an
	// earlier page are dropped.
	gen uint64
}

// New returns a Model showing start.
func New(ctx context.Context, ctl *controller.Controller, styles Styles, start models.View) Model {
	m := Model{
		ctx:      ctx,
		ctl:      ctl,
		styles:   styles,
		username: newInput("username", false),
		password: newInput("password", true),
		query:    newInput("e.g. AAPL", false),
		cursor:   -1,
	}
	return m.navigate(start)
}

func newInput(placeholder string, secret bool) textinput.Model {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = placeholder
	ti.Cursor.SetMode(cursor.CursorStatic)
	if secret {
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '•'
	}
	return ti
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		// A pending alert swallows the key that dismisses it.
		if m.alert != "" {
			m.alert = ""
			return m, nil
		}
		if m.view == models.ViewSearch {
			return m.updateSearch(msg)
		}
		return m.updateForm(msg)

	case tea.MouseMsg:
		if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		m.alert = ""
		if m.view == models.ViewSearch {
			return m.click(msg.Y)
		}

	case authDoneMsg:
		m.busy = false
		return m.apply(msg.effect), nil

	case quoteDoneMsg:
		if m.view != models.ViewSearch || msg.gen != m.gen {
			return m, nil
		}
		page, effect := m.page.ApplyQuote(msg.out)
		m.page = page
		return m.apply(effect), nil

	case suggestDoneMsg:
		if page, ok := m.page.ApplySuggestions(msg.out); ok {
			m.page = page
			m.cursor = -1
		}
	}
	return m, nil
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyTab, tea.KeyShiftTab, tea.KeyUp, tea.KeyDown:
		return m.toggleField(), nil
	case tea.KeyCtrlN:
		if m.view == models.ViewLogin {
			return m.navigate(models.ViewSignup), nil
		}
		return m.navigate(models.ViewLogin), nil
	case tea.KeyEnter:
		if m.busy {
			return m, nil
		}
		m.busy = true
		creds := models.Credentials{Username: m.username.Value(), Password: m.password.Value()}
		if m.view == models.ViewSignup {
			return m, m.register(creds)
		}
		return m, m.authenticate(creds)
	}

	var cmd tea.Cmd
	if m.focus == fieldUsername {
		m.username, cmd = m.username.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := len(m.page.Suggestions)

	switch msg.Type {
	case tea.KeyCtrlL:
		if m.busy {
			return m, nil
		}
		m.busy = true
		return m, m.logout()
	case tea.KeyEsc, tea.KeyTab:
		m.page = m.page.DismissSuggestions()
		m.cursor = -1
		return m, nil
	case tea.KeyUp:
		if n > 0 {
			if m.cursor <= 0 {
				m.cursor = n - 1
			} else {
				m.cursor--
			}
		}
		return m, nil
	case tea.KeyDown:
		if n > 0 {
			m.cursor = (m.cursor + 1) % n
		}
		return m, nil
	case tea.KeyEnter:
		if m.cursor >= 0 && m.cursor < n {
			return m.selectSuggestion(m.page.Suggestions[m.cursor].Symbol)
		}
		return m.submitQuote()
	}

	before := m.query.Value()
	var cmd tea.Cmd
	m.query, cmd = m.query.Update(msg)
	if m.query.Value() == before {
		return m, cmd
	}

	page, req, ok := m.page.InputChanged(m.query.Value())
	m.page = page
	m.cursor = -1
	if !ok {
		return m, cmd
	}
	return m, tea.Batch(cmd, m.loadSuggestions(req))
}

// click handles a left click on the search view. Anything outside the
// input and the suggestion list dismisses the list.
func (m Model) click(row int) (tea.Model, tea.Cmd) {
	i := row - suggestionTop
	switch {
	case row == inputRow:
		return m, nil
	case i >= 0 && i < len(m.page.Suggestions):
		return m.selectSuggestion(m.page.Suggestions[i].Symbol)
	}
	m.page = m.page.DismissSuggestions()
	m.cursor = -1
	return m, nil
}

func (m Model) submitQuote() (tea.Model, tea.Cmd) {
	m.page.Query = m.query.Value()
	page, symbol, ok := m.page.BeginQuote()
	m.page = page
	m.cursor = -1
	if !ok {
		return m, nil
	}
	return m, m.loadQuote(symbol)
}

func (m Model) selectSuggestion(symbol string) (tea.Model, tea.Cmd) {
	page, symbol, ok := m.page.SelectSuggestion(symbol)
	m.page = page
	m.cursor = -1
	m.query.SetValue(page.Query)
	m.query.CursorEnd()
	if !ok {
		return m, nil
	}
	return m, m.loadQuote(symbol)
}

func (m Model) toggleField() Model {
	if m.focus == fieldUsername {
		m.focus = fieldPassword
		m.username.Blur()
		m.password.Focus()
	} else {
		m.focus = fieldUsername
		m.password.Blur()
		m.username.Focus()
	}
	return m
}

// apply carries out an effect. The alert survives navigation.
func (m Model) apply(effect controller.Effect) Model {
	if effect.None() {
		return m
	}
	if effect.Alert != "" {
		m.alert = effect.Alert
	}
	if effect.Navigate != "" {
		m = m.navigate(effect.Navigate)
	}
	return m
}

func (m Model) navigate(view models.View) Model {
	m.view = view
	m.busy = false
	switch view {
	case models.ViewSearch:
		m.username.Blur()
		m.password.Blur()
		m.query.Focus()
	default:
		if view == models.ViewLogin {
			// Leaving the search view ends the page's lifetime.
			m.page = controller.SearchPage{}
			m.gen++
			m.query.Reset()
			m.cursor = -1
		}
		m.password.Reset()
		m.focus = fieldUsername
		m.query.Blur()
		m.password.Blur()
		m.username.Focus()
	}
	return m
}

func (m Model) authenticate(creds models.Credentials) tea.Cmd {
	ctx, ctl := m.ctx, m.ctl
	return func() tea.Msg {
		return authDoneMsg{effect: ctl.Authenticate(ctx, creds)}
	}
}

func (m Model) register(creds models.Credentials) tea.Cmd {
	ctx, ctl := m.ctx, m.ctl
	return func() tea.Msg {
		return authDoneMsg{effect: ctl.Register(ctx, creds)}
	}
}

func (m Model) logout() tea.Cmd {
	ctx, ctl := m.ctx, m.ctl
	return func() tea.Msg {
		return authDoneMsg{effect: ctl.Logout(ctx)}
	}
}

func (m Model) loadQuote(symbol string) tea.Cmd {
	ctx, ctl, gen := m.ctx, m.ctl, m.gen
	return func() tea.Msg {
		return quoteDoneMsg{gen: gen, out: ctl.LoadQuote(ctx, symbol)}
	}
}

func (m Model) loadSuggestions(req controller.SuggestRequest) tea.Cmd {
	ctx, ctl := m.ctx, m.ctl
	return func() tea.Msg {
		return suggestDoneMsg{out: ctl.LoadSuggestions(ctx, req)}
	}
}

// Run starts the interactive client on start and blocks until the user quits.
func Run(ctx context.Context, ctl *controller.Controller, styles Styles, start models.View) error {
	p := tea.NewProgram(
		New(ctx, ctl, styles, start),
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	_, err := p.Run()
	return err
}
