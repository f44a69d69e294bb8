// Package controller turns user intents on the login, signup and search
// views into API calls and describes the resulting UI update.
//
// The search view is modelled by SearchPage, a value type whose methods are
// pure: each returns a new page plus, where relevant, the request to issue
// or an Effect (navigation, alert) for the rendering surface to carry out.
// Network calls live on Controller; rendering lives in the tui and cli
// packages.
package controller

import (
	"net/http"

	apperrors "stocksearch/internal/errors"
	"stocksearch/internal/models"
	"stocksearch/internal/security"
)

// User-facing messages.
const (
	MsgLoading           = "Loading..."
	MsgLoginFailed       = "Login failed."
	MsgLoginUnreachable  = "Could not connect to the server. Make sure the backend is running."
	MsgSignupFailed      = "Signup failed."
	MsgSignupUnreachable = "Could not connect to the server. Please try again later."
	MsgSessionExpired    = "Your session has expired. Please log in again."
	MsgQuoteFailed       = "An error occurred."
	MsgQuoteUnreachable  = "Could not connect to the server."
	MsgLogoutFailed      = "Logout failed. Please try again."
	MsgLogoutUnreachable = "Could not connect to the server to log out."
)

// Effect is what the rendering surface must do besides redrawing the page.
// The zero value means nothing.
type Effect struct {
	Navigate models.View
	Alert    string
}

// None reports whether the effect asks for nothing.
func (e Effect) None() bool {
	return e.Navigate == "" && e.Alert == ""
}

// PanelKind is the state of the result panel.
type PanelKind int

const (
	PanelEmpty PanelKind = iota
	PanelLoading
	PanelQuote
	PanelError
)

// Panel is the content of the result panel.
type Panel struct {
	Kind  PanelKind
	Quote *models.Quote
	Text  string
}

// Lines returns the panel as display lines.
func (p Panel) Lines() []string {
	switch p.Kind {
	case PanelLoading, PanelError:
		return []string{p.Text}
	case PanelQuote:
		return []string{p.Quote.Symbol, "Opening Price: " + models.FormatPrice(p.Quote.OpenPrice)}
	}
	return nil
}

func errorPanel(text string) Panel {
	return Panel{Kind: PanelError, Text: text}
}

// SuggestRequest is a suggestion query stamped with its sequence number.
type SuggestRequest struct {
	Seq    uint64
	Prefix string
}

// QuoteOutcome is the result of one quote request.
type QuoteOutcome struct {
	Symbol string
	Quote  *models.Quote
	Err    error
}

// SuggestOutcome is the result of one suggestion request.
type SuggestOutcome struct {
	Seq         uint64
	Suggestions []models.Suggestion
	Err         error
}

// SearchPage is the state of the search view.
type SearchPage struct {
	Query       string
	Result      Panel
	Suggestions []models.Suggestion
	// History is most-recent-first.
	History []models.HistoryEntry

	// seq is the sequence number of the latest suggestion request issued,
	// or of the latest clear. Only a response carrying it is applied.
	seq uint64
}

// BeginQuote validates the query field. On success it clears suggestions,
// shows the loading panel and returns the trimmed symbol to request. On
// failure it shows the validation message inline and no request is made.
func (p SearchPage) BeginQuote() (SearchPage, string, bool) {
	symbol, err := security.ValidateSymbol(p.Query)
	if err != nil {
		var ve *apperrors.ValidationError
		msg := security.MsgSymbolRequired
		if apperrors.As(err, &ve) {
			msg = ve.Message
		}
		p.Result = errorPanel(msg)
		return p, "", false
	}

	p = p.DismissSuggestions()
	p.Result = Panel{Kind: PanelLoading, Text: MsgLoading}
	return p, symbol, true
}

// ApplyQuote folds a quote outcome into the page. A 401 becomes a
// session-expiry effect whatever the body said.
func (p SearchPage) ApplyQuote(out QuoteOutcome) (SearchPage, Effect) {
	switch {
	case out.Err == nil && out.Quote != nil:
		q := *out.Quote
		p.Result = Panel{Kind: PanelQuote, Quote: &q}
		p.History = append([]models.HistoryEntry{{Symbol: q.Symbol, OpenPrice: q.OpenPrice}}, p.History...)
		return p, Effect{}

	case isSessionExpiry(out.Err):
		p.Result = Panel{}
		return p, Effect{Alert: MsgSessionExpired, Navigate: models.ViewLogin}

	case apperrors.Is(out.Err, apperrors.ErrConnectionFailed):
		p.Result = errorPanel(MsgQuoteUnreachable)
		return p, Effect{}
	}

	msg := apperrors.MessageOf(out.Err)
	if msg == "" {
		msg = MsgQuoteFailed
	}
	p.Result = errorPanel(msg)
	return p, Effect{}
}

// InputChanged records new query text. A blank prefix clears suggestions
// without a request; anything else returns a request stamped with a fresh
// sequence number.
func (p SearchPage) InputChanged(input string) (SearchPage, SuggestRequest, bool) {
	p.Query = input
	prefix := models.NormalizeSymbol(input)
	if prefix == "" {
		return p.DismissSuggestions(), SuggestRequest{}, false
	}
	p.seq++
	return p, SuggestRequest{Seq: p.seq, Prefix: prefix}, true
}

// ApplySuggestions replaces the suggestion list with the outcome's, unless
// the outcome is stale or failed. It reports whether the list was replaced.
func (p SearchPage) ApplySuggestions(out SuggestOutcome) (SearchPage, bool) {
	if out.Seq != p.seq || out.Err != nil {
		return p, false
	}
	if len(out.Suggestions) == 0 {
		p.Suggestions = nil
	} else {
		p.Suggestions = append([]models.Suggestion(nil), out.Suggestions...)
	}
	return p, true
}

// SelectSuggestion copies symbol into the query field, clears suggestions
// and starts the same flow as a manual submit.
func (p SearchPage) SelectSuggestion(symbol string) (SearchPage, string, bool) {
	p.Query = symbol
	p = p.DismissSuggestions()
	return p.BeginQuote()
}

// DismissSuggestions clears the list and invalidates in-flight suggestion
// requests so a late response cannot bring it back.
func (p SearchPage) DismissSuggestions() SearchPage {
	p.Suggestions = nil
	p.seq++
	return p
}

// LoginEffect maps the outcome of a login request onto an Effect.
func LoginEffect(err error) Effect {
	if err == nil {
		return Effect{Navigate: models.ViewSearch}
	}
	if apperrors.Is(err, apperrors.ErrConnectionFailed) {
		return Effect{Alert: MsgLoginUnreachable}
	}
	msg := apperrors.MessageOf(err)
	if msg == "" {
		msg = MsgLoginFailed
	}
	return Effect{Alert: msg}
}

// SignupEffect maps the outcome of a signup request onto an Effect. The
// server message is shown whether or not signup succeeded.
func SignupEffect(msg string, err error) Effect {
	if err == nil {
		return Effect{Navigate: models.ViewLogin, Alert: msg}
	}
	if apperrors.Is(err, apperrors.ErrConnectionFailed) {
		return Effect{Alert: MsgSignupUnreachable}
	}
	if msg == "" {
		msg = apperrors.MessageOf(err)
	}
	if msg == "" {
		msg = MsgSignupFailed
	}
	return Effect{Alert: msg}
}

// LogoutEffect maps the outcome of a logout request onto an Effect.
func LogoutEffect(err error) Effect {
	if err == nil {
		return Effect{Navigate: models.ViewLogin}
	}
	if apperrors.Is(err, apperrors.ErrConnectionFailed) {
		return Effect{Alert: MsgLogoutUnreachable}
	}
	return Effect{Alert: MsgLogoutFailed}
}

func isSessionExpiry(err error) bool {
	return apperrors.Is(err, apperrors.ErrSessionExpired) || apperrors.StatusOf(err) == http.StatusUnauthorized
}
