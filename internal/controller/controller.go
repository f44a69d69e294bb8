package controller

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	apperrors "stocksearch/internal/errors"
	"stocksearch/internal/logging"
	"stocksearch/internal/models"
	"stocksearch/internal/security"
)

// DefaultMaxSuggestions matches the cap the backend applies itself.
const DefaultMaxSuggestions = 5

const quoteParallelism = 4

// API is the subset of the backend client the controller drives.
//
//go:generate mockgen -package=controller -destination=mock_api_test.go -source=controller.go API
type API interface {
	Login(ctx context.Context, creds models.Credentials) error
	Signup(ctx context.Context, creds models.Credentials) (string, error)
	Logout(ctx context.Context) error
	Quote(ctx context.Context, symbol string) (*models.Quote, error)
	SymbolSearch(ctx context.Context, prefix string) ([]models.Suggestion, error)
}

// Auditor records session events. *security.AuditLogger implements it.
type Auditor interface {
	Log(ctx context.Context, event security.AuditEvent) error
}

type nopAuditor struct{}

func (nopAuditor) Log(context.Context, security.AuditEvent) error { return nil }

// Controller performs the network side of each user intent and maps the
// outcome onto page transitions and effects.
type Controller struct {
	api            API
	audit          Auditor
	logger         zerolog.Logger
	maxSuggestions int
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithAuditor records logins, signups, logouts and session expiries.
func WithAuditor(a Auditor) Option {
	return func(c *Controller) {
		if a != nil {
			c.audit = a
		}
	}
}

// WithMaxSuggestions caps the number of suggestions kept from a response.
// Values below one are ignored.
func WithMaxSuggestions(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.maxSuggestions = n
		}
	}
}

// New returns a Controller driving api.
func New(api API, options ...Option) *Controller {
	c := &Controller{
		api:            api,
		audit:          nopAuditor{},
		logger:         zerolog.Nop(),
		maxSuggestions: DefaultMaxSuggestions,
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// Authenticate submits the login form.
func (c *Controller) Authenticate(ctx context.Context, creds models.Credentials) Effect {
	logger := logging.WithOperation(c.logger, "login")
	err := c.api.Login(ctx, creds)
	if err != nil {
		logger.Warn().Err(err).Str("username", creds.Username).Msg("Login failed")
	} else {
		logger.Info().Str("username", creds.Username).Msg("Logged in")
	}
	c.record(ctx, security.AuditEvent{EventType: security.AuditLogin, Username: creds.Username}, err)
	return LoginEffect(err)
}

// Register submits the signup form. Incomplete credentials are rejected
// without a request.
func (c *Controller) Register(ctx context.Context, creds models.Credentials) Effect {
	if err := security.ValidateCredentials(creds); err != nil {
		return Effect{Alert: security.MsgCredentialsRequired}
	}

	logger := logging.WithOperation(c.logger, "signup")
	msg, err := c.api.Signup(ctx, creds)
	if err != nil {
		logger.Warn().Err(err).Str("username", creds.Username).Msg("Signup failed")
	} else {
		logger.Info().Str("username", creds.Username).Msg("Account created")
	}
	c.record(ctx, security.AuditEvent{EventType: security.AuditSignup, Username: creds.Username}, err)
	return SignupEffect(msg, err)
}

// Logout ends the session.
func (c *Controller) Logout(ctx context.Context) Effect {
	err := c.api.Logout(ctx)
	if err != nil {
		logger := logging.WithOperation(c.logger, "logout")
		logger.Warn().Err(err).Msg("Logout failed")
	}
	c.record(ctx, security.AuditEvent{EventType: security.AuditLogout}, err)
	return LogoutEffect(err)
}

// LoadQuote requests the quote for an already validated symbol.
func (c *Controller) LoadQuote(ctx context.Context, symbol string) QuoteOutcome {
	quote, err := c.api.Quote(ctx, symbol)
	if err != nil {
		logger := logging.WithSymbol(c.logger, symbol)
		logger.Debug().Err(err).
			Bool("timeout", apperrors.Is(err, apperrors.ErrTimeout)).
			Msg("Quote request failed")
		if isSessionExpiry(err) {
			c.record(ctx, security.AuditEvent{EventType: security.AuditSessionExpired, Symbol: symbol}, err)
		}
	}
	return QuoteOutcome{Symbol: symbol, Quote: quote, Err: err}
}

// LoadSuggestions runs a suggestion request. Failures are logged and
// otherwise left for ApplySuggestions to ignore.
func (c *Controller) LoadSuggestions(ctx context.Context, req SuggestRequest) SuggestOutcome {
	suggestions, err := c.api.SymbolSearch(ctx, req.Prefix)
	if err != nil {
		c.logger.Debug().Err(err).Str("prefix", req.Prefix).Uint64("seq", req.Seq).Msg("Suggestion request failed")
		return SuggestOutcome{Seq: req.Seq, Err: err}
	}
	if len(suggestions) > c.maxSuggestions {
		suggestions = suggestions[:c.maxSuggestions]
	}
	return SuggestOutcome{Seq: req.Seq, Suggestions: suggestions}
}

// FetchQuote submits the page's query and waits for the result.
func (c *Controller) FetchQuote(ctx context.Context, page SearchPage) (SearchPage, Effect) {
	page, symbol, ok := page.BeginQuote()
	if !ok {
		return page, Effect{}
	}
	return page.ApplyQuote(c.LoadQuote(ctx, symbol))
}

// FetchSuggestions records input and, when it is not blank, waits for the
// matching suggestions. A failed request leaves the list as it was; the
// error is returned for callers that report it.
func (c *Controller) FetchSuggestions(ctx context.Context, page SearchPage, input string) (SearchPage, error) {
	page, req, ok := page.InputChanged(input)
	if !ok {
		return page, nil
	}
	out := c.LoadSuggestions(ctx, req)
	page, _ = page.ApplySuggestions(out)
	return page, out.Err
}

// SelectSuggestion picks symbol from the list and fetches its quote.
func (c *Controller) SelectSuggestion(ctx context.Context, page SearchPage, symbol string) (SearchPage, Effect) {
	page, symbol, ok := page.SelectSuggestion(symbol)
	if !ok {
		return page, Effect{}
	}
	return page.ApplyQuote(c.LoadQuote(ctx, symbol))
}

// QuoteStep is the page state after one symbol of a batch was applied.
type QuoteStep struct {
	Input  string
	Result Panel
	Effect Effect
}

// FetchQuotes fetches several symbols concurrently and applies the outcomes
// in argument order, as if each had been submitted in turn. Application
// stops at the first effect that navigates away from the search view.
func (c *Controller) FetchQuotes(ctx context.Context, page SearchPage, inputs []string) (SearchPage, []QuoteStep) {
	if len(inputs) == 1 {
		page.Query = inputs[0]
		page, effect := c.FetchQuote(ctx, page)
		return page, []QuoteStep{{Input: inputs[0], Result: page.Result, Effect: effect}}
	}

	outcomes := make([]QuoteOutcome, len(inputs))

	var g errgroup.Group
	g.SetLimit(quoteParallelism)
	for i, input := range inputs {
		symbol, err := security.ValidateSymbol(input)
		if err != nil {
			continue
		}
		i := i
		g.Go(func() error {
			outcomes[i] = c.LoadQuote(ctx, symbol)
			return nil
		})
	}
	_ = g.Wait()

	steps := make([]QuoteStep, 0, len(inputs))
	for i, input := range inputs {
		page.Query = input
		var (
			effect Effect
			ok     bool
		)
		if page, _, ok = page.BeginQuote(); ok {
			page, effect = page.ApplyQuote(outcomes[i])
		}
		steps = append(steps, QuoteStep{Input: input, Result: page.Result, Effect: effect})
		if effect.Navigate != "" {
			break
		}
	}
	return page, steps
}

// record writes an audit event. The outcome of the action is taken from err.
func (c *Controller) record(ctx context.Context, event security.AuditEvent, err error) {
	event.Success = err == nil
	if err != nil {
		event.ErrorMsg = err.Error()
	}
	if aerr := c.audit.Log(ctx, event); aerr != nil {
		c.logger.Warn().Err(aerr).Str("event", string(event.EventType)).Msg("Audit write failed")
	}
}

// IsSessionExpired reports whether err means the user must log in again.
func IsSessionExpired(err error) bool {
	return isSessionExpiry(err)
}
