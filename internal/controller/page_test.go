package controller

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	apperrors "stocksearch/internal/errors"
	"stocksearch/internal/models"
	"stocksearch/internal/security"
)

var ignoreSeq = cmpopts.IgnoreUnexported(SearchPage{})

func TestBeginQuote_BlankQueryMakesNoRequest(t *testing.T) {
	page := SearchPage{
		Query:       "   ",
		Suggestions: []models.Suggestion{{Symbol: "AAPL"}},
	}

	got, symbol, ok := page.BeginQuote()
	if ok || symbol != "" {
		t.Fatalf("BeginQuote() = %q, %v; want no request", symbol, ok)
	}
	want := SearchPage{
		Query:       "   ",
		Result:      Panel{Kind: PanelError, Text: security.MsgSymbolRequired},
		Suggestions: []models.Suggestion{{Symbol: "AAPL"}},
	}
	if diff := cmp.Diff(want, got, ignoreSeq); diff != "" {
		t.Errorf("page mismatch (-want +got):\n%s", diff)
	}
}

func TestBeginQuote_ShowsLoadingAndClearsSuggestions(t *testing.T) {
	page := SearchPage{
		Query:       "  aapl ",
		Suggestions: []models.Suggestion{{Symbol: "AAPL"}},
	}

	got, symbol, ok := page.BeginQuote()
	if !ok || symbol != "aapl" {
		t.Fatalf("BeginQuote() = %q, %v; want aapl, true", symbol, ok)
	}
	if got.Suggestions != nil {
		t.Errorf("suggestions not cleared: %v", got.Suggestions)
	}
	if diff := cmp.Diff([]string{MsgLoading}, got.Result.Lines()); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyQuote(t *testing.T) {
	older := models.HistoryEntry{Symbol: "MSFT", OpenPrice: 410}
	base := SearchPage{Query: "AAPL", Result: Panel{Kind: PanelLoading, Text: MsgLoading}, History: []models.HistoryEntry{older}}

	tests := []struct {
		name        string
		out         QuoteOutcome
		wantLines   []string
		wantEffect  Effect
		wantHistory []models.HistoryEntry
	}{
		{
			name:        "success prepends history",
			out:         QuoteOutcome{Symbol: "AAPL", Quote: &models.Quote{Symbol: "AAPL", OpenPrice: 123.456}},
			wantLines:   []string{"AAPL", "Opening Price: $123.46"},
			wantHistory: []models.HistoryEntry{{Symbol: "AAPL", OpenPrice: 123.456}, older},
		},
		{
			name:        "401 expires session regardless of body",
			out:         QuoteOutcome{Symbol: "AAPL", Err: apperrors.NewAPIError(http.StatusUnauthorized, "/api/quote/", "Authentication credentials were not provided.")},
			wantEffect:  Effect{Alert: MsgSessionExpired, Navigate: models.ViewLogin},
			wantHistory: []models.HistoryEntry{older},
		},
		{
			name: "wrapped session expiry",
			out: QuoteOutcome{Symbol: "AAPL", Err: fmt.Errorf("%w: %w", apperrors.ErrSessionExpired,
				apperrors.NewAPIError(http.StatusUnauthorized, "/api/quote/", ""))},
			wantEffect:  Effect{Alert: MsgSessionExpired, Navigate: models.ViewLogin},
			wantHistory: []models.HistoryEntry{older},
		},
		{
			name:        "server message shown verbatim",
			out:         QuoteOutcome{Symbol: "ZZZZ", Err: apperrors.NewAPIError(http.StatusBadRequest, "/api/quote/", "bad symbol")},
			wantLines:   []string{"bad symbol"},
			wantHistory: []models.HistoryEntry{older},
		},
		{
			name:        "failure without message",
			out:         QuoteOutcome{Symbol: "AAPL", Err: apperrors.NewAPIError(http.StatusInternalServerError, "/api/quote/", "")},
			wantLines:   []string{MsgQuoteFailed},
			wantHistory: []models.HistoryEntry{older},
		},
		{
			name:        "undecodable body",
			out:         QuoteOutcome{Symbol: "AAPL", Err: apperrors.Wrapf(apperrors.ErrUnexpectedResponse, "decode quote: %v", "EOF")},
			wantLines:   []string{MsgQuoteFailed},
			wantHistory: []models.HistoryEntry{older},
		},
		{
			name:        "connection failure",
			out:         QuoteOutcome{Symbol: "AAPL", Err: apperrors.NewTransportError(http.MethodGet, "/api/quote/", errors.New("connection refused"))},
			wantLines:   []string{MsgQuoteUnreachable},
			wantHistory: []models.HistoryEntry{older},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, effect := base.ApplyQuote(tt.out)
			if diff := cmp.Diff(tt.wantEffect, effect); diff != "" {
				t.Errorf("effect mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantLines, got.Result.Lines()); diff != "" {
				t.Errorf("result mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantHistory, got.History); diff != "" {
				t.Errorf("history mismatch (-want +got):\n%s", diff)
			}
		})
	}

	if len(base.History) != 1 {
		t.Errorf("ApplyQuote mutated the input page history: %v", base.History)
	}
}

func TestHistoryEntryRendering(t *testing.T) {
	page, _ := SearchPage{}.ApplyQuote(QuoteOutcome{Quote: &models.Quote{Symbol: "AAPL", OpenPrice: 123.456}})
	if got := page.History[0].String(); got != "AAPL $123.46" {
		t.Errorf("history entry = %q, want %q", got, "AAPL $123.46")
	}
}

func TestSuggestionsFlow(t *testing.T) {
	page, req, ok := SearchPage{}.InputChanged("TS")
	if !ok || req.Prefix != "TS" {
		t.Fatalf("InputChanged() = %+v, %v", req, ok)
	}

	list := []models.Suggestion{
		{Symbol: "TSLA", Description: "Tesla Inc"},
		{Symbol: "TSM", Description: "Taiwan Semiconductor"},
	}
	page, applied := page.ApplySuggestions(SuggestOutcome{Seq: req.Seq, Suggestions: list})
	if !applied {
		t.Fatal("current response was not applied")
	}
	if diff := cmp.Diff(list, page.Suggestions); diff != "" {
		t.Errorf("suggestions mismatch (-want +got):\n%s", diff)
	}

	page, symbol, ok := page.SelectSuggestion("TSLA")
	if !ok || symbol != "TSLA" {
		t.Fatalf("SelectSuggestion() = %q, %v", symbol, ok)
	}
	want := SearchPage{Query: "TSLA", Result: Panel{Kind: PanelLoading, Text: MsgLoading}}
	if diff := cmp.Diff(want, page, ignoreSeq); diff != "" {
		t.Errorf("page mismatch (-want +got):\n%s", diff)
	}
}

func TestInputChanged_BlankClearsWithoutRequest(t *testing.T) {
	page := SearchPage{Suggestions: []models.Suggestion{{Symbol: "A"}}}
	page, _, ok := page.InputChanged("  ")
	if ok {
		t.Fatal("blank input issued a request")
	}
	if page.Suggestions != nil {
		t.Errorf("suggestions not cleared: %v", page.Suggestions)
	}
}

func TestApplySuggestions_StaleResponseDiscarded(t *testing.T) {
	page, first, _ := SearchPage{}.InputChanged("A")
	page, second, _ := page.InputChanged("AA")

	page, applied := page.ApplySuggestions(SuggestOutcome{Seq: second.Seq, Suggestions: []models.Suggestion{{Symbol: "AAPL"}}})
	if !applied {
		t.Fatal("latest response was not applied")
	}
	page, applied = page.ApplySuggestions(SuggestOutcome{Seq: first.Seq, Suggestions: []models.Suggestion{{Symbol: "A"}, {Symbol: "AMZN"}}})
	if applied {
		t.Fatal("stale response was applied")
	}
	if diff := cmp.Diff([]models.Suggestion{{Symbol: "AAPL"}}, page.Suggestions); diff != "" {
		t.Errorf("suggestions mismatch (-want +got):\n%s", diff)
	}
}

func TestApplySuggestions_AfterDismissDiscarded(t *testing.T) {
	page, req, _ := SearchPage{}.InputChanged("MS")
	page = page.DismissSuggestions()

	page, applied := page.ApplySuggestions(SuggestOutcome{Seq: req.Seq, Suggestions: []models.Suggestion{{Symbol: "MSFT"}}})
	if applied || page.Suggestions != nil {
		t.Errorf("response issued before dismiss repopulated the list: %v", page.Suggestions)
	}
}

func TestApplySuggestions_FailureKeepsList(t *testing.T) {
	page, req, _ := SearchPage{Suggestions: []models.Suggestion{{Symbol: "GOOG"}}}.InputChanged("GO")
	page, applied := page.ApplySuggestions(SuggestOutcome{Seq: req.Seq, Err: apperrors.ErrConnectionFailed})
	if applied {
		t.Fatal("failed response was applied")
	}
	if diff := cmp.Diff([]models.Suggestion{{Symbol: "GOOG"}}, page.Suggestions); diff != "" {
		t.Errorf("suggestions mismatch (-want +got):\n%s", diff)
	}
}

func TestApplySuggestions_EmptyResultClears(t *testing.T) {
	page, req, _ := SearchPage{Suggestions: []models.Suggestion{{Symbol: "GOOG"}}}.InputChanged("QQQQQ")
	page, applied := page.ApplySuggestions(SuggestOutcome{Seq: req.Seq, Suggestions: []models.Suggestion{}})
	if !applied || page.Suggestions != nil {
		t.Errorf("empty response: applied=%v suggestions=%v", applied, page.Suggestions)
	}
}

func TestAuthEffects(t *testing.T) {
	unreachable := apperrors.NewTransportError(http.MethodPost, "/api/login/", errors.New("dial tcp: connection refused"))

	tests := []struct {
		name string
		got  Effect
		want Effect
	}{
		{"login ok", LoginEffect(nil), Effect{Navigate: models.ViewSearch}},
		{"login rejected", LoginEffect(fmt.Errorf("%w: %w", apperrors.ErrInvalidCredentials,
			apperrors.NewAPIError(http.StatusUnauthorized, "/api/login/", "Invalid credentials"))), Effect{Alert: "Invalid credentials"}},
		{"login rejected without message", LoginEffect(apperrors.NewAPIError(http.StatusBadRequest, "/api/login/", "")), Effect{Alert: MsgLoginFailed}},
		{"login unreachable", LoginEffect(unreachable), Effect{Alert: MsgLoginUnreachable}},
		{"signup ok", SignupEffect("User created successfully.", nil), Effect{Navigate: models.ViewLogin, Alert: "User created successfully."}},
		{"signup taken", SignupEffect("Username already exists.", apperrors.NewAPIError(http.StatusBadRequest, "/api/signup/", "Username already exists.")),
			Effect{Alert: "Username already exists."}},
		{"signup failed without message", SignupEffect("", apperrors.NewAPIError(http.StatusInternalServerError, "/api/signup/", "")), Effect{Alert: MsgSignupFailed}},
		{"signup unreachable", SignupEffect("", unreachable), Effect{Alert: MsgSignupUnreachable}},
		{"logout ok", LogoutEffect(nil), Effect{Navigate: models.ViewLogin}},
		{"logout failed", LogoutEffect(apperrors.NewAPIError(http.StatusInternalServerError, "/api/logout/", "")), Effect{Alert: MsgLogoutFailed}},
		{"logout unreachable", LogoutEffect(unreachable), Effect{Alert: MsgLogoutUnreachable}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, tt.got); diff != "" {
				t.Errorf("effect mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEffectNone(t *testing.T) {
	if !(Effect{}).None() {
		t.Error("zero Effect should be None")
	}
	if (Effect{Alert: "x"}).None() {
		t.Error("alerting Effect should not be None")
	}
}
