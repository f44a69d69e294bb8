// Package models provides domain models for the stock search client.
package models

import (
	"fmt"
	"strings"
)

// View identifies which screen of the client is active.
type View string

const (
	ViewLogin  View = "login"
	ViewSignup View = "signup"
	ViewSearch View = "search"
)

// Credentials holds a username/password pair captured at submit time.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Complete reports whether both fields are non-empty.
func (c Credentials) Complete() bool {
	return c.Username != "" && c.Password != ""
}

// String never includes the password.
func (c Credentials) String() string {
	return fmt.Sprintf("Credentials{Username: %q}", c.Username)
}

// Quote is the payload of the quote endpoint.
type Quote struct {
	Symbol    string  `json:"symbol"`
	OpenPrice float64 `json:"open_price"`
}

// Suggestion is a candidate symbol returned by the symbol search endpoint.
type Suggestion struct {
	Symbol      string `json:"symbol"`
	Description string `json:"description"`
}

// HistoryEntry is a locally retained record of a fetched quote.
type HistoryEntry struct {
	Symbol    string  `json:"symbol"`
	OpenPrice float64 `json:"open_price"`
}

// String renders the entry the way the history list shows it, e.g. "AAPL $123.46".
func (h HistoryEntry) String() string {
	return h.Symbol + " " + FormatPrice(h.OpenPrice)
}

// FormatPrice formats a price with a dollar sign and two decimal places.
func FormatPrice(price float64) string {
	return fmt.Sprintf("$%.2f", price)
}

// NormalizeSymbol trims surrounding whitespace from user input.
// Case is left to the server, which upper-cases symbols itself.
func NormalizeSymbol(input string) string {
	return strings.TrimSpace(input)
}
