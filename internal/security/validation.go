// Package security provides input validation, masking of secrets in logs and the session audit trail.
package security

import (
	"strings"
	"unicode"

	apperrors "stocksearch/internal/errors"
	"stocksearch/internal/models"
)

// User-facing validation messages.
const (
	MsgSymbolRequired      = "Please enter a stock symbol."
	MsgCredentialsRequired = "Please enter both a username and a password."
)

// ValidateSymbol trims input and rejects it when nothing is left.
// It returns the trimmed symbol on success.
func ValidateSymbol(input string) (string, error) {
	symbol := models.NormalizeSymbol(input)
	if symbol == "" {
		return "", apperrors.NewValidationError("symbol", MsgSymbolRequired)
	}
	if strings.IndexFunc(symbol, unicode.IsControl) >= 0 {
		return "", apperrors.NewValidationError("symbol", "Symbol contains invalid characters.")
	}
	return symbol, nil
}

// ValidateCredentials requires both username and password to be non-empty.
func ValidateCredentials(creds models.Credentials) error {
	if !creds.Complete() {
		return apperrors.NewValidationError("credentials", MsgCredentialsRequired)
	}
	return nil
}

// MaskCredential masks a credential for safe display.
func MaskCredential(value string) string {
	if len(value) == 0 {
		return ""
	}
	if len(value) <= 4 {
		return strings.Repeat("*", len(value))
	}
	if len(value) <= 8 {
		return value[:2] + strings.Repeat("*", len(value)-2)
	}
	return value[:4] + strings.Repeat("*", len(value)-8) + value[len(value)-4:]
}
