package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	apperrors "stocksearch/internal/errors"
	"stocksearch/internal/models"
)

// JSON keys the backend reports messages under.
const (
	fieldMessage = "message"
	fieldError   = "error"
)

// quoteBody is the wire form of a quote. Both fields are required; the
// backend sends a null price when it has no data for the day.
type quoteBody struct {
	Symbol    *string  `json:"symbol"`
	OpenPrice *float64 `json:"open_price"`
}

// Login posts credentials. On success the server's session cookie lands in
// the client's jar. A 401 is reported as ErrInvalidCredentials wrapping the
// APIError that carries the server message.
func (c *Client) Login(ctx context.Context, creds models.Credentials) error {
	resp, err := c.do(ctx, http.MethodPost, PathLogin, nil, creds)
	if err != nil {
		return err
	}
	if resp.ok() {
		return nil
	}
	apiErr := resp.apiError(PathLogin, fieldMessage)
	if resp.status == http.StatusUnauthorized {
		return fmt.Errorf("%w: %w", apperrors.ErrInvalidCredentials, apiErr)
	}
	return apiErr
}

// Signup creates an account. The server message is returned in both the
// success and the failure case.
func (c *Client) Signup(ctx context.Context, creds models.Credentials) (string, error) {
	resp, err := c.do(ctx, http.MethodPost, PathSignup, nil, creds)
	if err != nil {
		return "", err
	}
	msg := errorMessage(resp.body, fieldMessage)
	if resp.ok() {
		return msg, nil
	}
	return msg, resp.apiError(PathSignup, fieldMessage)
}

// Logout ends the server-side session.
func (c *Client) Logout(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodPost, PathLogout, nil, nil)
	if err != nil {
		return err
	}
	if resp.ok() {
		return nil
	}
	return resp.apiError(PathLogout, fieldMessage)
}

// Quote fetches the opening price for symbol. A 401 is reported as
// ErrSessionExpired wrapping the APIError. A 2xx without a symbol or an
// opening price is ErrUnexpectedResponse.
func (c *Client) Quote(ctx context.Context, symbol string) (*models.Quote, error) {
	resp, err := c.do(ctx, http.MethodGet, PathQuote, url.Values{"symbol": {symbol}}, nil)
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		apiErr := resp.apiError(PathQuote, fieldError)
		if resp.status == http.StatusUnauthorized {
			return nil, fmt.Errorf("%w: %w", apperrors.ErrSessionExpired, apiErr)
		}
		return nil, apiErr
	}

	var body quoteBody
	if err := json.Unmarshal(resp.body, &body); err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrUnexpectedResponse, "decode quote: %v", err)
	}
	if body.Symbol == nil || *body.Symbol == "" || body.OpenPrice == nil {
		return nil, apperrors.Wrapf(apperrors.ErrUnexpectedResponse, "quote for %q lacks symbol or open_price", symbol)
	}
	return &models.Quote{Symbol: *body.Symbol, OpenPrice: *body.OpenPrice}, nil
}

// SymbolSearch returns symbols starting with prefix.
func (c *Client) SymbolSearch(ctx context.Context, prefix string) ([]models.Suggestion, error) {
	resp, err := c.do(ctx, http.MethodGet, PathSymbolSearch, url.Values{"q": {prefix}}, nil)
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		apiErr := resp.apiError(PathSymbolSearch, fieldError)
		if resp.status == http.StatusUnauthorized {
			return nil, fmt.Errorf("%w: %w", apperrors.ErrSessionExpired, apiErr)
		}
		return nil, apiErr
	}

	var suggestions []models.Suggestion
	if err := json.Unmarshal(resp.body, &suggestions); err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrUnexpectedResponse, "decode suggestions: %v", err)
	}
	return suggestions, nil
}
