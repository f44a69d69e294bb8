// Package api is the HTTP client for the stock quote backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	apperrors "stocksearch/internal/errors"
	"stocksearch/internal/logging"
	"stocksearch/internal/security"
)

// Endpoint paths, relative to the base URL.
const (
	PathLogin        = "/api/login/"
	PathSignup       = "/api/signup/"
	PathLogout       = "/api/logout/"
	PathQuote        = "/api/quote/"
	PathSymbolSearch = "/api/symbol-search/"
)

const maxBodyBytes = 1 << 20

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=api -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the quote backend. Session state lives entirely in the
// cookie jar of the HTTPClient it is given.
type Client struct {
	// baseURL is the scheme://host[:port] the endpoint paths are appended to.
	baseURL *url.URL
	// httpClient performs requests; it owns the cookie jar.
	httpClient HTTPClient
	userAgent  string
	logger     zerolog.Logger
}

// Option is a configuration option for the Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(httpClient HTTPClient) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithLogger sets the logger API calls are reported to.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger.With().Str("component", "api").Logger()
	}
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, options ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrConfigInvalid, "parse base url %q: %v", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, apperrors.Wrapf(apperrors.ErrConfigInvalid, "base url %q must be absolute", baseURL)
	}

	client := &Client{
		baseURL:    u,
		httpClient: http.DefaultClient,
		userAgent:  "stocksearch/dev",
		logger:     zerolog.Nop(),
	}
	for _, option := range options {
		option(client)
	}
	return client, nil
}

// response is a fully read HTTP response.
type response struct {
	status int
	body   []byte
}

func (r *response) ok() bool {
	return r.status >= 200 && r.status < 300
}

// do sends one request and reads the whole body. Transport failures come
// back as *errors.TransportError; any HTTP status is returned as a response.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload interface{}) (*response, error) {
	endpoint := *c.baseURL
	endpoint.Path = strings.TrimRight(c.baseURL.Path, "/") + path
	if len(query) > 0 {
		endpoint.RawQuery = query.Encode()
	}

	var body io.Reader
	if payload != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(payload); err != nil {
			return nil, fmt.Errorf("encode %s body: %w", path, err)
		}
		body = buf
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", path, err)
	}

	requestID := logging.RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if c.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		terr := apperrors.NewTransportError(method, path, err)
		logging.LogAPICall(c.logger, method, path, requestID, 0, time.Since(start), maskedError(terr))
		return nil, terr
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		terr := apperrors.NewTransportError(method, path, err)
		logging.LogAPICall(c.logger, method, path, requestID, resp.StatusCode, time.Since(start), maskedError(terr))
		return nil, terr
	}

	logging.LogAPICall(c.logger, method, path, requestID, resp.StatusCode, time.Since(start), nil)
	return &response{status: resp.StatusCode, body: data}, nil
}

// apiError builds the error for a non-2xx response. field names the JSON
// key the endpoint reports its message under.
func (r *response) apiError(path, field string) *apperrors.APIError {
	return apperrors.NewAPIError(r.status, path, errorMessage(r.body, field))
}

// errorMessage extracts the human-readable message from a response body.
// JSON bodies carry it under field; some failures are answered with plain
// text, which is used as-is. HTML error pages are ignored.
func errorMessage(body []byte, field string) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &payload); err == nil {
		var msg string
		if raw, ok := payload[field]; ok && json.Unmarshal(raw, &msg) == nil {
			return msg
		}
		return ""
	}

	if trimmed[0] == '<' || trimmed[0] == '{' || trimmed[0] == '[' {
		return ""
	}
	return truncateRunes(string(trimmed), maxMessageRunes)
}

const maxMessageRunes = 200

// truncateRunes cuts s to at most n runes without splitting a character.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

type maskedErr struct{ msg string }

func (e maskedErr) Error() string { return e.msg }

func maskedError(err error) error {
	if err == nil {
		return nil
	}
	return maskedErr{msg: security.MaskSensitive(err.Error())}
}
