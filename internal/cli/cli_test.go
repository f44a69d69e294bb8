package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// backend mimics the quote service: a session cookie gates quote and
// symbol search.
type backend struct {
	mu       sync.Mutex
	sessions map[string]bool
}

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	b := &backend{sessions: map[string]bool{}}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/login/", func(w http.ResponseWriter, r *http.Request) {
		var creds struct{ Username, Password string }
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if creds.Username != "alice" || creds.Password != "s3cret" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"})
			return
		}
		b.mu.Lock()
		b.sessions["sess-1"] = true
		b.mu.Unlock()
		http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: "sess-1", Path: "/", HttpOnly: true})
		writeJSON(w, http.StatusOK, map[string]string{"message": "Login successful"})
	})
	mux.HandleFunc("/api/logout/", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("sessionid"); err == nil {
			b.mu.Lock()
			delete(b.sessions, c.Value)
			b.mu.Unlock()
		}
		http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: "", Path: "/", MaxAge: -1})
		writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
	})
	mux.HandleFunc("/api/quote/", func(w http.ResponseWriter, r *http.Request) {
		if !b.authorized(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Authentication credentials were not provided."})
			return
		}
		symbol := strings.ToUpper(r.URL.Query().Get("symbol"))
		if symbol == "ZZZZ" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad symbol"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"symbol": symbol, "open_price": 123.456})
	})
	mux.HandleFunc("/api/symbol-search/", func(w http.ResponseWriter, r *http.Request) {
		if !b.authorized(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{})
			return
		}
		writeJSON(w, http.StatusOK, []map[string]string{
			{"symbol": "TSLA", "description": "Tesla Inc"},
			{"symbol": "TSM", "description": "Taiwan Semiconductor Manufacturing Company Limited ADR"},
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func (b *backend) authorized(r *http.Request) bool {
	c, err := r.Cookie("sessionid")
	if err != nil {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sessions[c.Value]
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// execute runs one CLI invocation against the config in dir.
func execute(t *testing.T, dir, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", dir, "--no-color"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSessionLifecycle(t *testing.T) {
	srv := newBackend(t)
	t.Setenv("STOCKSEARCH_API_URL", srv.URL)
	dir := t.TempDir()

	out, err := execute(t, dir, "", "status")
	require.NoError(t, err)
	require.Contains(t, out, "Session:  none")

	out, err = execute(t, dir, "", "login", "-u", "alice", "-p", "wrong")
	require.Error(t, err)
	require.True(t, IsReported(err))
	require.Contains(t, out, "Invalid credentials")

	out, err = execute(t, dir, "alice\ns3cret\n", "login")
	require.NoError(t, err)
	require.Contains(t, out, "Logged in as alice")

	// A fresh invocation replays the stored cookie.
	out, err = execute(t, dir, "", "status")
	require.NoError(t, err)
	require.Contains(t, out, "Session:  stored")
	require.Contains(t, out, "sessionid")

	out, err = execute(t, dir, "", "quote", "aapl")
	require.NoError(t, err)
	require.Contains(t, out, "Opening Price: $123.46")

	out, err = execute(t, dir, "", "logout")
	require.NoError(t, err)
	require.Contains(t, out, "Logged out")

	out, err = execute(t, dir, "", "quote", "AAPL")
	require.Error(t, err)
	require.Contains(t, out, "Your session has expired. Please log in again.")

	trail, err := os.ReadFile(filepath.Join(dir, "audit", "audit.log"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(trail)), "\n")
	require.Len(t, lines, 4)
	for i, event := range []string{"LOGIN", "LOGIN", "LOGOUT", "SESSION_EXPIRED"} {
		require.Contains(t, lines[i], `"event_type":"`+event+`"`)
	}
	require.Contains(t, lines[0], `"success":false`)
	require.Contains(t, lines[1], `"success":true`)
}

func TestQuoteMultipleSymbols(t *testing.T) {
	srv := newBackend(t)
	t.Setenv("STOCKSEARCH_API_URL", srv.URL)
	dir := t.TempDir()

	_, err := execute(t, dir, "", "login", "-u", "alice", "-p", "s3cret")
	require.NoError(t, err)

	out, err := execute(t, dir, "", "quote", "AAPL", "ZZZZ", "MSFT")
	require.Error(t, err)
	require.True(t, IsReported(err))
	require.Contains(t, out, "ZZZZ: bad symbol")
	require.Contains(t, out, "MSFT $123.46")
	require.Less(t, strings.Index(out, "MSFT $123.46"), strings.Index(out, "AAPL $123.46"), "history is most recent first")

	out, err = execute(t, dir, "", "--json", "quote", "AAPL")
	require.NoError(t, err)
	var payload struct {
		Results []quoteResult `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	require.Len(t, payload.Results, 1)
	require.Equal(t, "AAPL", payload.Results[0].Symbol)
	require.InDelta(t, 123.456, *payload.Results[0].OpenPrice, 1e-9)
}

func TestSuggest(t *testing.T) {
	srv := newBackend(t)
	t.Setenv("STOCKSEARCH_API_URL", srv.URL)
	dir := t.TempDir()

	out, err := execute(t, dir, "", "suggest", "TS")
	require.Error(t, err)
	require.Contains(t, out, "Your session has expired. Please log in again.")

	_, err = execute(t, dir, "", "login", "-u", "alice", "-p", "s3cret")
	require.NoError(t, err)

	out, err = execute(t, dir, "", "suggest", "TS")
	require.NoError(t, err)
	require.Contains(t, out, "TSLA")
	require.Contains(t, out, "Tesla Inc")
	require.Contains(t, out, "…")

	out, err = execute(t, dir, "", "suggest", "TS", "--pick", "tsla")
	require.NoError(t, err)
	require.Contains(t, out, "TSLA")
	require.Contains(t, out, "Opening Price: $123.46")

	out, err = execute(t, dir, "", "suggest", "TS", "--pick", "AAPL")
	require.Error(t, err)
	require.Contains(t, out, "AAPL is not among the suggestions")

	out, err = execute(t, dir, "", "suggest", "  ")
	require.Error(t, err)
	require.Contains(t, out, "Please enter a stock symbol.")
}

func TestSignupValidation(t *testing.T) {
	srv := newBackend(t)
	t.Setenv("STOCKSEARCH_API_URL", srv.URL)

	out, err := execute(t, t.TempDir(), "", "signup", "-u", "bob", "-p", "")
	require.Error(t, err)
	require.Contains(t, out, "Please enter both a username and a password.")
}

func TestCoreCommands(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, dir, "", "version")
	require.NoError(t, err)
	require.Contains(t, out, "stocksearch v"+Version)

	out, err = execute(t, dir, "", "config", "path")
	require.NoError(t, err)
	require.Contains(t, out, "config.toml")

	out, err = execute(t, dir, "", "config", "validate")
	require.NoError(t, err)
	require.Contains(t, out, "Configuration is valid")

	out, err = execute(t, dir, "", "config", "show")
	require.NoError(t, err)
	require.Contains(t, out, "Max Suggestions: 5")

	out, err = execute(t, dir, "", "commands")
	require.NoError(t, err)
	for _, name := range []string{"login", "quote <symbol...>", "suggest <prefix>", "search"} {
		require.Contains(t, out, name)
	}

	out, err = execute(t, dir, "", "examples")
	require.NoError(t, err)
	require.Contains(t, out, "stocksearch suggest TS")
}

func TestConnectFailure(t *testing.T) {
	srv := newBackend(t)
	t.Setenv("STOCKSEARCH_API_URL", srv.URL)
	srv.Close()

	out, err := execute(t, t.TempDir(), "", "login", "-u", "alice", "-p", "s3cret")
	require.Error(t, err)
	require.Contains(t, out, "Could not connect to the server. Make sure the backend is running.")
}
