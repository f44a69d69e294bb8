package security

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type bufferCloser struct {
	bytes.Buffer
	closed bool
}

func (b *bufferCloser) Close() error {
	b.closed = true
	return nil
}

func TestAuditLogger_Log(t *testing.T) {
	buf := &bufferCloser{}
	al := newAuditLogger(buf)
	fixed := time.Date(2026, 10, 1, 9, 30, 0, 0, time.UTC)
	al.now = func() time.Time { return fixed }

	require.NoError(t, al.Log(context.Background(), AuditEvent{EventType: AuditLogin, Username: "alice", Success: true}))
	require.NoError(t, al.Log(context.Background(), AuditEvent{EventType: AuditSessionExpired, Symbol: "AAPL", ErrorMsg: "token=abcdef123456"}))
	require.NoError(t, al.Close())
	require.True(t, buf.closed)

	var events []AuditEvent
	scanner := bufio.NewScanner(&buf.Buffer)
	for scanner.Scan() {
		var e AuditEvent
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &e))
		events = append(events, e)
	}
	require.Len(t, events, 2)

	require.Equal(t, AuditLogin, events[0].EventType)
	require.Equal(t, "alice", events[0].Username)
	require.True(t, events[0].Success)
	require.True(t, fixed.Equal(events[0].Timestamp))

	require.Equal(t, AuditSessionExpired, events[1].EventType)
	require.Equal(t, "AAPL", events[1].Symbol)
	require.Empty(t, events[1].Username)
	require.NotContains(t, events[1].ErrorMsg, "abcdef123456")

	require.NotEmpty(t, al.RunID())
	require.Equal(t, al.RunID(), events[0].RunID)
	require.Equal(t, al.RunID(), events[1].RunID)
}

func TestNewAuditLogger_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit", "audit.log")
	al, err := NewAuditLogger(AuditConfig{Path: path, MaxSize: 1, MaxBackups: 1, MaxAge: 1})
	require.NoError(t, err)

	require.NoError(t, al.Log(context.Background(), AuditEvent{EventType: AuditLogout, Success: true}))
	require.NoError(t, al.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"event_type":"LOGOUT"`)
}
