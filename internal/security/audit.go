package security

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/natefinch/lumberjack.v2"
)

// AuditEventType represents the type of audit event.
type AuditEventType string

const (
	AuditLogin          AuditEventType = "LOGIN"
	AuditLogout         AuditEventType = "LOGOUT"
	AuditSignup         AuditEventType = "SIGNUP"
	AuditSessionExpired AuditEventType = "SESSION_EXPIRED"
)

// AuditEvent is a single line of the audit trail.
type AuditEvent struct {
	Timestamp time.Time      `json:"timestamp"`
	EventType AuditEventType `json:"event_type"`
	Username  string         `json:"username,omitempty"`
	Symbol    string         `json:"symbol,omitempty"`
	Success   bool           `json:"success"`
	ErrorMsg  string         `json:"error,omitempty"`
	RunID     string         `json:"run_id"`
}

// AuditLogger appends session events as JSON lines. One run of the client
// shares a run ID so its events can be grouped.
type AuditLogger struct {
	writer io.WriteCloser
	mu     sync.Mutex
	runID  string
	now    func() time.Time
}

// AuditConfig holds audit logger configuration.
type AuditConfig struct {
	Path       string
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
}

// NewAuditLogger opens a rotating audit file at cfg.Path.
func NewAuditLogger(cfg AuditConfig) (*AuditLogger, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0700); err != nil {
		return nil, fmt.Errorf("creating audit directory: %w", err)
	}
	return newAuditLogger(&lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   true,
	}), nil
}

func newAuditLogger(w io.WriteCloser) *AuditLogger {
	return &AuditLogger{
		writer: w,
		runID:  uuid.NewString(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// RunID returns the identifier stamped on every event of this logger.
func (al *AuditLogger) RunID() string {
	return al.runID
}

// Log writes event. Secrets embedded in the error text are masked.
func (al *AuditLogger) Log(ctx context.Context, event AuditEvent) error {
	al.mu.Lock()
	defer al.mu.Unlock()

	event.Timestamp = al.now()
	event.RunID = al.runID
	event.ErrorMsg = MaskSensitive(event.ErrorMsg)

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("serializing audit event: %w", err)
	}
	if _, err := al.writer.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing audit event: %w", err)
	}
	return nil
}

// Close closes the audit file.
func (al *AuditLogger) Close() error {
	return al.writer.Close()
}
