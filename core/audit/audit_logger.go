package audit

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// AuditEvent represents one recorded operation or authorization outcome.
type AuditEvent struct {
	ID        string
	Timestamp time.Time
	EventType string            // e.g., "submit_case", "token_verification"
	EntityID  string            // caller identity or token subject
	Result    string            // "success" or "failure"
	Reason    string            // error code or short reason
	Metadata  map[string]string // caseId, seq, ...
}

const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// NewEvent stamps an event with a fresh ID and the current time.
func NewEvent(eventType, entityID, result, reason string, metadata map[string]string) AuditEvent {
	if metadata == nil {
		metadata = map[string]string{}
	}
	return AuditEvent{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		EntityID:  entityID,
		Result:    result,
		Reason:    reason,
		Metadata:  metadata,
	}
}

// AuditLogger is the interface for logging audit events.
type AuditLogger interface {
	LogEvent(event AuditEvent)
}

// StdoutAuditLogger writes one line per event, to stdout unless another
// writer is given.
type StdoutAuditLogger struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *StdoutAuditLogger) LogEvent(event AuditEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	w := l.w
	if w == nil {
		w = os.Stdout
	}
	fmt.Fprintf(w, "[%s] [%s] id=%s entity=%s result=%s reason=%s metadata=%v\n",
		event.Timestamp.Format(time.RFC3339), event.EventType, event.ID, event.EntityID, event.Result, event.Reason, event.Metadata)
}

// NewStdoutAuditLogger returns a new StdoutAuditLogger.
func NewStdoutAuditLogger() AuditLogger {
	return &StdoutAuditLogger{}
}

// NewWriterAuditLogger returns a StdoutAuditLogger that writes to w.
func NewWriterAuditLogger(w io.Writer) AuditLogger {
	return &StdoutAuditLogger{w: w}
}

// SlogAuditLogger routes audit events through structured logging.
type SlogAuditLogger struct {
	logger *slog.Logger
}

func NewSlogAuditLogger(logger *slog.Logger) AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogAuditLogger{logger: logger.With("module", "audit")}
}

func (l *SlogAuditLogger) LogEvent(event AuditEvent) {
	level := slog.LevelInfo
	if event.Result == ResultFailure {
		level = slog.LevelWarn
	}
	attrs := []any{
		"event", event.EventType,
		"audit_id", event.ID,
		"entity", event.EntityID,
		"result", event.Result,
	}
	if event.Reason != "" {
		attrs = append(attrs, "reason", event.Reason)
	}
	for k, v := range event.Metadata {
		attrs = append(attrs, k, v)
	}
	l.logger.Log(context.Background(), level, "audit", attrs...)
}

// NopAuditLogger discards events.
type NopAuditLogger struct{}

func (NopAuditLogger) LogEvent(AuditEvent) {}
