package logging

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// AuditEntry records one mutating command for the audit trail.
type AuditEntry struct {
	Command    string            `json:"command"`
	TraceID    string            `json:"trace_id"`
	Parameters map[string]string `json:"parameters,omitempty"`
	Success    bool              `json:"success"`
	Error      string            `json:"error,omitempty"`
	Records    int               `json:"records"`
	TotalKg    float64           `json:"total_kg"`
	DurationMs int64             `json:"duration_ms"`
}

// NewAuditEntry starts an entry for command.
func NewAuditEntry(command, traceID string) *AuditEntry {
	return &AuditEntry{Command: command, TraceID: traceID}
}

// WithParameters attaches the command parameters.
func (e *AuditEntry) WithParameters(params map[string]string) *AuditEntry {
	e.Parameters = params
	return e
}

// WithSuccess marks the entry successful with the number of records written
// and their combined emissions.
func (e *AuditEntry) WithSuccess(records int, totalKg float64) *AuditEntry {
	e.Success = true
	e.Records = records
	e.TotalKg = totalKg
	return e
}

// WithError marks the entry failed.
func (e *AuditEntry) WithError(msg string) *AuditEntry {
	e.Success = false
	e.Error = msg
	return e
}

// WithDuration sets the elapsed time since start.
func (e *AuditEntry) WithDuration(start time.Time) *AuditEntry {
	e.DurationMs = time.Since(start).Milliseconds()
	return e
}

// AuditLogger writes audit entries.
type AuditLogger interface {
	Log(ctx context.Context, entry AuditEntry)
	Close() error
}

// AuditLoggerConfig controls NewAuditLogger.
type AuditLoggerConfig struct {
	Enabled bool
	File    string
}

// NewAuditLogger returns a JSON-lines audit logger writing to cfg.File, or a
// no-op logger when auditing is disabled or the file cannot be opened.
func NewAuditLogger(cfg AuditLoggerConfig) AuditLogger {
	if !cfg.Enabled || cfg.File == "" {
		return nopAuditLogger{}
	}
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o700); err != nil {
		return nopAuditLogger{}
	}
	f, err := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nopAuditLogger{}
	}
	return &fileAuditLogger{
		file:   f,
		logger: zerolog.New(f).With().Timestamp().Str("log_type", "audit").Logger(),
	}
}

type fileAuditLogger struct {
	mu     sync.Mutex
	file   *os.File
	logger zerolog.Logger
}

func (a *fileAuditLogger) Log(_ context.Context, entry AuditEntry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.file == nil {
		return
	}
	a.logger.Info().
		Str("command", entry.Command).
		Str("trace_id", entry.TraceID).
		Interface("parameters", entry.Parameters).
		Bool("success", entry.Success).
		Str("error", entry.Error).
		Int("records", entry.Records).
		Float64("total_kg", entry.TotalKg).
		Int64("duration_ms", entry.DurationMs).
		Msg("audit")
}

func (a *fileAuditLogger) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.file == nil {
		return nil
	}
	err := a.file.Close()
	a.file = nil
	return err
}

type nopAuditLogger struct{}

func (nopAuditLogger) Log(context.Context, AuditEntry) {}
func (nopAuditLogger) Close() error                    { return nil }

const auditLoggerKey contextKey = "audit_logger"

// ContextWithAuditLogger stores the audit logger on ctx.
func ContextWithAuditLogger(ctx context.Context, l AuditLogger) context.Context {
	return context.WithValue(ctx, auditLoggerKey, l)
}

// AuditLoggerFromContext returns the audit logger on ctx, or a no-op logger.
func AuditLoggerFromContext(ctx context.Context) AuditLogger {
	if ctx != nil {
		if l, ok := ctx.Value(auditLoggerKey).(AuditLogger); ok && l != nil {
			return l
		}
	}
	return nopAuditLogger{}
}
