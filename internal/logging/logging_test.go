package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContext(t *testing.T) {
	t.Run("no logger returns nop", func(t *testing.T) {
		l := FromContext(context.Background())
		require.NotNil(t, l)
		assert.Equal(t, zerolog.Disabled, l.GetLevel())
	})

	t.Run("attached logger is returned", func(t *testing.T) {
		var buf bytes.Buffer
		base := zerolog.New(&buf).Level(zerolog.DebugLevel)
		ctx := base.WithContext(context.Background())

		FromContext(ctx).Info().Str("k", "v").Msg("hello")

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		assert.Equal(t, "hello", line["message"])
		assert.Equal(t, "v", line["k"])
	})

	t.Run("nil context", func(t *testing.T) {
		//nolint:staticcheck // exercising nil handling
		assert.NotNil(t, FromContext(nil))
	})
}

func TestTraceID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, TraceIDFromContext(ctx))

	generated := GetOrGenerateTraceID(ctx)
	assert.Len(t, generated, 26, "ULIDs are 26 characters")

	ctx = ContextWithTraceID(ctx, generated)
	assert.Equal(t, generated, TraceIDFromContext(ctx))
	assert.Equal(t, generated, GetOrGenerateTraceID(ctx))
}

func TestNewLoggerWithPath(t *testing.T) {
	t.Run("file output", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs", "planetzero.log")
		result := NewLoggerWithPath(Config{Level: "debug", Format: FormatJSON, Output: OutputFile, File: path})
		defer func() { require.NoError(t, result.Close()) }()

		assert.True(t, result.UsingFile)
		assert.False(t, result.FallbackUsed)
		assert.Equal(t, path, result.FilePath)

		result.Logger.Debug().Msg("written")
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "written")
	})

	t.Run("missing file path falls back", func(t *testing.T) {
		result := NewLoggerWithPath(Config{Output: OutputFile})
		assert.False(t, result.UsingFile)
		assert.True(t, result.FallbackUsed)
		assert.NotEmpty(t, result.FallbackReason)
	})

	t.Run("bad level defaults to info", func(t *testing.T) {
		result := NewLoggerWithPath(Config{Level: "loud"})
		assert.Equal(t, zerolog.InfoLevel, result.Logger.GetLevel())
	})
}

func TestAuditLogger(t *testing.T) {
	t.Run("disabled is a no-op", func(t *testing.T) {
		l := NewAuditLogger(AuditLoggerConfig{Enabled: false})
		l.Log(context.Background(), *NewAuditEntry("log submit", "trace"))
		assert.NoError(t, l.Close())
	})

	t.Run("writes json lines", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "audit.log")
		l := NewAuditLogger(AuditLoggerConfig{Enabled: true, File: path})

		entry := NewAuditEntry("log submit", "trace-1").
			WithParameters(map[string]string{"date": "2026-01-04"}).
			WithSuccess(1, 16.04).
			WithDuration(time.Now())
		l.Log(context.Background(), *entry)
		require.NoError(t, l.Close())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		var line map[string]any
		require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &line))
		assert.Equal(t, "log submit", line["command"])
		assert.Equal(t, "trace-1", line["trace_id"])
		assert.Equal(t, true, line["success"])
		assert.InDelta(t, 16.04, line["total_kg"], 1e-9)
	})

	t.Run("context round trip", func(t *testing.T) {
		ctx := context.Background()
		assert.NotNil(t, AuditLoggerFromContext(ctx))

		l := NewAuditLogger(AuditLoggerConfig{})
		ctx = ContextWithAuditLogger(ctx, l)
		assert.Equal(t, l, AuditLoggerFromContext(ctx))
	})
}
