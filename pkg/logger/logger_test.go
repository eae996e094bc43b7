package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter(t *testing.T) {
	var buf bytes.Buffer

	l := NewWithWriter("auth-service", "info", &buf)
	l.Info("hello", "key", "value")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	assert.Equal(t, "auth-service", entry["service"])
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "value", entry["key"])
	assert.Equal(t, "INFO", entry["level"])
}

func TestNewWithWriterLevelFiltering(t *testing.T) {
	var buf bytes.Buffer

	l := NewWithWriter("auth-service", "warn", &buf)
	l.Info("dropped")
	assert.Zero(t, buf.Len())

	l.Warn("kept")
	assert.NotZero(t, buf.Len())
}

func TestNewWithWriterUnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer

	l := NewWithWriter("auth-service", "verbose", &buf)
	l.Debug("dropped")
	assert.Zero(t, buf.Len())

	l.Info("kept")
	assert.NotZero(t, buf.Len())
}

func TestCorrelationIDRoundTrip(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, CorrelationIDFromContext(ctx))

	ctx = WithCorrelationID(ctx, "abc-123")
	assert.Equal(t, "abc-123", CorrelationIDFromContext(ctx))
}

func TestUserIDRoundTrip(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, UserIDFromContext(ctx))

	ctx = WithUserID(ctx, "user-1")
	assert.Equal(t, "user-1", UserIDFromContext(ctx))
}

func TestWithContextAddsFields(t *testing.T) {
	var buf bytes.Buffer

	base := NewWithWriter("auth-service", "info", &buf)
	ctx := WithCorrelationID(context.Background(), "corr-1")
	ctx = WithUserID(ctx, "user-9")

	WithContext(ctx, base).Info("msg")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	assert.Equal(t, "corr-1", entry["correlation_id"])
	assert.Equal(t, "user-9", entry["user_id"])
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))
}

func TestLoggerContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer

	l := NewWithWriter("auth-service", "info", &buf)
	ctx := NewContext(context.Background(), l)

	assert.Same(t, l, FromContext(ctx))
}
