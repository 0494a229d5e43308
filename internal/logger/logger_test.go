package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel("WARN"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
	assert.Equal(t, slog.LevelInfo, parseLevel("bogus"))
}

func TestTraceContextHandler(t *testing.T) {
	t.Run("passes records through without a span", func(t *testing.T) {
		var buf bytes.Buffer
		h := NewTraceContextHandler(slog.NewJSONHandler(&buf, nil))
		l := slog.New(h)

		l.InfoContext(context.Background(), "hello", "key", "value")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "hello", entry["msg"])
		assert.Equal(t, "value", entry["key"])
		assert.NotContains(t, entry, "trace_id")
	})
}

func TestInit(t *testing.T) {
	l := Init(false)
	require.NotNil(t, l)
	assert.Same(t, l, slog.Default())
}
