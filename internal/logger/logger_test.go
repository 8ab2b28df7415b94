package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/safar/cafe-pos/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestJSONLoggerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, config.LogConfig{Level: "warn", Format: "json"})

	log.Info("order created", "order_id", 1)
	assert.Zero(t, buf.Len())

	log.Warn("client total mismatch", "order_id", 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "client total mismatch", entry["msg"])
	assert.Equal(t, "cafe-pos", entry["service"])
	assert.EqualValues(t, 1, entry["order_id"])
}

func TestTextLogger(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, config.LogConfig{Level: "info", Format: "text"})

	log.Info("server started", "port", "8080")
	assert.Contains(t, buf.String(), "msg=\"server started\"")
	assert.Contains(t, buf.String(), "port=8080")
}
