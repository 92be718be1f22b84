package observability

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ibeckermayer/threadfeed/internal/config"
)

func TestNewConsole(t *testing.T) {
	buf := new(bytes.Buffer)
	logger, err := New(config.LoggerConfig{Level: "info", Format: "console"}, buf)
	require.NoError(t, err)

	logger.Info("💬 Sending", zap.Int("index", 1))
	logger.Debug("hidden")
	require.NoError(t, logger.Sync())

	out := buf.String()
	assert.Contains(t, out, "INFO")
	assert.Contains(t, out, "💬 Sending")
	assert.Contains(t, out, `"index": 1`)
	assert.NotContains(t, out, "hidden")
	assert.NotContains(t, out, "\x1b[", "no color codes outside a terminal")
}

func TestNewJSON(t *testing.T) {
	buf := new(bytes.Buffer)
	logger, err := New(config.LoggerConfig{Level: "debug", Format: "json"}, buf)
	require.NoError(t, err)

	logger.Debug("navigating", zap.String("url", "https://example.test"))
	require.NoError(t, logger.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "DEBUG", entry["level"])
	assert.Equal(t, "navigating", entry["msg"])
	assert.Equal(t, "https://example.test", entry["url"])
}

func TestNewInvalidLevel(t *testing.T) {
	_, err := New(config.LoggerConfig{Level: "chatty"}, new(bytes.Buffer))
	assert.Error(t, err)
}

func TestNewWithLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "threadfeed.log")
	buf := new(bytes.Buffer)
	logger, err := New(config.LoggerConfig{Level: "info", Format: "console", LogFile: path, MaxSize: 1}, buf)
	require.NoError(t, err)

	logger.Warn("⚠️ No cookies.json file found!")
	require.NoError(t, logger.Sync())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	line := strings.TrimSpace(string(raw))

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Contains(t, buf.String(), "No cookies.json file found")
}

func TestNewDefaultsToInfo(t *testing.T) {
	logger, err := New(config.LoggerConfig{}, new(bytes.Buffer))
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.InfoLevel))
	assert.False(t, logger.Core().Enabled(zap.DebugLevel))
}
