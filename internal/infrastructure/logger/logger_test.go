package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/paybridge/backend/internal/infrastructure/config"
)

func TestDefaultConfig(t *testing.T) {
	dev := DefaultConfig()
	assert.Equal(t, "console", dev.Format)
	assert.Equal(t, "stdout", dev.Output)
	assert.Equal(t, "info", dev.Level)
}

func TestFromAppConfig(t *testing.T) {
	cfg := FromAppConfig(config.LogConfig{Level: "debug", Format: "json", Output: "stderr"})
	assert.Equal(t, "debug", cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "stderr", cfg.Output)
	assert.NotEmpty(t, cfg.TimeFormat)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"DEBUG", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"fatal", zapcore.FatalLevel},
		{"", zapcore.InfoLevel},
		{"verbose", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLevel(tt.level))
		})
	}
}

func TestNew_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	l, err := New(&Config{Level: "info", Format: "json", Output: path})
	require.NoError(t, err)

	l.Debug("hidden")
	l.Info("visible", zap.String("store", "demo"))
	require.NoError(t, l.Sync())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "visible", entry["msg"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "demo", entry["store"])
	assert.Contains(t, entry, "caller")
}

func TestCreateWriter_UnwritablePathFallsBack(t *testing.T) {
	w := createWriter(filepath.Join(t.TempDir(), "missing", "dir", "app.log"))
	assert.NotNil(t, w)
}

func TestSecret(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected string
	}{
		{name: "unset", value: "", expected: "<unset>"},
		{name: "short", value: "abc", expected: "****"},
		{name: "long", value: "sk_live_abcdef1234", expected: "****1234"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, recorded := observer.New(zapcore.InfoLevel)
			zap.New(core).Info("configured", Secret("secret_key", tt.value))

			got := recorded.All()[0].ContextMap()["secret_key"]
			assert.Equal(t, tt.expected, got)
			if tt.value != "" && len(tt.value) > 4 {
				assert.NotContains(t, got, tt.value[:len(tt.value)-4])
			}
		})
	}
}
