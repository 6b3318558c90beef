package obs_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trenchsniper/trenchsniperd/internal/obs"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected obs.Level
	}{
		{"off lowercase", "off", obs.LevelOff},
		{"off uppercase", "OFF", obs.LevelOff},
		{"none", "none", obs.LevelOff},
		{"error", "error", obs.LevelError},
		{"debug", "debug", obs.LevelDebug},
		{"with whitespace", "  debug  ", obs.LevelDebug},
		{"unknown defaults to error", "warn", obs.LevelError},
		{"empty defaults to error", "", obs.LevelError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, obs.ParseLevel(tt.input))
		})
	}
}

func TestNewWritesDebugLine(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "trenchsniperd.log")

	logger, err := obs.New(obs.LevelDebug, path)
	require.NoError(t, err)
	defer func() { _ = logger.Close() }()

	logger.Debug("session started", slog.String("kind", "volume"))

	data, err := os.ReadFile(path) //nolint:gosec // G304: test path from t.TempDir()
	require.NoError(t, err)
	assert.Contains(t, string(data), "session started")
}

func TestNullLoggerDiscardsOutput(t *testing.T) {
	t.Parallel()

	logger := obs.NullLogger()
	logger.Debug("should not panic")
	logger.Error("should not panic either")
	assert.Equal(t, obs.LevelOff, logger.Level())
}

func TestLevelAtOrAboveThresholdOnlyLogsDebugWhenEnabled(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "errors-only.log")

	logger, err := obs.New(obs.LevelError, path)
	require.NoError(t, err)
	defer func() { _ = logger.Close() }()

	logger.Debug("ignored")
	logger.Error("recorded")

	data, err := os.ReadFile(path) //nolint:gosec // G304: test path from t.TempDir()
	require.NoError(t, err)
	assert.NotContains(t, string(data), "ignored")
	assert.Contains(t, string(data), "recorded")
}
