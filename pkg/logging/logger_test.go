package logging

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tonegen/pkg/config"
)

func TestInit(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	tempDir := t.TempDir()
	serverLog := filepath.Join(tempDir, "server.log")
	requestLog := filepath.Join(tempDir, "requests.log")

	require.NoError(t, os.WriteFile(serverLog, []byte("previous run\n"), 0o644))

	cfg := &config.LogConfig{
		Server:   config.LogSettings{Path: serverLog, Level: "DEBUG"},
		Requests: config.LogSettings{Path: requestLog, Level: "INFO"},
	}

	cleanup, err := Init(cfg)
	require.NoError(t, err)
	defer cleanup()

	assert.FileExists(t, serverLog)
	assert.FileExists(t, requestLog)
	assert.FileExists(t, serverLog+".old", "previous log should be rotated")
	assert.NotNil(t, RequestLogger)

	slog.Info("tone test line", "k", "v")
	assert.Contains(t, GlobalLogCapture.GetLastLine(), "tone test line")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"WARNING", slog.LevelWarn},
		{"Error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestMultiHandler_LevelFanOut(t *testing.T) {
	var debugBuf, warnBuf bytes.Buffer
	h := NewMultiHandler(
		slog.NewTextHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&warnBuf, &slog.HandlerOptions{Level: slog.LevelWarn}),
	)
	logger := slog.New(h).With("component", "graph")

	assert.True(t, h.Enabled(context.Background(), slog.LevelDebug))

	logger.Debug("ramp scheduled")
	logger.Warn("device unavailable")

	assert.Contains(t, debugBuf.String(), "ramp scheduled")
	assert.Contains(t, debugBuf.String(), "device unavailable")
	assert.NotContains(t, warnBuf.String(), "ramp scheduled")
	assert.Contains(t, warnBuf.String(), "device unavailable")
	assert.Contains(t, warnBuf.String(), "component=graph")
}
