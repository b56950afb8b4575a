package logging

import (
	"bytes"
	"encoding/json"
	"log"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		" error ": slog.LevelError,
		"":        slog.LevelInfo,
		"trace":   slog.LevelInfo,
	}
	for input, expected := range tests {
		assert.Equal(t, expected, ParseLevel(input), "input %q", input)
	}
}

func TestNewHandler_Production(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, "production", "info"))

	logger.Debug("hidden")
	logger.Info("request", "status", 200)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "request", entry["msg"])
	assert.Equal(t, "INFO", entry["level"])
	assert.EqualValues(t, 200, entry["status"])
	assert.Contains(t, entry, "ts")
	assert.NotContains(t, entry, "time")
}

func TestNewHandler_Development(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, "dev", "debug"))

	logger.Debug("mounted", "engine", "gin")

	out := buf.String()
	assert.Contains(t, out, "DBG")
	assert.Contains(t, out, "mounted")
	assert.Contains(t, out, "engine=gin")
	assert.NotContains(t, out, "\x1b[", "non-terminal writers get no colors")
}

func TestSetup(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() {
		slog.SetDefault(previous)
		log.SetOutput(os.Stderr)
		log.SetFlags(log.LstdFlags)
	})

	var buf bytes.Buffer
	logger := Setup(&buf, "prod", "info")
	assert.Same(t, logger, slog.Default())

	log.Print("from the standard logger")
	assert.Contains(t, buf.String(), `"msg":"from the standard logger"`)
}

func TestWriter(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, "prod", "info"))

	_, err := Writer(logger, slog.LevelWarn).Write([]byte("engine says hi\n"))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"level":"WARN"`)
	assert.Contains(t, buf.String(), `"msg":"engine says hi"`)
}
