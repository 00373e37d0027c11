package logging

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel(" WARN "))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zerolog.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("verbose"))
}

func TestConsoleWritesToConfiguredOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithConfig(LogConfig{Level: "warn", Console: true, Out: &buf})

	logger.Info().Msg("hidden")
	clog := WithCompany(logger, "ACME")
	clog.Warn().Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "ACME")
}

func TestFileWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "run.log")
	logger := NewLoggerWithConfig(LogConfig{
		Level:    "debug",
		File:     true,
		FilePath: path,
		MaxSize:  1,
	})
	LogStage(WithRun(logger, "run-1"), "read", 3, time.Millisecond)

	assert.FileExists(t, path)
}

func TestNoWritersDiscards(t *testing.T) {
	logger := NewLoggerWithConfig(LogConfig{Level: "info"})
	require.NotPanics(t, func() { logger.Info().Msg("nothing") })
}

func TestContextLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	ctx := WithLogger(context.Background(), logger)
	fromCtx := FromContext(ctx)
	fromCtx.Info().Msg("from ctx")
	assert.Contains(t, buf.String(), "from ctx")

	nop := FromContext(context.Background())
	nop.Info().Msg("dropped")
	assert.NotContains(t, buf.String(), "dropped")
}
