package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowengine/engine/internal/config"
)

func newTestLogger(buf *bytes.Buffer, level string) *Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return &Logger{zl: zerolog.New(buf).Level(lvl)}
}

func TestNew_AllLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		l := New(config.LoggingConfig{Level: level, Format: "json"})
		assert.NotNil(t, l)
	}
}

func TestNew_ConsoleFormat(t *testing.T) {
	l := New(config.LoggingConfig{Level: "info", Format: "console"})
	assert.NotNil(t, l)
}

func TestLogger_With_ChainedCalls(t *testing.T) {
	base := New(config.LoggingConfig{Level: "info", Format: "json"})
	l1 := base.With("key1", "value1")
	l2 := l1.With("key2", "value2")
	assert.NotNil(t, l1)
	assert.NotNil(t, l2)
}

func TestLogger_Info_Basic(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf, "info")

	l.Info("test info message")

	var data map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &data))
	assert.Equal(t, "test info message", data["message"])
}

func TestLogger_InfoWithAttributes(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf, "info")

	l.Info("info with attrs", "user", "alice", "count", 100)

	var data map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &data))
	assert.Equal(t, "alice", data["user"])
	assert.Equal(t, float64(100), data["count"])
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf, "warn")

	l.Debug("debug message")
	l.Info("info message")
	l.Warn("warn message")
	l.Error("error message")

	output := buf.String()
	assert.NotContains(t, output, "debug message")
	assert.NotContains(t, output, "info message")
	assert.Contains(t, output, "warn message")
	assert.Contains(t, output, "error message")
}

func TestLogger_Integration_CompleteFlow(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf, "debug")

	l.Debug("step 1")
	l.Info("step 2")
	l.Warn("step 3")
	l.Error("step 4")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 4)
}

func TestLogger_With_AppliesToOutput(t *testing.T) {
	var buf bytes.Buffer
	base := newTestLogger(&buf, "info")
	child := base.With("workflow_id", "wf-1")

	child.Info("enrolled")

	var data map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &data))
	assert.Equal(t, "wf-1", data["workflow_id"])
}

func TestDefault_ReturnsLogger(t *testing.T) {
	assert.NotNil(t, Default())
}

func TestSetDefault_Success(t *testing.T) {
	original := Default()
	newLogger := New(config.LoggingConfig{Level: "debug", Format: "json"})
	SetDefault(newLogger)
	assert.Equal(t, newLogger, Default())
	SetDefault(original)
}

func TestGlobalLoggingDoesNotPanic(t *testing.T) {
	Debug("global debug test")
	Info("global info test")
	Warn("global warn test")
	Error("global error test")
}
