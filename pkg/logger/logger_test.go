package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerIsCachedByName(t *testing.T) {
	a := NewLogger("benchvm.test.cached")
	b := NewLogger("benchvm.test.cached")
	assert.Same(t, a, b)
}

func TestJsonOutputCarriesScope(t *testing.T) {
	l := NewLogger("benchvm.test.json")
	var buf bytes.Buffer
	l.SetOutput(&buf)
	l.EnableJsonOutput(true)
	l.SetLogLevel(InfoLevel)

	l.WithFields(map[string]any{"vm": "graal-js"}).Info("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "benchvm.test.json", line[logFieldScope])
	assert.Equal(t, "graal-js", line["vm"])
	assert.Equal(t, "hello", line[logFieldMessage])
	assert.Equal(t, "info", line[logFieldLevel])
}

func TestLogLevelFiltering(t *testing.T) {
	l := NewLogger("benchvm.test.level")
	var buf bytes.Buffer
	l.SetOutput(&buf)
	l.SetLogLevel(WarnLevel)

	l.Info("dropped")
	assert.Empty(t, buf.String())
	assert.False(t, l.IsLogLevelEnabled(DebugLevel))
	assert.True(t, l.IsLogLevelEnabled(ErrorLevel))
	assert.Equal(t, "warning", l.LogLevel())
}

func TestApplyConfigToLoggersRejectsUnknownLevel(t *testing.T) {
	err := ApplyConfigToLoggers(&Config{LogLevel: "loud"})
	assert.Error(t, err)
}

func TestFromContextOrDefault(t *testing.T) {
	def := NewLogger("benchvm.test.default")
	assert.Same(t, def, FromContextOrDefault(context.Background(), def))

	l := NewLogger("benchvm.test.ctx").WithFields(map[string]any{"run": "r1"})
	ctx := NewContext(context.Background(), l)
	assert.Same(t, l, FromContextOrDefault(ctx, def))
}

func TestToLogLevel(t *testing.T) {
	assert.Equal(t, WarnLevel, toLogLevel("WARN"))
	assert.Equal(t, DebugLevel, toLogLevel("debug"))
	assert.Equal(t, UndefinedLevel, toLogLevel("warning"))
}

func TestReadConfigFromFlags(t *testing.T) {
	fs := ParseFlags().FlagSet()
	require.NoError(t, fs.Parse([]string{"--log-level", "debug", "--log-json-out", "--log-app-id", "bench-1"}))

	cfg, err := readConfig(fs)
	require.NoError(t, err)
	assert.Equal(t, Config{AppId: "bench-1", LogJsonOutput: true, LogLevel: "debug"}, cfg)

	_, err = readConfig(pflag.NewFlagSet("empty", pflag.ContinueOnError))
	assert.ErrorContains(t, err, "log-level")
}
