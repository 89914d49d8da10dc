package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zap.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zap.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zap.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zap.InfoLevel, parseLevel(""))
	assert.Equal(t, zap.InfoLevel, parseLevel("verbose"))
}

func TestInit(t *testing.T) {
	prev := log
	t.Cleanup(func() { log = prev })

	require.NoError(t, Init("production", "warn"))
	assert.False(t, Get().Core().Enabled(zap.InfoLevel))
	assert.True(t, Get().Core().Enabled(zap.WarnLevel))

	require.NoError(t, Init("development", "debug"))
	assert.True(t, Get().Core().Enabled(zap.DebugLevel))
}

func TestPackageHelpers(t *testing.T) {
	prev := log
	t.Cleanup(func() { log = prev })

	core, logs := observer.New(zapcore.DebugLevel)
	log = zap.New(core)

	Info("starting", zap.String("addr", ":8080"))
	Warn("seeding failed")
	Error("server failed")
	Named("rates").Info("loaded")

	entries := logs.All()
	require.Len(t, entries, 4)
	assert.Equal(t, "starting", entries[0].Message)
	assert.Equal(t, ":8080", entries[0].ContextMap()["addr"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.Equal(t, "rates", entries[3].LoggerName)
}
