package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	logger, err := New(DefaultConfig())
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = New(Config{Level: "loud"})
	assert.Error(t, err)

	assert.NotNil(t, NewDevelopment())
	assert.NotNil(t, OrNop(nil).Logger)
	assert.NotNil(t, Wrap(nil).Logger)
}

func TestPageLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		"warn":    zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"fatal":   zapcore.ErrorLevel,
		"":        zapcore.ErrorLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, PageLevel(in), in)
	}
}

func TestPage(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := Wrap(zap.New(core))

	logger.Page("warning", "careful", map[string]any{"n": 1})
	logger.Page("nonsense", "boom", nil)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "careful", entries[0].Message)
	assert.Equal(t, "page", entries[0].ContextMap()["origin"])
	assert.Contains(t, entries[0].ContextMap(), "data")
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.NotContains(t, entries[1].ContextMap(), "data")
}
