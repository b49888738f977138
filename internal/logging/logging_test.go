package logging

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	logger, err := New(Config{Level: "debug", Format: "json"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	logger, err = New(Config{})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))

	_, err = New(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestDegraded(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	logger := Component(zap.New(core), "ranker")

	Degraded(logger, "candidates.rank", errors.New("timeout"), zap.Int("candidates", 3))

	entries := observed.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "ranker", ctx[FieldComponent])
	assert.Equal(t, "candidates.rank", ctx[FieldOperation])
	assert.Equal(t, true, ctx["degraded"])
	assert.Equal(t, "timeout", ctx["error"])
	assert.EqualValues(t, 3, ctx["candidates"])
}

func TestNilLoggerHelpers(t *testing.T) {
	assert.NotPanics(t, func() {
		WithBatch(nil, "b1").Info("x")
		Degraded(nil, "op", errors.New("e"))
	})
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "héllo", Truncate("  héllo  ", 10))
	assert.Equal(t, "hé...", Truncate("héllo", 2))
	assert.Equal(t, "", Truncate("abc", 0))
}
