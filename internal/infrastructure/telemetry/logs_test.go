package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLoggerProvider_Disabled(t *testing.T) {
	lp, err := NewLoggerProvider(context.Background(), LogsConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, lp)

	assert.False(t, lp.IsEnabled())
	assert.NoError(t, lp.ForceFlush(context.Background()))
	assert.NoError(t, lp.Shutdown(context.Background()))
}

func TestLoggerProvider_BridgeDisabledReturnsBase(t *testing.T) {
	lp, err := NewLoggerProvider(context.Background(), LogsConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)

	base := zap.NewNop()
	assert.Same(t, base, lp.Bridge(base, zapcore.InfoLevel))
}

func TestLevelFilterCore(t *testing.T) {
	inner, logs := observer.New(zapcore.DebugLevel)
	core := &levelFilterCore{Core: inner, minLevel: zapcore.WarnLevel}
	logger := zap.New(core)

	logger.Debug("batch parsed")
	logger.Info("batch validated")
	logger.Warn("report upload retried")
	logger.Error("record creation failed")

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "report upload retried", logs.All()[0].Message)
	assert.Equal(t, "record creation failed", logs.All()[1].Message)
}

func TestLevelFilterCore_WithKeepsFilter(t *testing.T) {
	inner, logs := observer.New(zapcore.DebugLevel)
	core := &levelFilterCore{Core: inner, minLevel: zapcore.ErrorLevel}

	child := core.With([]zapcore.Field{zap.String("entity_kind", "warehouse")})
	logger := zap.New(child)

	logger.Warn("still below the floor")
	logger.Error("row rejected")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "row rejected", entry.Message)
	assert.Equal(t, "warehouse", entry.ContextMap()["entity_kind"])
}

func TestLevelFilterCore_CheckBelowFloor(t *testing.T) {
	inner, logs := observer.New(zapcore.DebugLevel)
	core := &levelFilterCore{Core: inner, minLevel: zapcore.InfoLevel}

	entry := zapcore.Entry{Level: zapcore.DebugLevel, Message: "row skipped"}
	assert.Nil(t, core.Check(entry, nil))
	assert.Equal(t, 0, logs.Len())
}
