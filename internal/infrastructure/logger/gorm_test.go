package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func newObservedGormLogger(level gormlogger.LogLevel, opts ...GormLoggerOption) (*GormLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return NewGormLogger(zap.New(core), level, opts...), logs
}

func insertStatement() (string, int64) {
	return "INSERT INTO upload_batches (id, status) VALUES ($1, $2)", 1
}

func TestGormLogger_Trace(t *testing.T) {
	t.Run("query logged at debug", func(t *testing.T) {
		gl, logs := newObservedGormLogger(gormlogger.Info)
		gl.Trace(context.Background(), time.Now(), insertStatement, nil)

		require.Equal(t, 1, logs.Len())
		entry := logs.All()[0]
		assert.Equal(t, "SQL Query", entry.Message)
		assert.Equal(t, zap.DebugLevel, entry.Level)
		assert.Contains(t, entry.ContextMap()["sql"], "upload_batches")
	})

	t.Run("error logged with error field", func(t *testing.T) {
		gl, logs := newObservedGormLogger(gormlogger.Error)
		gl.Trace(context.Background(), time.Now(), insertStatement, errors.New("duplicate key"))

		require.Equal(t, 1, logs.Len())
		assert.Equal(t, "SQL Error", logs.All()[0].Message)
		assert.Equal(t, zap.ErrorLevel, logs.All()[0].Level)
	})

	t.Run("record not found is suppressed", func(t *testing.T) {
		gl, logs := newObservedGormLogger(gormlogger.Error)
		gl.Trace(context.Background(), time.Now(), insertStatement, gormlogger.ErrRecordNotFound)

		assert.Zero(t, logs.Len())
	})

	t.Run("record not found logged when configured", func(t *testing.T) {
		gl, logs := newObservedGormLogger(gormlogger.Error, WithIgnoreRecordNotFoundError(false))
		gl.Trace(context.Background(), time.Now(), insertStatement, gormlogger.ErrRecordNotFound)

		assert.Equal(t, 1, logs.Len())
	})

	t.Run("slow query logged as warning", func(t *testing.T) {
		gl, logs := newObservedGormLogger(gormlogger.Warn, WithSlowThreshold(time.Millisecond))
		gl.Trace(context.Background(), time.Now().Add(-50*time.Millisecond), insertStatement, nil)

		require.Equal(t, 1, logs.Len())
		assert.Equal(t, zap.WarnLevel, logs.All()[0].Level)
		assert.Contains(t, logs.All()[0].Message, "SLOW SQL")
	})

	t.Run("silent level suppresses everything", func(t *testing.T) {
		gl, logs := newObservedGormLogger(gormlogger.Silent)
		gl.Trace(context.Background(), time.Now(), insertStatement, errors.New("boom"))

		assert.Zero(t, logs.Len())
	})

	t.Run("upload identifiers ride along", func(t *testing.T) {
		gl, logs := newObservedGormLogger(gormlogger.Info)

		ctx := context.WithValue(context.Background(), RequestIDKey, "req-77")
		ctx = context.WithValue(ctx, BatchIDKey, "batch-20260831")
		gl.Trace(ctx, time.Now(), insertStatement, nil)

		fields := logs.All()[0].ContextMap()
		assert.Equal(t, "req-77", fields["request_id"])
		assert.Equal(t, "batch-20260831", fields["batch_id"])
	})
}

func TestGormLogger_LogMode(t *testing.T) {
	gl, _ := newObservedGormLogger(gormlogger.Warn)
	quiet := gl.LogMode(gormlogger.Silent)

	assert.NotSame(t, gl, quiet)
	assert.Equal(t, gormlogger.Warn, gl.logLevel)
}

func TestGormLogger_Levels(t *testing.T) {
	gl, logs := newObservedGormLogger(gormlogger.Info)

	gl.Info(context.Background(), "migrating %s", "warehouses")
	gl.Warn(context.Background(), "retrying %s", "insert")
	gl.Error(context.Background(), "connection lost")

	assert.Equal(t, 3, logs.Len())
}

func TestMapGormLogLevel(t *testing.T) {
	cases := map[string]gormlogger.LogLevel{
		"silent":  gormlogger.Silent,
		"error":   gormlogger.Error,
		"warn":    gormlogger.Warn,
		"info":    gormlogger.Info,
		"debug":   gormlogger.Info,
		"unknown": gormlogger.Warn,
	}
	for in, want := range cases {
		assert.Equal(t, want, MapGormLogLevel(in), in)
	}
}
