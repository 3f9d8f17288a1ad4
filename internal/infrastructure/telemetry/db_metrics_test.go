package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newTestMeter(t *testing.T) (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	return reader, provider
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) bool {
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return true
			}
		}
	}
	return false
}

func TestDefaultDBMetricsConfig(t *testing.T) {
	cfg := DefaultDBMetricsConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 200*time.Millisecond, cfg.SlowQueryThreshold)
	assert.Equal(t, 15*time.Second, cfg.PoolStatsInterval)
}

func TestNewDBMetrics_AppliesDefaults(t *testing.T) {
	_, provider := newTestMeter(t)

	m, err := NewDBMetrics(provider.Meter("test"), DBMetricsConfig{}, nil)
	require.NoError(t, err)

	assert.Equal(t, 200*time.Millisecond, m.config.SlowQueryThreshold)
	assert.Equal(t, 15*time.Second, m.config.PoolStatsInterval)
	assert.NotNil(t, m.logger)
}

func TestDBMetrics_RecordQuery(t *testing.T) {
	ctx := context.Background()

	t.Run("counts query and latency", func(t *testing.T) {
		reader, provider := newTestMeter(t)
		m, err := NewDBMetrics(provider.Meter("test"), DefaultDBMetricsConfig(), zap.NewNop())
		require.NoError(t, err)

		m.RecordQuery(ctx, "SELECT", "upload_batches", 50*time.Millisecond, nil)

		rm := collect(t, reader)
		assert.True(t, findMetric(rm, "db_query_total"))
		assert.True(t, findMetric(rm, "db_query_duration_seconds"))
		assert.False(t, findMetric(rm, "db_slow_query_total"), "fast query must not count as slow")
	})

	t.Run("counts slow queries per table", func(t *testing.T) {
		reader, provider := newTestMeter(t)
		m, err := NewDBMetrics(provider.Meter("test"), DBMetricsConfig{
			Enabled:            true,
			SlowQueryThreshold: 100 * time.Millisecond,
		}, zap.NewNop())
		require.NoError(t, err)

		m.RecordQuery(ctx, "INSERT", "validation_records", 250*time.Millisecond, nil)

		rm := collect(t, reader)
		assert.True(t, findMetric(rm, "db_slow_query_total"))
	})
}

func TestDBMetrics_PoolStats(t *testing.T) {
	reader, provider := newTestMeter(t)
	m, err := NewDBMetrics(provider.Meter("test"), DefaultDBMetricsConfig(), zap.NewNop())
	require.NoError(t, err)

	mockDB, _, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	m.SetSQLDB(mockDB)
	m.collectPoolStats(context.Background())

	rm := collect(t, reader)
	assert.True(t, findMetric(rm, "db_pool_connections"))
	assert.True(t, findMetric(rm, "db_pool_connections_max"))
}

func TestDBMetrics_StopIsIdempotent(t *testing.T) {
	_, provider := newTestMeter(t)
	m, err := NewDBMetrics(provider.Meter("test"), DefaultDBMetricsConfig(), zap.NewNop())
	require.NoError(t, err)

	mockDB, _, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	m.SetSQLDB(mockDB)
	m.StartPoolStatsCollection(context.Background())

	m.Stop()
	m.Stop()
}

func TestOperationOf(t *testing.T) {
	cases := map[string]string{
		"SELECT * FROM warehouses":         "SELECT",
		"  insert into drivers values (1)": "INSERT",
		"UPDATE upload_batches SET status": "UPDATE",
		"delete from validation_records":   "DELETE",
		"TRUNCATE TABLE storage_zones":     "OTHER",
		"":                                 "OTHER",
	}
	for sql, want := range cases {
		assert.Equal(t, want, operationOf(sql), "sql: %q", sql)
	}
}

func newMockGorm(t *testing.T) *gorm.DB {
	t.Helper()
	mockDB, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDB}), &gorm.Config{})
	require.NoError(t, err)
	return gormDB
}

func TestDBMetricsPlugin_Initialize(t *testing.T) {
	_, provider := newTestMeter(t)
	m, err := NewDBMetrics(provider.Meter("test"), DefaultDBMetricsConfig(), zap.NewNop())
	require.NoError(t, err)

	gormDB := newMockGorm(t)
	plugin := NewDBMetricsPlugin(m, zap.NewNop())
	assert.Equal(t, "db_metrics", plugin.Name())
	require.NoError(t, gormDB.Use(plugin))
}

func TestRegisterDBMetrics(t *testing.T) {
	logger := zap.NewNop()

	t.Run("nil when disabled", func(t *testing.T) {
		m, err := RegisterDBMetrics(newMockGorm(t), nil, DBMetricsConfig{Enabled: false}, logger)
		require.NoError(t, err)
		assert.Nil(t, m)
	})

	t.Run("nil without a meter provider", func(t *testing.T) {
		m, err := RegisterDBMetrics(newMockGorm(t), nil, DBMetricsConfig{Enabled: true}, logger)
		require.NoError(t, err)
		assert.Nil(t, m)
	})

	t.Run("registers when enabled", func(t *testing.T) {
		_, sdkProvider := newTestMeter(t)
		mp := &MeterProvider{
			provider: sdkProvider,
			logger:   logger,
			config:   MetricsConfig{Enabled: true},
		}

		m, err := RegisterDBMetrics(newMockGorm(t), mp, DefaultDBMetricsConfig(), logger)
		require.NoError(t, err)
		require.NotNil(t, m)
		defer m.Stop()
	})
}
