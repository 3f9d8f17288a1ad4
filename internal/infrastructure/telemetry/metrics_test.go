package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

func TestNewMeterProvider_Disabled(t *testing.T) {
	mp, err := NewMeterProvider(context.Background(), MetricsConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, mp)

	assert.False(t, mp.IsEnabled())
	assert.NoError(t, mp.ForceFlush(context.Background()))
	assert.NoError(t, mp.Shutdown(context.Background()))
	assert.NotNil(t, mp.Meter("bulk_upload"), "disabled provider still hands out a meter")
}

func TestCounter(t *testing.T) {
	reader, provider := newTestMeter(t)
	meter := provider.Meter("test")

	c, err := NewCounter(meter, "upload_batches_total", "Accepted batches", "{batch}")
	require.NoError(t, err)

	ctx := context.Background()
	c.Inc(ctx, AttrEntityKind.String("warehouse"))
	c.Add(ctx, 4, AttrEntityKind.String("driver"))

	rm := collect(t, reader)
	require.True(t, findMetric(rm, "upload_batches_total"))

	sum := sumOf(t, rm, "upload_batches_total")
	assert.Equal(t, int64(5), sum)
}

func TestHistogram(t *testing.T) {
	reader, provider := newTestMeter(t)
	meter := provider.Meter("test")

	h, err := NewHistogram(meter, HistogramOpts{
		Name:        "batch_processing_duration_seconds",
		Description: "Whole-batch wall time",
		Unit:        "s",
		Boundaries:  BatchDurationBuckets,
	})
	require.NoError(t, err)

	ctx := context.Background()
	h.Record(ctx, 1.5, AttrEntityKind.String("vehicle"))
	h.RecordDuration(ctx, 30*time.Second, AttrEntityKind.String("vehicle"))

	rm := collect(t, reader)
	assert.True(t, findMetric(rm, "batch_processing_duration_seconds"))
}

func TestGauges(t *testing.T) {
	reader, provider := newTestMeter(t)
	meter := provider.Meter("test")

	g, err := NewGauge(meter, "active_batches", "Batches in flight", "{batch}")
	require.NoError(t, err)
	fg, err := NewFloatGauge(meter, "report_store_usage_ratio", "Report store fill level", "1")
	require.NoError(t, err)

	ctx := context.Background()
	g.Record(ctx, 3)
	fg.Record(ctx, 0.42)

	rm := collect(t, reader)
	assert.True(t, findMetric(rm, "active_batches"))
	assert.True(t, findMetric(rm, "report_store_usage_ratio"))
}

func sumOf(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			data, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "expected an int64 sum for %s", name)
			var total int64
			for _, dp := range data.DataPoints {
				total += dp.Value
			}
			return total
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}
