package telemetry

import (
	"context"
	"runtime/pprof"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithProfilingLabels(t *testing.T) {
	t.Run("labels visible inside fn", func(t *testing.T) {
		var kind string
		WithProfilingLabels(context.Background(), map[string]string{
			ProfilingLabelEntityKind: "warehouse",
			ProfilingLabelRoute:      "/api/v1/bulk-uploads",
		}, func(ctx context.Context) {
			kind, _ = pprof.Label(ctx, ProfilingLabelEntityKind)
		})
		assert.Equal(t, "warehouse", kind)
	})

	t.Run("empty map runs fn unlabelled", func(t *testing.T) {
		ran := false
		WithProfilingLabels(context.Background(), nil, func(ctx context.Context) {
			ran = true
			_, ok := pprof.Label(ctx, ProfilingLabelRoute)
			assert.False(t, ok)
		})
		assert.True(t, ran)
	})

	t.Run("high-cardinality labels are dropped", func(t *testing.T) {
		WithProfilingLabels(context.Background(), map[string]string{
			"batch_id":               "0c1d9f34",
			ProfilingLabelEntityKind: "driver",
		}, func(ctx context.Context) {
			_, ok := pprof.Label(ctx, "batch_id")
			assert.False(t, ok)
			kind, _ := pprof.Label(ctx, ProfilingLabelEntityKind)
			assert.Equal(t, "driver", kind)
		})
	})
}

func TestSanitizeLabels(t *testing.T) {
	pairs := sanitizeLabels(map[string]string{
		"Entity Kind": "vehicle",
		"route":       "/api/v1/bulk-uploads",
		"":            "dropped",
		"empty":       "",
		"user_id":     "dropped too",
	})

	require.Equal(t, []string{
		"entity_kind", "vehicle",
		"route", "/api/v1/bulk-uploads",
	}, pairs)
}

func TestSanitizeLabels_TruncatesLongValues(t *testing.T) {
	long := strings.Repeat("z", MaxLabelValueLength+40)
	pairs := sanitizeLabels(map[string]string{"operation": long})

	require.Len(t, pairs, 2)
	assert.Len(t, pairs[1], MaxLabelValueLength)
}

func TestSanitizeLabelKey(t *testing.T) {
	assert.Equal(t, "upload_handler", sanitizeLabelKey("Upload Handler"))
	assert.Equal(t, "entity_kind", sanitizeLabelKey("entity-kind"))
	assert.Equal(t, "route2", sanitizeLabelKey("Route#2!"))
	assert.Equal(t, "", sanitizeLabelKey("!!!"))
}
