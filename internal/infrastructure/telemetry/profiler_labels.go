package telemetry

import (
	"context"
	"maps"
	"sort"
	"strings"

	"github.com/grafana/pyroscope-go"
)

// Label keys used when slicing profiles in Pyroscope
const (
	ProfilingLabelController = "controller"
	ProfilingLabelRoute      = "route"
	ProfilingLabelMethod     = "method"
	ProfilingLabelEntityKind = "entity_kind"
	ProfilingLabelOperation  = "operation"
)

// MaxLabelValueLength caps label values; longer ones are truncated
const MaxLabelValueLength = 128

// highCardinalityLabels are dropped outright. A label per batch or per
// request would blow up series count on the profiling side. entity_kind
// is fine: there are only a handful of upload kinds.
var highCardinalityLabels = map[string]bool{
	"user_id":    true,
	"request_id": true,
	"batch_id":   true,
	"trace_id":   true,
	"span_id":    true,
	"session_id": true,
}

// WithProfilingLabels runs fn with the given pprof labels attached, so
// samples taken inside can be filtered by route, handler or entity kind.
// The map is copied and sanitized first; with no usable labels fn runs
// unlabelled.
func WithProfilingLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	if len(labels) == 0 {
		fn(ctx)
		return
	}

	copied := make(map[string]string, len(labels))
	maps.Copy(copied, labels)

	pairs := sanitizeLabels(copied)
	if len(pairs) == 0 {
		fn(ctx)
		return
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(pairs...), fn)
}

// sanitizeLabels drops empty and high-cardinality entries, truncates
// long values and returns key/value pairs in deterministic order
func sanitizeLabels(labels map[string]string) []string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(labels)*2)
	for _, key := range keys {
		value := labels[key]
		if key == "" || value == "" || highCardinalityLabels[key] {
			continue
		}
		if len(value) > MaxLabelValueLength {
			value = value[:MaxLabelValueLength]
		}
		cleaned := sanitizeLabelKey(key)
		if cleaned == "" {
			continue
		}
		pairs = append(pairs, cleaned, value)
	}
	return pairs
}

// sanitizeLabelKey forces keys into snake_case ascii
func sanitizeLabelKey(key string) string {
	key = strings.ToLower(key)
	key = strings.ReplaceAll(key, " ", "_")
	key = strings.ReplaceAll(key, "-", "_")

	out := make([]byte, 0, len(key))
	for i := 0; i < len(key); i++ {
		c := key[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_' {
			out = append(out, c)
		}
	}
	return string(out)
}
