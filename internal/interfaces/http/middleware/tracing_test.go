package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func tracingHarness(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return recorder
}

func spanAttr(span sdktrace.ReadOnlySpan, key string) (string, bool) {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value.Emit(), true
		}
	}
	return "", false
}

func TestTracingWithConfig(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := tracingHarness(t)

	r := gin.New()
	r.Use(RequestID())
	r.Use(TracingWithConfig(TracingConfig{ServiceName: "logimaster-backend", Enabled: true}))
	r.GET("/api/v1/bulk-uploads/:entity/template", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/bulk-uploads/vehicles/template", nil)
	req.Header.Set("X-Request-ID", "req-veh-1")
	r.ServeHTTP(w, req)

	spans := recorder.Ended()
	require.Len(t, spans, 1)

	kind, ok := spanAttr(spans[0], "entity_kind")
	require.True(t, ok)
	assert.Equal(t, "vehicles", kind)

	reqID, ok := spanAttr(spans[0], "request_id")
	require.True(t, ok)
	assert.Equal(t, "req-veh-1", reqID)
}

func TestTracingWithConfig_Disabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := tracingHarness(t)

	r := gin.New()
	r.Use(TracingWithConfig(TracingConfig{Enabled: false}))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Empty(t, recorder.Ended())
}

func TestSpanErrorMarker(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name    string
		status  int
		failed  bool
		message string
	}{
		{"success is untouched", http.StatusOK, false, ""},
		{"not found", http.StatusNotFound, true, "Not Found"},
		{"unprocessable row", http.StatusUnprocessableEntity, true, "Client Error"},
		{"server failure", http.StatusInternalServerError, true, "Internal Server Error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			recorder := tracingHarness(t)

			r := gin.New()
			r.Use(Tracing())
			r.Use(SpanErrorMarker())
			r.GET("/api/v1/bulk-uploads/:id", func(c *gin.Context) {
				c.Status(tc.status)
			})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/bulk-uploads/42", nil))

			spans := recorder.Ended()
			require.Len(t, spans, 1)
			if tc.failed {
				assert.Equal(t, codes.Error, spans[0].Status().Code)
				assert.Equal(t, tc.message, spans[0].Status().Description)
			} else {
				assert.NotEqual(t, codes.Error, spans[0].Status().Code)
			}
		})
	}
}

func TestTracingAttributeInjector(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := tracingHarness(t)

	r := gin.New()
	r.Use(Tracing())
	r.Use(OptionalUserIdentity())
	r.Use(TracingAttributeInjector())
	r.GET("/api/v1/bulk-uploads", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/bulk-uploads", nil)
	req.Header.Set(UserIDHeader, "9f6c7b1a-2f43-4b7e-9a61-000000000001")
	r.ServeHTTP(w, req)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	userID, ok := spanAttr(spans[0], "user_id")
	require.True(t, ok)
	assert.Equal(t, "9f6c7b1a-2f43-4b7e-9a61-000000000001", userID)
}

func TestTracedRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("context value wins over header", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		c.Request.Header.Set("X-Request-ID", "from-header")
		c.Set("request_id", "from-context")

		assert.Equal(t, "from-context", tracedRequestID(c))
	})

	t.Run("oversized header is truncated", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		c.Request.Header.Set("X-Request-ID", strings.Repeat("a", 300))

		assert.Len(t, tracedRequestID(c), MaxRequestIDLength)
	})
}

func TestTracedUserID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newCtx := func() *gin.Context {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		return c
	}

	t.Run("resolved identity wins", func(t *testing.T) {
		c := newCtx()
		c.Set(UserIDContextKey, "resolved-user")
		c.Request.Header.Set(UserIDHeader, "9f6c7b1a-2f43-4b7e-9a61-000000000001")

		assert.Equal(t, "resolved-user", tracedUserID(c))
	})

	t.Run("valid forwarded uuid is accepted", func(t *testing.T) {
		c := newCtx()
		c.Request.Header.Set(UserIDHeader, "9f6c7b1a-2f43-4b7e-9a61-000000000001")

		assert.Equal(t, "9f6c7b1a-2f43-4b7e-9a61-000000000001", tracedUserID(c))
	})

	t.Run("non uuid header is dropped", func(t *testing.T) {
		c := newCtx()
		c.Request.Header.Set(UserIDHeader, "robert'); DROP TABLE warehouses;--")

		assert.Empty(t, tracedUserID(c))
	})

	t.Run("oversized header is dropped", func(t *testing.T) {
		c := newCtx()
		c.Request.Header.Set(UserIDHeader, strings.Repeat("9f6c7b1a-", 20))

		assert.Empty(t, tracedUserID(c))
	})
}
