package middleware

import (
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Caps on header-sourced attribute values. Trace attributes are
// exported verbatim, so unbounded caller input does not belong there.
const (
	MaxRequestIDLength = 128
	MaxUserIDLength    = 64
)

var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// TracingConfig holds configuration for the tracing middleware
type TracingConfig struct {
	ServiceName string
	Enabled     bool
}

// DefaultTracingConfig returns the default tracing configuration
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		ServiceName: "logimaster-backend",
		Enabled:     true,
	}
}

// Tracing returns the tracing middleware with default configuration
func Tracing() gin.HandlerFunc {
	return TracingWithConfig(DefaultTracingConfig())
}

// TracingWithConfig wraps otelgin and stamps its server span with the
// request ID, the forwarded user and, on upload routes, the entity kind
func TracingWithConfig(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}

	base := otelgin.Middleware(cfg.ServiceName)

	return func(c *gin.Context) {
		base(c)

		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			stampSpan(c, span)
		}
	}
}

func stampSpan(c *gin.Context, span trace.Span) {
	if requestID := tracedRequestID(c); requestID != "" {
		span.SetAttributes(attribute.String("request_id", requestID))
	}
	if userID := tracedUserID(c); userID != "" {
		span.SetAttributes(attribute.String("user_id", userID))
	}
	if kind := c.Param("entity"); kind != "" {
		span.SetAttributes(attribute.String("entity_kind", kind))
	}
}

func tracedRequestID(c *gin.Context) string {
	if id := c.GetString("request_id"); id != "" {
		return id
	}
	headerID := c.GetHeader("X-Request-ID")
	if len(headerID) > MaxRequestIDLength {
		return headerID[:MaxRequestIDLength]
	}
	return headerID
}

// tracedUserID prefers the identity resolved by the identity middleware.
// A raw forwarded header is only trusted when it parses as a UUID.
func tracedUserID(c *gin.Context) string {
	if userID := c.GetString(UserIDContextKey); userID != "" {
		return userID
	}
	headerUserID := c.GetHeader(UserIDHeader)
	if headerUserID != "" && len(headerUserID) <= MaxUserIDLength && uuidRegex.MatchString(headerUserID) {
		return headerUserID
	}
	return ""
}

// SpanErrorMarker marks the server span as failed on 4xx and 5xx
// responses. It must run after the tracing middleware.
func SpanErrorMarker() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}

		statusCode := c.Writer.Status()
		if statusCode < http.StatusBadRequest {
			return
		}

		var msg string
		switch {
		case statusCode >= http.StatusInternalServerError:
			msg = "Internal Server Error"
		case statusCode == http.StatusUnauthorized:
			msg = "Unauthorized"
		case statusCode == http.StatusForbidden:
			msg = "Forbidden"
		case statusCode == http.StatusNotFound:
			msg = "Not Found"
		default:
			msg = "Client Error"
		}
		span.SetStatus(codes.Error, msg)
		span.SetAttributes(attribute.Int("http.status_code", statusCode))
	}
}

// TracingAttributeInjector re-stamps the span once the identity
// middleware has resolved the user. It must run after both.
func TracingAttributeInjector() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			stampSpan(c, span)
		}
		c.Next()
	}
}
