package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/logimaster/backend/internal/infrastructure/logger"
)

// UserIDContextKey is the gin context key for the acting user ID
const UserIDContextKey = "user_id"

// UserIDHeader carries the caller identity forwarded by the API gateway
const UserIDHeader = "X-User-ID"

// UserIdentity resolves the acting user from the forwarded identity header
// and stores it in the gin context and the request context for log
// correlation. Requests without a parseable user ID are rejected.
func UserIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(UserIDHeader)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "ERR_UNAUTHORIZED",
					"message": "Missing user identity",
				},
			})
			return
		}

		userID, err := uuid.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "ERR_UNAUTHORIZED",
					"message": "Invalid user identity",
				},
			})
			return
		}

		c.Set(UserIDContextKey, userID.String())

		ctx := c.Request.Context()
		ctx, _ = logger.WithUserID(ctx, logger.FromContext(ctx), userID.String())
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// OptionalUserIdentity resolves the user identity when present but lets
// anonymous requests through. Used on read-only endpoints.
func OptionalUserIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(UserIDHeader)
		if raw != "" {
			if userID, err := uuid.Parse(raw); err == nil {
				c.Set(UserIDContextKey, userID.String())
				ctx := c.Request.Context()
				ctx, _ = logger.WithUserID(ctx, logger.FromContext(ctx), userID.String())
				c.Request = c.Request.WithContext(ctx)
			}
		}
		c.Next()
	}
}
