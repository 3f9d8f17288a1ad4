package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func identityTestRouter(mw gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(mw)
	router.GET("/test", func(c *gin.Context) {
		userID, _ := c.Get(UserIDContextKey)
		c.JSON(http.StatusOK, gin.H{"user_id": userID})
	})
	return router
}

func TestUserIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("stores forwarded user ID in context", func(t *testing.T) {
		router := identityTestRouter(UserIdentity())
		userID := uuid.New()

		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set(UserIDHeader, userID.String())
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), userID.String())
	})

	t.Run("rejects missing identity header", func(t *testing.T) {
		router := identityTestRouter(UserIdentity())

		req := httptest.NewRequest("GET", "/test", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_UNAUTHORIZED")
	})

	t.Run("rejects unparseable user ID", func(t *testing.T) {
		router := identityTestRouter(UserIdentity())

		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set(UserIDHeader, "not-a-uuid")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid user identity")
	})
}

func TestOptionalUserIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("passes anonymous requests through", func(t *testing.T) {
		router := identityTestRouter(OptionalUserIdentity())

		req := httptest.NewRequest("GET", "/test", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("stores identity when present", func(t *testing.T) {
		router := identityTestRouter(OptionalUserIdentity())
		userID := uuid.New()

		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set(UserIDHeader, userID.String())
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), userID.String())
	})

	t.Run("ignores malformed identity", func(t *testing.T) {
		router := identityTestRouter(OptionalUserIdentity())

		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set(UserIDHeader, "garbage")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}
