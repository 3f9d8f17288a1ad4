package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logimaster/backend/internal/domain/shared"
	"github.com/logimaster/backend/internal/interfaces/http/dto"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newHandlerContext(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/", nil)
	return c, w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestGetRequestID(t *testing.T) {
	t.Run("middleware-assigned ID wins over header", func(t *testing.T) {
		c, _ := newHandlerContext(t)
		c.Set("request_id", "batch-trace-01")
		c.Request.Header.Set(RequestIDHeader, "caller-sent")

		assert.Equal(t, "batch-trace-01", getRequestID(c))
	})

	t.Run("falls back to the wire header", func(t *testing.T) {
		c, _ := newHandlerContext(t)
		c.Request.Header.Set(RequestIDHeader, "caller-sent")

		assert.Equal(t, "caller-sent", getRequestID(c))
	})

	t.Run("empty when neither is present", func(t *testing.T) {
		c, _ := newHandlerContext(t)
		assert.Empty(t, getRequestID(c))
	})
}

func TestBaseHandlerSuccess(t *testing.T) {
	h := &BaseHandler{}

	c, w := newHandlerContext(t)
	h.Success(c, map[string]string{"batch_id": "b-1"})

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeEnvelope(t, w)
	assert.True(t, resp.Success)
	assert.Nil(t, resp.Error)
}

func TestBaseHandlerSuccessWithMeta(t *testing.T) {
	h := &BaseHandler{}

	c, w := newHandlerContext(t)
	h.SuccessWithMeta(c, []string{"a", "b"}, 45, 2, 20)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeEnvelope(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(45), resp.Meta.Total)
	assert.Equal(t, 2, resp.Meta.Page)
	assert.Equal(t, 20, resp.Meta.PageSize)
	assert.Equal(t, 3, resp.Meta.TotalPages)
}

func TestBaseHandlerCreatedAndNoContent(t *testing.T) {
	h := &BaseHandler{}

	c, w := newHandlerContext(t)
	h.Created(c, map[string]string{"id": "w-1"})
	assert.Equal(t, http.StatusCreated, w.Code)

	c, w = newHandlerContext(t)
	h.NoContent(c)
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestBaseHandlerStatusHelpers(t *testing.T) {
	h := &BaseHandler{}

	tests := []struct {
		name       string
		fire       func(c *gin.Context)
		wantStatus int
		wantCode   string
	}{
		{"bad request", func(c *gin.Context) { h.BadRequest(c, "bad workbook") }, http.StatusBadRequest, dto.ErrCodeBadRequest},
		{"not found", func(c *gin.Context) { h.NotFound(c, "no such batch") }, http.StatusNotFound, dto.ErrCodeNotFound},
		{"unauthorized", func(c *gin.Context) { h.Unauthorized(c, "who are you") }, http.StatusUnauthorized, dto.ErrCodeUnauthorized},
		{"forbidden", func(c *gin.Context) { h.Forbidden(c, "not yours") }, http.StatusForbidden, dto.ErrCodeForbidden},
		{"conflict", func(c *gin.Context) { h.Conflict(c, "already uploaded") }, http.StatusConflict, dto.ErrCodeConflict},
		{"unprocessable", func(c *gin.Context) { h.UnprocessableEntity(c, dto.ErrCodeValidation, "bad rows") }, http.StatusUnprocessableEntity, dto.ErrCodeValidation},
		{"internal", func(c *gin.Context) { h.InternalError(c, "boom") }, http.StatusInternalServerError, dto.ErrCodeInternal},
		{"rate limited", func(c *gin.Context) { h.TooManyRequests(c, "slow down") }, http.StatusTooManyRequests, dto.ErrCodeRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newHandlerContext(t)
			tt.fire(c)

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decodeEnvelope(t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestBaseHandlerErrorCarriesRequestID(t *testing.T) {
	h := &BaseHandler{}

	c, w := newHandlerContext(t)
	c.Set("request_id", "req-upload-9")
	h.BadRequest(c, "bad workbook")

	resp := decodeEnvelope(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "req-upload-9", resp.Error.RequestID)
}

func TestBaseHandlerErrorWithCode(t *testing.T) {
	h := &BaseHandler{}

	c, w := newHandlerContext(t)
	h.ErrorWithCode(c, dto.ErrCodeNotFound, "batch vanished")

	assert.Equal(t, http.StatusNotFound, w.Code)
	resp := decodeEnvelope(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeNotFound, resp.Error.Code)
	assert.Equal(t, "batch vanished", resp.Error.Message)
}

func TestBaseHandlerValidationError(t *testing.T) {
	h := &BaseHandler{}

	c, w := newHandlerContext(t)
	h.ValidationError(c, []dto.ValidationDetail{
		{Field: "entity_kind", Message: "must be one of warehouses transporters drivers vehicles"},
		{Field: "page", Message: "must be at least 1"},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeEnvelope(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	require.Len(t, resp.Error.Details, 2)
	assert.Equal(t, "entity_kind", resp.Error.Details[0].Field)
}

func TestBaseHandlerHandleError(t *testing.T) {
	h := &BaseHandler{}

	t.Run("nil error writes nothing", func(t *testing.T) {
		c, w := newHandlerContext(t)
		h.HandleError(c, nil)
		assert.Empty(t, w.Body.String())
	})

	t.Run("domain error maps code to status", func(t *testing.T) {
		c, w := newHandlerContext(t)
		h.HandleError(c, shared.NewDomainError("NOT_FOUND", "vehicle type unknown"))

		assert.Equal(t, http.StatusNotFound, w.Code)
		resp := decodeEnvelope(t, w)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "vehicle type unknown", resp.Error.Message)
	})

	t.Run("unknown error becomes 500", func(t *testing.T) {
		c, w := newHandlerContext(t)
		h.HandleError(c, assert.AnError)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		resp := decodeEnvelope(t, w)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeInternal, resp.Error.Code)
	})
}

func TestBaseHandlerHandleDomainError(t *testing.T) {
	h := &BaseHandler{}

	c, w := newHandlerContext(t)
	h.HandleDomainError(c, shared.ErrDuplicateUpload)

	assert.Equal(t, http.StatusConflict, w.Code)
	resp := decodeEnvelope(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeDuplicateUpload, resp.Error.Code)
}
