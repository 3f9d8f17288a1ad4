package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logimaster/backend/internal/interfaces/http/dto"
)

type listQuery struct {
	EntityKind string `form:"entity_kind" binding:"omitempty,oneof=warehouses transporters drivers vehicles"`
	Page       int    `form:"page" binding:"omitempty,min=1"`
}

func TestSetupValidator_UsesWireFieldNames(t *testing.T) {
	SetupValidator()

	v, ok := binding.Validator.Engine().(*validator.Validate)
	require.True(t, ok)

	err := v.Struct(listQuery{EntityKind: "containers"})
	require.Error(t, err)

	verrs, ok := err.(validator.ValidationErrors)
	require.True(t, ok)
	require.Len(t, verrs, 1)
	assert.Equal(t, "entity_kind", verrs[0].Field())
}

func TestFormatValidationErrors(t *testing.T) {
	SetupValidator()
	v, _ := binding.Validator.Engine().(*validator.Validate)

	err := v.Struct(listQuery{EntityKind: "containers", Page: -1})
	require.Error(t, err)

	resp := FormatValidationErrors(err, "req-42")

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-42", resp.Error.RequestID)
	require.Len(t, resp.Error.Details, 2)
	assert.Equal(t, "entity_kind", resp.Error.Details[0].Field)
	assert.Equal(t, "Must be one of: warehouses transporters drivers vehicles", resp.Error.Details[0].Message)
	assert.Equal(t, "page", resp.Error.Details[1].Field)
	assert.Equal(t, "Must be at least 1", resp.Error.Details[1].Message)
}

func TestFormatValidationErrors_NonValidatorError(t *testing.T) {
	resp := FormatValidationErrors(assert.AnError, "req-1")
	require.NotNil(t, resp.Error)
	assert.Empty(t, resp.Error.Details)
}

func TestHandleValidationError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	SetupValidator()

	r := gin.New()
	r.Use(RequestID())
	r.GET("/api/v1/bulk-uploads", func(c *gin.Context) {
		var q listQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/bulk-uploads?entity_kind=pallets", nil)
	req.Header.Set("X-Request-ID", "req-pallets")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "req-pallets", resp.Error.RequestID)
	require.Len(t, resp.Error.Details, 1)
	assert.Equal(t, "entity_kind", resp.Error.Details[0].Field)
}
