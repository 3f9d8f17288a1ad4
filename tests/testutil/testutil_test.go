package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logimaster/backend/internal/interfaces/http/dto"
)

func TestDeterministicUUID(t *testing.T) {
	assert.Equal(t, DeterministicUUID("warehouse-1"), DeterministicUUID("warehouse-1"))
	assert.NotEqual(t, DeterministicUUID("warehouse-1"), DeterministicUUID("warehouse-2"))
	assert.Equal(t, UploaderID(), UploaderID())
}

func TestMultipartWorkbook(t *testing.T) {
	content := []byte("not really xlsx but good enough")
	body, contentType := MultipartWorkbook(t, "warehouses.xlsx", content)

	require.True(t, strings.HasPrefix(contentType, "multipart/form-data; boundary="))

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	require.NoError(t, req.ParseMultipartForm(1<<20))

	file, header, err := req.FormFile("file")
	require.NoError(t, err)
	defer file.Close()

	assert.Equal(t, "warehouses.xlsx", header.Filename)
	assert.Equal(t, int64(len(content)), header.Size)
}

func TestDecodeResponse(t *testing.T) {
	w := httptest.NewRecorder()
	payload := dto.NewSuccessResponse(map[string]string{"id": "abc-123"})
	require.NoError(t, json.NewEncoder(w.Body).Encode(payload))

	resp := DecodeResponse(t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, "abc-123", DataField(t, resp, "id"))
}
