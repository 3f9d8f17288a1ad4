package testutil

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/logimaster/backend/internal/interfaces/http/dto"
)

// MultipartWorkbook wraps workbook bytes in a multipart form body the
// way a browser submits the upload form. It returns the encoded body
// and the Content-Type header carrying the boundary.
func MultipartWorkbook(t *testing.T, fileName string, workbook []byte) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = part.Write(workbook)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	return body, writer.FormDataContentType()
}

// DecodeResponse unmarshals the standard API envelope from a recorder
func DecodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// DataField digs a field out of the envelope's data object
func DataField(t *testing.T, resp dto.Response, key string) string {
	t.Helper()

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok, "response data is not an object")
	value, ok := data[key].(string)
	require.True(t, ok, "field %s missing or not a string", key)
	return value
}
