package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/logimaster/backend/internal/application/bulkupload"
	"github.com/logimaster/backend/internal/domain/bulk"
	"github.com/logimaster/backend/internal/domain/masterdata"
	"github.com/logimaster/backend/internal/domain/shared"
	"github.com/logimaster/backend/internal/interfaces/http/dto"
)

// fakeBatchRepo is an in-memory bulk.UploadBatchRepository. Batches are
// copied on save and load so the async pipeline never shares a pointer
// with a handler serializing its response.
type fakeBatchRepo struct {
	mu      sync.Mutex
	batches map[uuid.UUID]*bulk.UploadBatch
}

func newFakeBatchRepo() *fakeBatchRepo {
	return &fakeBatchRepo{batches: make(map[uuid.UUID]*bulk.UploadBatch)}
}

func (r *fakeBatchRepo) FindByID(_ context.Context, id uuid.UUID) (*bulk.UploadBatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	batch, ok := r.batches[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *batch
	return &cp, nil
}

func (r *fakeBatchRepo) FindAll(_ context.Context, _ bulk.BatchFilter, page, pageSize int) (*bulk.BatchListResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := &bulk.BatchListResult{Page: page, PageSize: pageSize, TotalCount: int64(len(r.batches))}
	for _, b := range r.batches {
		cp := *b
		result.Items = append(result.Items, &cp)
	}
	return result, nil
}

func (r *fakeBatchRepo) FindByStatus(_ context.Context, status bulk.BatchStatus) ([]*bulk.UploadBatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bulk.UploadBatch
	for _, b := range r.batches {
		if b.Status == status {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeBatchRepo) Save(_ context.Context, batch *bulk.UploadBatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *batch
	r.batches[batch.ID] = &cp
	return nil
}

// fakeRecordRepo is an in-memory bulk.ValidationRecordRepository
type fakeRecordRepo struct {
	mu      sync.Mutex
	records map[uuid.UUID]*bulk.ValidationRecord
}

func newFakeRecordRepo() *fakeRecordRepo {
	return &fakeRecordRepo{records: make(map[uuid.UUID]*bulk.ValidationRecord)}
}

func (r *fakeRecordRepo) Save(_ context.Context, record *bulk.ValidationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[record.ID] = record
	return nil
}

func (r *fakeRecordRepo) SaveAll(_ context.Context, records []*bulk.ValidationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range records {
		r.records[rec.ID] = rec
	}
	return nil
}

func (r *fakeRecordRepo) FindByBatch(_ context.Context, batchID uuid.UUID) ([]*bulk.ValidationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bulk.ValidationRecord
	for _, rec := range r.records {
		if rec.BatchID == batchID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RowNumber < out[j].RowNumber })
	return out, nil
}

func (r *fakeRecordRepo) FindByBatchAndStatus(ctx context.Context, batchID uuid.UUID, status bulk.RecordStatus) ([]*bulk.ValidationRecord, error) {
	all, err := r.FindByBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	var out []*bulk.ValidationRecord
	for _, rec := range all {
		if rec.Status == status {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *fakeRecordRepo) CountByBatch(ctx context.Context, batchID uuid.UUID) (int64, error) {
	all, err := r.FindByBatch(ctx, batchID)
	if err != nil {
		return 0, err
	}
	return int64(len(all)), nil
}

// fakeReportStore is an in-memory bulkupload.ReportStore
type fakeReportStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeReportStore() *fakeReportStore {
	return &fakeReportStore{objects: make(map[string][]byte)}
}

func (s *fakeReportStore) Put(_ context.Context, key string, data []byte, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = append([]byte(nil), data...)
	return nil
}

func (s *fakeReportStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return data, nil
}

func (s *fakeReportStore) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok, nil
}

func (s *fakeReportStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

// fakeIdemStore is an in-memory shared.IdempotencyStore
type fakeIdemStore struct {
	mu   sync.Mutex
	keys map[string]bool
}

func newFakeIdemStore() *fakeIdemStore { return &fakeIdemStore{keys: make(map[string]bool)} }

func (s *fakeIdemStore) MarkProcessed(_ context.Context, key string, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.keys[key] {
		return false, nil
	}
	s.keys[key] = true
	return true, nil
}

func (s *fakeIdemStore) IsProcessed(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keys[key], nil
}

func (s *fakeIdemStore) Close() error { return nil }

// fakeCodeStore reports no existing codes
type fakeCodeStore struct{}

func (fakeCodeStore) Count(_ context.Context, _ masterdata.CodeKind) (int64, error) {
	return 0, nil
}

func (fakeCodeStore) CodeExists(_ context.Context, _ masterdata.CodeKind, _ string) (bool, error) {
	return false, nil
}

// fakeUnitOfWork runs the function against empty repositories
type fakeUnitOfWork struct{}

func (fakeUnitOfWork) Repos() masterdata.Repositories {
	return masterdata.Repositories{Codes: fakeCodeStore{}}
}

func (u fakeUnitOfWork) Execute(ctx context.Context, fn func(ctx context.Context, repos masterdata.Repositories) error) error {
	return fn(ctx, u.Repos())
}

type handlerFixture struct {
	engine  *gin.Engine
	batches *fakeBatchRepo
	records *fakeRecordRepo
	svc     *bulkupload.Service
	userID  uuid.UUID
}

func newHandlerFixture(t *testing.T, maxFileSize int64) *handlerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	batches := newFakeBatchRepo()
	records := newFakeRecordRepo()
	logger := zap.NewNop()
	svc := bulkupload.NewService(
		bulkupload.Config{Workers: 1, UploadDir: t.TempDir()},
		batches,
		records,
		fakeUnitOfWork{},
		bulkupload.NewReportService(batches, records, newFakeReportStore(), logger),
		masterdata.NoopApprovalWorkflow{},
		newFakeIdemStore(),
		shared.DefaultIdempotencyConfig(),
		logger,
	)
	t.Cleanup(svc.Shutdown)

	h := NewBulkUploadHandler(svc, maxFileSize)
	engine := gin.New()
	h.RegisterRoutes(engine.Group("/api/v1"))

	return &handlerFixture{
		engine:  engine,
		batches: batches,
		records: records,
		svc:     svc,
		userID:  uuid.New(),
	}
}

func (f *handlerFixture) do(t *testing.T, method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, body)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("X-User-ID", f.userID.String())
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func multipartFile(t *testing.T, fieldContentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	header := make(map[string][]string)
	header["Content-Disposition"] = []string{`form-data; name="file"; filename="warehouses.xlsx"`}
	if fieldContentType != "" {
		header["Content-Type"] = []string{fieldContentType}
	}
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestBulkUploadHandler_Submit(t *testing.T) {
	t.Run("accepts a valid workbook", func(t *testing.T) {
		f := newHandlerFixture(t, 0)

		template, err := f.svc.Template(bulk.EntityWarehouses)
		require.NoError(t, err)

		body, contentType := multipartFile(t, xlsxContentType, template)
		w := f.do(t, http.MethodPost, "/api/v1/bulk/warehouses/uploads", body, contentType)

		assert.Equal(t, http.StatusAccepted, w.Code)
		resp := decodeResponse(t, w)
		assert.True(t, resp.Success)

		data := resp.Data.(map[string]interface{})
		assert.Equal(t, "warehouses", data["entity_kind"])
		assert.Equal(t, "processing", data["status"])
		assert.Equal(t, f.userID.String(), data["uploaded_by"])
	})

	t.Run("rejects unknown entity kind", func(t *testing.T) {
		f := newHandlerFixture(t, 0)

		body, contentType := multipartFile(t, xlsxContentType, []byte("ignored"))
		w := f.do(t, http.MethodPost, "/api/v1/bulk/containers/uploads", body, contentType)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects missing uploader identity", func(t *testing.T) {
		f := newHandlerFixture(t, 0)

		body, contentType := multipartFile(t, xlsxContentType, []byte("ignored"))
		req := httptest.NewRequest(http.MethodPost, "/api/v1/bulk/warehouses/uploads", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		f.engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeResponse(t, w)
		assert.Equal(t, "Invalid user ID", resp.Error.Message)
	})

	t.Run("rejects missing file", func(t *testing.T) {
		f := newHandlerFixture(t, 0)

		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)
		require.NoError(t, writer.Close())
		w := f.do(t, http.MethodPost, "/api/v1/bulk/warehouses/uploads", body, writer.FormDataContentType())

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeResponse(t, w)
		assert.False(t, resp.Success)
		assert.Equal(t, "file is required", resp.Error.Message)
	})

	t.Run("rejects oversized file", func(t *testing.T) {
		f := newHandlerFixture(t, 16)

		body, contentType := multipartFile(t, xlsxContentType, bytes.Repeat([]byte("x"), 64))
		w := f.do(t, http.MethodPost, "/api/v1/bulk/warehouses/uploads", body, contentType)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})

	t.Run("rejects non-xlsx content type", func(t *testing.T) {
		f := newHandlerFixture(t, 0)

		body, contentType := multipartFile(t, "text/csv", []byte("a,b,c"))
		w := f.do(t, http.MethodPost, "/api/v1/bulk/warehouses/uploads", body, contentType)

		assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	})

	t.Run("rejects a duplicate submission", func(t *testing.T) {
		f := newHandlerFixture(t, 0)

		template, err := f.svc.Template(bulk.EntityWarehouses)
		require.NoError(t, err)

		body, contentType := multipartFile(t, xlsxContentType, template)
		w := f.do(t, http.MethodPost, "/api/v1/bulk/warehouses/uploads", body, contentType)
		require.Equal(t, http.StatusAccepted, w.Code)

		body, contentType = multipartFile(t, xlsxContentType, template)
		w = f.do(t, http.MethodPost, "/api/v1/bulk/warehouses/uploads", body, contentType)

		assert.Equal(t, http.StatusConflict, w.Code)
		resp := decodeResponse(t, w)
		assert.Equal(t, dto.ErrCodeDuplicateUpload, resp.Error.Code)
	})
}

func TestBulkUploadHandler_GetBatch(t *testing.T) {
	t.Run("returns a submitted batch", func(t *testing.T) {
		f := newHandlerFixture(t, 0)

		batch, err := bulk.NewUploadBatch(bulk.EntityDrivers, "drivers.xlsx", 512, f.userID)
		require.NoError(t, err)
		require.NoError(t, f.batches.Save(context.Background(), batch))

		w := f.do(t, http.MethodGet, "/api/v1/bulk/uploads/"+batch.ID.String(), nil, "")

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decodeResponse(t, w)
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, batch.ID.String(), data["id"])
		assert.Equal(t, "drivers", data["entity_kind"])
	})

	t.Run("rejects malformed batch ID", func(t *testing.T) {
		f := newHandlerFixture(t, 0)

		w := f.do(t, http.MethodGet, "/api/v1/bulk/uploads/not-a-uuid", nil, "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("returns 404 for unknown batch", func(t *testing.T) {
		f := newHandlerFixture(t, 0)

		w := f.do(t, http.MethodGet, "/api/v1/bulk/uploads/"+uuid.NewString(), nil, "")

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestBulkUploadHandler_ListBatches(t *testing.T) {
	t.Run("returns batches with pagination meta", func(t *testing.T) {
		f := newHandlerFixture(t, 0)

		for _, name := range []string{"a.xlsx", "b.xlsx"} {
			batch, err := bulk.NewUploadBatch(bulk.EntityVehicles, name, 128, f.userID)
			require.NoError(t, err)
			require.NoError(t, f.batches.Save(context.Background(), batch))
		}

		w := f.do(t, http.MethodGet, "/api/v1/bulk/uploads?page=1&page_size=10", nil, "")

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decodeResponse(t, w)
		require.NotNil(t, resp.Meta)
		assert.Equal(t, int64(2), resp.Meta.Total)
		assert.Equal(t, 1, resp.Meta.Page)
	})

	t.Run("rejects unknown entity kind filter", func(t *testing.T) {
		f := newHandlerFixture(t, 0)

		w := f.do(t, http.MethodGet, "/api/v1/bulk/uploads?entity_kind=pallets", nil, "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects unknown status filter", func(t *testing.T) {
		f := newHandlerFixture(t, 0)

		w := f.do(t, http.MethodGet, "/api/v1/bulk/uploads?status=queued", nil, "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestBulkUploadHandler_GetRecords(t *testing.T) {
	t.Run("rejects malformed batch ID", func(t *testing.T) {
		f := newHandlerFixture(t, 0)

		w := f.do(t, http.MethodGet, "/api/v1/bulk/uploads/nope/records", nil, "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("returns 404 for unknown batch", func(t *testing.T) {
		f := newHandlerFixture(t, 0)

		w := f.do(t, http.MethodGet, "/api/v1/bulk/uploads/"+uuid.NewString()+"/records", nil, "")

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("returns empty record list for a fresh batch", func(t *testing.T) {
		f := newHandlerFixture(t, 0)

		batch, err := bulk.NewUploadBatch(bulk.EntityTransporters, "transporters.xlsx", 64, f.userID)
		require.NoError(t, err)
		require.NoError(t, f.batches.Save(context.Background(), batch))

		w := f.do(t, http.MethodGet, "/api/v1/bulk/uploads/"+batch.ID.String()+"/records", nil, "")

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decodeResponse(t, w)
		assert.True(t, resp.Success)
	})
}

func TestBulkUploadHandler_DownloadReport(t *testing.T) {
	t.Run("returns 404 when no report exists", func(t *testing.T) {
		f := newHandlerFixture(t, 0)

		batch, err := bulk.NewUploadBatch(bulk.EntityWarehouses, "warehouses.xlsx", 64, f.userID)
		require.NoError(t, err)
		require.NoError(t, f.batches.Save(context.Background(), batch))

		w := f.do(t, http.MethodGet, "/api/v1/bulk/uploads/"+batch.ID.String()+"/report", nil, "")

		assert.Equal(t, http.StatusNotFound, w.Code)
		resp := decodeResponse(t, w)
		assert.Equal(t, dto.ErrCodeReportNotReady, resp.Error.Code)
	})

	t.Run("rejects malformed batch ID", func(t *testing.T) {
		f := newHandlerFixture(t, 0)

		w := f.do(t, http.MethodGet, "/api/v1/bulk/uploads/nope/report", nil, "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestBulkUploadHandler_DownloadTemplate(t *testing.T) {
	t.Run("returns xlsx template for each entity kind", func(t *testing.T) {
		f := newHandlerFixture(t, 0)

		for _, kind := range []string{"warehouses", "drivers", "transporters", "vehicles"} {
			w := f.do(t, http.MethodGet, "/api/v1/bulk/"+kind+"/template", nil, "")

			assert.Equal(t, http.StatusOK, w.Code, kind)
			assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"), kind)
			assert.Contains(t, w.Header().Get("Content-Disposition"), kind+"-template.xlsx")
			assert.NotEmpty(t, w.Body.Bytes(), kind)
		}
	})

	t.Run("rejects unknown entity kind", func(t *testing.T) {
		f := newHandlerFixture(t, 0)

		w := f.do(t, http.MethodGet, "/api/v1/bulk/pallets/template", nil, "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
