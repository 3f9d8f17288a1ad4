package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/logimaster/backend/internal/application/bulkupload"
	"github.com/logimaster/backend/internal/domain/bulk"
	"github.com/logimaster/backend/internal/domain/shared"
	"github.com/logimaster/backend/internal/infrastructure/telemetry"
	"github.com/logimaster/backend/internal/interfaces/http/dto"
	"github.com/logimaster/backend/internal/interfaces/http/middleware"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// BulkUploadHandler handles bulk master-data upload API endpoints
type BulkUploadHandler struct {
	BaseHandler
	service     *bulkupload.Service
	maxFileSize int64
}

// NewBulkUploadHandler creates a new BulkUploadHandler
func NewBulkUploadHandler(service *bulkupload.Service, maxFileSize int64) *BulkUploadHandler {
	if maxFileSize <= 0 {
		maxFileSize = 20 << 20
	}
	return &BulkUploadHandler{
		service:     service,
		maxFileSize: maxFileSize,
	}
}

func entityKindParam(c *gin.Context) (bulk.EntityKind, bool) {
	kind := bulk.EntityKind(c.Param("entity"))
	if !kind.IsValid() {
		return "", false
	}
	return kind, true
}

// Submit godoc
// @ID           submitBulkUpload
//
//	@Summary		Submit a bulk upload workbook
//	@Description	Accepts an xlsx workbook for the given entity kind and starts asynchronous validation and creation
//	@Tags			bulk-uploads
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			entity	path		string	true	"Entity kind"	Enums(warehouses, drivers, transporters, vehicles)
//	@Param			file	formData	file	true	"Workbook file (.xlsx)"
//	@Success		202		{object}	APIResponse[UploadBatchResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Failure		413		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/bulk/{entity}/uploads [post]
func (h *BulkUploadHandler) Submit(c *gin.Context) {
	kind, ok := entityKindParam(c)
	if !ok {
		h.BadRequest(c, "unknown entity kind: "+c.Param("entity"))
		return
	}

	userID, err := getUserID(c)
	if err != nil {
		h.BadRequest(c, "Invalid user ID")
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.BadRequest(c, "file is required")
		return
	}
	defer file.Close()

	if header.Size > h.maxFileSize {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeValidation,
			fmt.Sprintf("file exceeds maximum size of %d bytes", h.maxFileSize))
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType != "" && contentType != xlsxContentType && contentType != "application/octet-stream" {
		h.Error(c, http.StatusUnsupportedMediaType, dto.ErrCodeInvalidWorkbook, "file must be an xlsx workbook")
		return
	}

	span := telemetry.SpanFromContext(c.Request.Context())
	telemetry.SetAttributes(span,
		telemetry.SpanAttrEntityKind, string(kind),
		telemetry.SpanAttrFileName, header.Filename,
		telemetry.SpanAttrFileSize, header.Size)

	batch, err := h.service.Submit(c.Request.Context(), kind, header.Filename, header.Size, file, userID)
	if err != nil {
		if errors.Is(err, shared.ErrDuplicateUpload) {
			h.ErrorWithCode(c, dto.ErrCodeDuplicateUpload, "An identical file was submitted recently")
			return
		}
		h.HandleError(c, err)
		return
	}

	telemetry.SetAttribute(span, telemetry.SpanAttrBatchID, batch.ID.String())
	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(toUploadBatchResponse(batch)))
}

// GetBatch godoc
// @ID           getUploadBatch
//
//	@Summary		Get an upload batch
//	@Description	Returns the current state of an upload batch including validation and creation counters
//	@Tags			bulk-uploads
//	@Produce		json
//	@Param			id	path		string	true	"Batch ID"
//	@Success		200	{object}	APIResponse[UploadBatchResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/bulk/uploads/{id} [get]
func (h *BulkUploadHandler) GetBatch(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid batch ID")
		return
	}

	batch, err := h.service.GetBatch(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toUploadBatchResponse(batch))
}

// ListBatches godoc
// @ID           listUploadBatches
//
//	@Summary		List upload batches
//	@Description	Returns upload batches, newest first, optionally filtered by entity kind and status
//	@Tags			bulk-uploads
//	@Produce		json
//	@Param			entity_kind	query		string	false	"Entity kind filter"	Enums(warehouses, drivers, transporters, vehicles)
//	@Param			status		query		string	false	"Status filter"			Enums(processing, completed, failed)
//	@Param			page		query		int		false	"Page number"			default(1)
//	@Param			page_size	query		int		false	"Page size"				default(20)
//	@Param			sort_by		query		string	false	"Sort field"
//	@Param			sort_order	query		string	false	"Sort direction"		Enums(asc, desc)
//	@Success		200			{object}	APIResponse[[]UploadBatchResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Router			/bulk/uploads [get]
func (h *BulkUploadHandler) ListBatches(c *gin.Context) {
	var q dto.ListBatchesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	var filter bulk.BatchFilter
	if q.EntityKind != "" {
		kind := bulk.EntityKind(q.EntityKind)
		filter.EntityKind = &kind
	}
	if q.Status != "" {
		status := bulk.BatchStatus(q.Status)
		filter.Status = &status
	}
	filter.SortBy = q.SortBy
	filter.SortOrder = q.SortOrder

	page, pageSize := q.Page, q.PageSize
	if page == 0 {
		page = 1
	}
	if pageSize == 0 {
		pageSize = 20
	}

	result, err := h.service.ListBatches(c.Request.Context(), filter, page, pageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, toUploadBatchListResponse(result.Items), result.TotalCount, result.Page, result.PageSize)
}

// GetRecords godoc
// @ID           getUploadBatchRecords
//
//	@Summary		Get per-row outcomes of a batch
//	@Description	Returns the validation and creation outcome of every row in the batch, ordered by row number
//	@Tags			bulk-uploads
//	@Produce		json
//	@Param			id	path		string	true	"Batch ID"
//	@Success		200	{object}	APIResponse[[]ValidationRecordResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/bulk/uploads/{id}/records [get]
func (h *BulkUploadHandler) GetRecords(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid batch ID")
		return
	}

	records, err := h.service.BatchRecords(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toValidationRecordListResponse(records))
}

// DownloadReport godoc
// @ID           downloadUploadReport
//
//	@Summary		Download the error report of a batch
//	@Description	Returns the xlsx error report generated for a batch with invalid rows. A batch without invalid rows has no report.
//	@Tags			bulk-uploads
//	@Produce		application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
//	@Param			id	path		string	true	"Batch ID"
//	@Success		200	{file}		binary
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/bulk/uploads/{id}/report [get]
func (h *BulkUploadHandler) DownloadReport(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid batch ID")
		return
	}

	batch, data, err := h.service.Report(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrReportNotReady) {
			h.ErrorWithCode(c, dto.ErrCodeReportNotReady, "No error report exists for this batch")
			return
		}
		h.HandleError(c, err)
		return
	}

	fileName := fmt.Sprintf("%s-errors-%s.xlsx", batch.EntityKind, batch.ID)
	c.Header("Content-Disposition", `attachment; filename="`+fileName+`"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}

// DownloadTemplate godoc
// @ID           downloadUploadTemplate
//
//	@Summary		Download the upload template for an entity kind
//	@Description	Returns an empty xlsx workbook with the sheets and headers expected by the bulk upload pipeline
//	@Tags			bulk-uploads
//	@Produce		application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
//	@Param			entity	path		string	true	"Entity kind"	Enums(warehouses, drivers, transporters, vehicles)
//	@Success		200		{file}		binary
//	@Failure		400		{object}	ErrorResponse
//	@Router			/bulk/{entity}/template [get]
func (h *BulkUploadHandler) DownloadTemplate(c *gin.Context) {
	kind, ok := entityKindParam(c)
	if !ok {
		h.BadRequest(c, "unknown entity kind: "+c.Param("entity"))
		return
	}

	data, err := h.service.Template(kind)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-template.xlsx"`, kind))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// RegisterRoutes registers all bulk upload routes
func (h *BulkUploadHandler) RegisterRoutes(rg *gin.RouterGroup) {
	uploads := rg.Group("/bulk")
	{
		uploads.POST("/:entity/uploads", h.Submit)
		uploads.GET("/:entity/template", h.DownloadTemplate)
		uploads.GET("/uploads", h.ListBatches)
		uploads.GET("/uploads/:id", h.GetBatch)
		uploads.GET("/uploads/:id/records", h.GetRecords)
		uploads.GET("/uploads/:id/report", h.DownloadReport)
	}
}
