package handler

import (
	"encoding/json"
	"time"

	"github.com/logimaster/backend/internal/domain/bulk"
)

// UploadBatchResponse represents an upload batch in API responses
// @Description Upload batch details returned by the API
// @Name HandlerUploadBatchResponse
type UploadBatchResponse struct {
	ID             string  `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	EntityKind     string  `json:"entity_kind" example:"warehouses" enums:"warehouses,drivers,transporters,vehicles"`
	FileName       string  `json:"file_name" example:"warehouses_august.xlsx"`
	FileSize       int64   `json:"file_size" example:"48231"`
	TotalRecords   int     `json:"total_records" example:"120"`
	ValidRecords   int     `json:"valid_records" example:"115"`
	InvalidRecords int     `json:"invalid_records" example:"5"`
	CreatedCount   int     `json:"created_count" example:"114"`
	FailedCount    int     `json:"failed_count" example:"1"`
	Status         string  `json:"status" example:"completed" enums:"processing,completed,failed"`
	FailureReason  *string `json:"failure_reason,omitempty"`
	HasReport      bool    `json:"has_report" example:"true"`
	UploadedBy     *string `json:"uploaded_by,omitempty" example:"550e8400-e29b-41d4-a716-446655440001"`
	StartedAt      *string `json:"started_at,omitempty" example:"2026-08-31T09:00:00Z"`
	CompletedAt    *string `json:"completed_at,omitempty" example:"2026-08-31T09:00:42Z"`
	CreatedAt      string  `json:"created_at" example:"2026-08-31T09:00:00Z"`
}

// ValidationRecordResponse represents a per-row outcome in API responses
// @Description Outcome of one uploaded row
// @Name HandlerValidationRecordResponse
type ValidationRecordResponse struct {
	ReferenceID   string             `json:"reference_id" example:"WAREHOUSES-ROW-4"`
	DisplayName   string             `json:"display_name" example:"Nagpur Hub"`
	RowNumber     int                `json:"row_number" example:"4"`
	Status        string             `json:"status" example:"valid" enums:"valid,invalid"`
	Errors        []bulk.RecordError `json:"errors,omitempty"`
	Payload       json.RawMessage    `json:"payload,omitempty"`
	CreatedCode   *string            `json:"created_code,omitempty" example:"WH-000042"`
	CreationError *string            `json:"creation_error,omitempty"`
}

func toUploadBatchResponse(batch *bulk.UploadBatch) UploadBatchResponse {
	resp := UploadBatchResponse{
		ID:             batch.ID.String(),
		EntityKind:     string(batch.EntityKind),
		FileName:       batch.FileName,
		FileSize:       batch.FileSize,
		TotalRecords:   batch.TotalRecords,
		ValidRecords:   batch.ValidRecords,
		InvalidRecords: batch.InvalidRecords,
		CreatedCount:   batch.CreatedCount,
		FailedCount:    batch.FailedCount,
		Status:         string(batch.Status),
		FailureReason:  batch.FailureReason,
		HasReport:      batch.HasReport(),
		CreatedAt:      batch.CreatedAt.Format(time.RFC3339),
	}
	if batch.UploadedBy != nil {
		uploadedBy := batch.UploadedBy.String()
		resp.UploadedBy = &uploadedBy
	}
	if batch.StartedAt != nil {
		startedAt := batch.StartedAt.Format(time.RFC3339)
		resp.StartedAt = &startedAt
	}
	if batch.CompletedAt != nil {
		completedAt := batch.CompletedAt.Format(time.RFC3339)
		resp.CompletedAt = &completedAt
	}
	return resp
}

func toUploadBatchListResponse(batches []*bulk.UploadBatch) []UploadBatchResponse {
	items := make([]UploadBatchResponse, len(batches))
	for i, batch := range batches {
		items[i] = toUploadBatchResponse(batch)
	}
	return items
}

func toValidationRecordResponse(rec *bulk.ValidationRecord) ValidationRecordResponse {
	return ValidationRecordResponse{
		ReferenceID:   rec.ReferenceID,
		DisplayName:   rec.DisplayName,
		RowNumber:     rec.RowNumber,
		Status:        string(rec.Status),
		Errors:        rec.Errors,
		Payload:       rec.Payload,
		CreatedCode:   rec.CreatedCode,
		CreationError: rec.CreationError,
	}
}

func toValidationRecordListResponse(records []*bulk.ValidationRecord) []ValidationRecordResponse {
	items := make([]ValidationRecordResponse, len(records))
	for i, rec := range records {
		items[i] = toValidationRecordResponse(rec)
	}
	return items
}
