package bulk

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/logimaster/backend/internal/domain/shared"
)

// EntityKind identifies which master-data entity a batch uploads
type EntityKind string

const (
	EntityWarehouses   EntityKind = "warehouses"
	EntityDrivers      EntityKind = "drivers"
	EntityTransporters EntityKind = "transporters"
	EntityVehicles     EntityKind = "vehicles"
)

// IsValid checks if the entity kind is valid
func (e EntityKind) IsValid() bool {
	switch e {
	case EntityWarehouses, EntityDrivers, EntityTransporters, EntityVehicles:
		return true
	}
	return false
}

// BatchStatus represents the lifecycle state of an upload batch
type BatchStatus string

const (
	BatchStatusProcessing BatchStatus = "processing"
	BatchStatusCompleted  BatchStatus = "completed"
	BatchStatusFailed     BatchStatus = "failed"
)

// IsValid checks if the status is valid
func (s BatchStatus) IsValid() bool {
	switch s {
	case BatchStatusProcessing, BatchStatusCompleted, BatchStatusFailed:
		return true
	}
	return false
}

// IsTerminal returns true if this is a terminal state
func (s BatchStatus) IsTerminal() bool {
	return s == BatchStatusCompleted || s == BatchStatusFailed
}

// UploadBatch tracks one bulk upload from submission to completion.
// A batch that reaches the creation stage always finishes as completed,
// even when individual records fail to create; failed is reserved for
// batch-level faults such as an unreadable workbook or a storage error.
type UploadBatch struct {
	shared.AuditedAggregateRoot
	EntityKind     EntityKind  `json:"entity_kind"`
	FileName       string      `json:"file_name"`
	FileSize       int64       `json:"file_size"`
	TotalRecords   int         `json:"total_records"`
	ValidRecords   int         `json:"valid_records"`
	InvalidRecords int         `json:"invalid_records"`
	CreatedCount   int         `json:"created_count"`
	FailedCount    int         `json:"failed_count"`
	Status         BatchStatus `json:"status"`
	FailureReason  *string     `json:"failure_reason,omitempty"`
	ReportPath     *string     `json:"report_path,omitempty"`
	UploadedBy     *uuid.UUID  `json:"uploaded_by,omitempty"`
	StartedAt      *time.Time  `json:"started_at,omitempty"`
	CompletedAt    *time.Time  `json:"completed_at,omitempty"`
}

// NewUploadBatch creates a batch in the processing state
func NewUploadBatch(kind EntityKind, fileName string, fileSize int64, uploadedBy uuid.UUID) (*UploadBatch, error) {
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_ENTITY_KIND", fmt.Sprintf("Invalid entity kind: %s", kind))
	}
	if fileName == "" {
		return nil, shared.NewDomainError("INVALID_FILE_NAME", "File name cannot be empty")
	}
	if fileSize < 0 {
		return nil, shared.NewDomainError("INVALID_FILE_SIZE", "File size cannot be negative")
	}

	now := time.Now()
	batch := &UploadBatch{
		AuditedAggregateRoot: shared.NewAuditedAggregateRoot(uploadedBy),
		EntityKind:           kind,
		FileName:             fileName,
		FileSize:             fileSize,
		Status:               BatchStatusProcessing,
		UploadedBy:           &uploadedBy,
		StartedAt:            &now,
	}

	return batch, nil
}

// RecordValidation stores the outcome of the validation stage
func (b *UploadBatch) RecordValidation(total, valid, invalid int) error {
	if b.Status != BatchStatusProcessing {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot record validation in state: %s", b.Status))
	}
	if total < 0 || valid < 0 || invalid < 0 {
		return shared.NewDomainError("INVALID_COUNTS", "Record counts cannot be negative")
	}
	if valid+invalid != total {
		return shared.NewDomainError("INVALID_COUNTS", "Valid and invalid counts must sum to total")
	}

	b.TotalRecords = total
	b.ValidRecords = valid
	b.InvalidRecords = invalid
	b.UpdatedAt = time.Now()
	b.IncrementVersion()

	return nil
}

// AttachReport records the storage path of the generated error report
func (b *UploadBatch) AttachReport(path string) error {
	if path == "" {
		return shared.NewDomainError("INVALID_REPORT_PATH", "Report path cannot be empty")
	}
	b.ReportPath = &path
	b.UpdatedAt = time.Now()
	b.IncrementVersion()
	return nil
}

// Complete records the creation stage outcome and finishes the batch.
// Per-record creation failures do not fail the batch.
func (b *UploadBatch) Complete(created, failed int) error {
	if b.Status != BatchStatusProcessing {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot complete from state: %s", b.Status))
	}
	if created < 0 || failed < 0 {
		return shared.NewDomainError("INVALID_COUNTS", "Creation counts cannot be negative")
	}
	if created+failed > b.ValidRecords {
		return shared.NewDomainError("INVALID_COUNTS", "Creation outcomes exceed valid record count")
	}

	b.Status = BatchStatusCompleted
	b.CreatedCount = created
	b.FailedCount = failed
	now := time.Now()
	b.CompletedAt = &now
	b.UpdatedAt = now
	b.IncrementVersion()

	return nil
}

// Fail marks the batch as failed with a batch-level reason
func (b *UploadBatch) Fail(reason string) error {
	if b.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot fail from terminal state: %s", b.Status))
	}

	b.Status = BatchStatusFailed
	b.FailureReason = &reason
	now := time.Now()
	b.CompletedAt = &now
	b.UpdatedAt = now
	b.IncrementVersion()

	return nil
}

// HasReport returns true if an error report has been attached
func (b *UploadBatch) HasReport() bool {
	return b.ReportPath != nil && *b.ReportPath != ""
}

// Duration returns how long the batch took so far
func (b *UploadBatch) Duration() time.Duration {
	if b.StartedAt == nil {
		return 0
	}
	end := time.Now()
	if b.CompletedAt != nil {
		end = *b.CompletedAt
	}
	return end.Sub(*b.StartedAt)
}
