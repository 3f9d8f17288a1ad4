package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/logimaster/backend/internal/domain/bulk"
	"github.com/logimaster/backend/internal/domain/shared"
)

// UploadBatchModel is the persistence model for the UploadBatch aggregate.
type UploadBatchModel struct {
	AuditedAggregateModel
	EntityKind     bulk.EntityKind  `gorm:"type:varchar(20);not null;index"`
	FileName       string           `gorm:"type:varchar(255);not null"`
	FileSize       int64            `gorm:"not null;default:0"`
	TotalRecords   int              `gorm:"not null;default:0"`
	ValidRecords   int              `gorm:"not null;default:0"`
	InvalidRecords int              `gorm:"not null;default:0"`
	CreatedCount   int              `gorm:"not null;default:0"`
	FailedCount    int              `gorm:"not null;default:0"`
	Status         bulk.BatchStatus `gorm:"type:varchar(20);not null;default:'processing';index"`
	FailureReason  *string          `gorm:"type:text"`
	ReportPath     *string          `gorm:"type:varchar(512)"`
	UploadedBy     *uuid.UUID       `gorm:"type:uuid;index"`
	StartedAt      *time.Time       `gorm:"type:timestamptz"`
	CompletedAt    *time.Time       `gorm:"type:timestamptz"`
}

// TableName returns the table name for GORM
func (UploadBatchModel) TableName() string {
	return "upload_batches"
}

// ToDomain converts the persistence model to a domain UploadBatch.
func (m *UploadBatchModel) ToDomain() *bulk.UploadBatch {
	return &bulk.UploadBatch{
		AuditedAggregateRoot: shared.AuditedAggregateRoot{
			BaseAggregateRoot: shared.BaseAggregateRoot{
				BaseEntity: shared.BaseEntity{
					ID:        m.ID,
					CreatedAt: m.CreatedAt,
					UpdatedAt: m.UpdatedAt,
				},
				Version: m.Version,
			},
			CreatedBy: m.CreatedBy,
		},
		EntityKind:     m.EntityKind,
		FileName:       m.FileName,
		FileSize:       m.FileSize,
		TotalRecords:   m.TotalRecords,
		ValidRecords:   m.ValidRecords,
		InvalidRecords: m.InvalidRecords,
		CreatedCount:   m.CreatedCount,
		FailedCount:    m.FailedCount,
		Status:         m.Status,
		FailureReason:  m.FailureReason,
		ReportPath:     m.ReportPath,
		UploadedBy:     m.UploadedBy,
		StartedAt:      m.StartedAt,
		CompletedAt:    m.CompletedAt,
	}
}

// FromDomain populates the persistence model from a domain UploadBatch.
func (m *UploadBatchModel) FromDomain(b *bulk.UploadBatch) {
	m.FromDomainAuditedAggregateRoot(b.AuditedAggregateRoot)
	m.EntityKind = b.EntityKind
	m.FileName = b.FileName
	m.FileSize = b.FileSize
	m.TotalRecords = b.TotalRecords
	m.ValidRecords = b.ValidRecords
	m.InvalidRecords = b.InvalidRecords
	m.CreatedCount = b.CreatedCount
	m.FailedCount = b.FailedCount
	m.Status = b.Status
	m.FailureReason = b.FailureReason
	m.ReportPath = b.ReportPath
	m.UploadedBy = b.UploadedBy
	m.StartedAt = b.StartedAt
	m.CompletedAt = b.CompletedAt
}

// UploadBatchModelFromDomain creates a new persistence model from a domain UploadBatch.
func UploadBatchModelFromDomain(b *bulk.UploadBatch) *UploadBatchModel {
	m := &UploadBatchModel{}
	m.FromDomain(b)
	return m
}

// ValidationRecordModel is the persistence model for ValidationRecord.
type ValidationRecordModel struct {
	BaseModel
	BatchID       uuid.UUID         `gorm:"type:uuid;not null;index:idx_validation_records_batch"`
	ReferenceID   string            `gorm:"type:varchar(50);not null"`
	DisplayName   string            `gorm:"type:varchar(255)"`
	RowNumber     int               `gorm:"not null;default:0"`
	Status        bulk.RecordStatus `gorm:"type:varchar(10);not null;index:idx_validation_records_batch"`
	Errors        string            `gorm:"type:jsonb;default:'[]'"`
	Payload       string            `gorm:"type:jsonb;default:'{}'"`
	CreatedCode   *string           `gorm:"type:varchar(20)"`
	CreationError *string           `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ValidationRecordModel) TableName() string {
	return "validation_records"
}

// ToDomain converts the persistence model to a domain ValidationRecord.
func (m *ValidationRecordModel) ToDomain() *bulk.ValidationRecord {
	record := &bulk.ValidationRecord{
		BaseEntity:    m.BaseModel.ToDomain(),
		BatchID:       m.BatchID,
		ReferenceID:   m.ReferenceID,
		DisplayName:   m.DisplayName,
		RowNumber:     m.RowNumber,
		Status:        m.Status,
		CreatedCode:   m.CreatedCode,
		CreationError: m.CreationError,
	}
	if m.Errors != "" {
		_ = record.SetErrorsFromJSON(m.Errors)
	}
	if m.Payload != "" {
		record.Payload = json.RawMessage(m.Payload)
	}
	return record
}

// FromDomain populates the persistence model from a domain ValidationRecord.
func (m *ValidationRecordModel) FromDomain(r *bulk.ValidationRecord) {
	m.FromDomainBaseEntity(r.BaseEntity)
	m.BatchID = r.BatchID
	m.ReferenceID = r.ReferenceID
	m.DisplayName = r.DisplayName
	m.RowNumber = r.RowNumber
	m.Status = r.Status
	m.CreatedCode = r.CreatedCode
	m.CreationError = r.CreationError

	if errorsJSON, err := r.ErrorsJSON(); err == nil {
		m.Errors = errorsJSON
	} else {
		m.Errors = "[]"
	}
	if len(r.Payload) > 0 {
		m.Payload = string(r.Payload)
	} else {
		m.Payload = "{}"
	}
}

// ValidationRecordModelFromDomain creates a new persistence model from a domain ValidationRecord.
func ValidationRecordModelFromDomain(r *bulk.ValidationRecord) *ValidationRecordModel {
	m := &ValidationRecordModel{}
	m.FromDomain(r)
	return m
}
