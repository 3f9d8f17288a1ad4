package bulk

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BatchFilter defines the filters for querying upload batches
type BatchFilter struct {
	EntityKind  *EntityKind
	Status      *BatchStatus
	UploadedBy  *uuid.UUID
	StartedFrom *time.Time
	StartedTo   *time.Time

	// SortBy and SortOrder override the default newest-first ordering.
	// Implementations validate both against a whitelist.
	SortBy    string
	SortOrder string
}

// BatchListResult represents a paginated list of upload batches
type BatchListResult struct {
	Items      []*UploadBatch
	TotalCount int64
	Page       int
	PageSize   int
}

// UploadBatchRepository defines the interface for batch persistence
type UploadBatchRepository interface {
	// FindByID finds a batch by ID
	FindByID(ctx context.Context, id uuid.UUID) (*UploadBatch, error)

	// FindAll returns batches with pagination and filtering
	FindAll(ctx context.Context, filter BatchFilter, page, pageSize int) (*BatchListResult, error)

	// FindByStatus finds all batches with a specific status
	FindByStatus(ctx context.Context, status BatchStatus) ([]*UploadBatch, error)

	// Save saves a batch (create or update)
	Save(ctx context.Context, batch *UploadBatch) error
}

// ValidationRecordRepository defines the interface for per-record outcomes
type ValidationRecordRepository interface {
	// SaveAll persists validation records in one shot
	SaveAll(ctx context.Context, records []*ValidationRecord) error

	// Save persists a single record (create or update)
	Save(ctx context.Context, record *ValidationRecord) error

	// FindByBatch returns every record of a batch ordered by row number
	FindByBatch(ctx context.Context, batchID uuid.UUID) ([]*ValidationRecord, error)

	// FindByBatchAndStatus returns a batch's records with the given status,
	// ordered by row number
	FindByBatchAndStatus(ctx context.Context, batchID uuid.UUID, status RecordStatus) ([]*ValidationRecord, error)

	// CountByBatch returns the number of records persisted for a batch
	CountByBatch(ctx context.Context, batchID uuid.UUID) (int64, error)
}
