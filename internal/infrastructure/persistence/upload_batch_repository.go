package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/logimaster/backend/internal/domain/bulk"
	"github.com/logimaster/backend/internal/domain/shared"
	"github.com/logimaster/backend/internal/infrastructure/persistence/models"
)

// GormUploadBatchRepository implements UploadBatchRepository using GORM
type GormUploadBatchRepository struct {
	db *gorm.DB
}

// NewGormUploadBatchRepository creates a new GormUploadBatchRepository
func NewGormUploadBatchRepository(db *gorm.DB) *GormUploadBatchRepository {
	return &GormUploadBatchRepository{db: db}
}

// FindByID finds an upload batch by ID
func (r *GormUploadBatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*bulk.UploadBatch, error) {
	var model models.UploadBatchModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll returns upload batches with pagination and filtering
func (r *GormUploadBatchRepository) FindAll(ctx context.Context, filter bulk.BatchFilter, page, pageSize int) (*bulk.BatchListResult, error) {
	query := r.db.WithContext(ctx).Model(&models.UploadBatchModel{})
	query = r.applyFilters(query, filter)

	var totalCount int64
	if err := query.Count(&totalCount).Error; err != nil {
		return nil, err
	}

	if page > 0 && pageSize > 0 {
		query = query.Offset((page - 1) * pageSize).Limit(pageSize)
	}
	if filter.SortBy != "" {
		field := ValidateSortField(filter.SortBy, UploadBatchSortFields, "created_at")
		query = query.Order(field + " " + ValidateSortOrder(filter.SortOrder))
	} else {
		query = query.Order("started_at DESC NULLS LAST, created_at DESC")
	}

	var batchModels []models.UploadBatchModel
	if err := query.Find(&batchModels).Error; err != nil {
		return nil, err
	}

	batches := make([]*bulk.UploadBatch, len(batchModels))
	for i, model := range batchModels {
		batches[i] = model.ToDomain()
	}

	return &bulk.BatchListResult{
		Items:      batches,
		TotalCount: totalCount,
		Page:       page,
		PageSize:   pageSize,
	}, nil
}

// FindByStatus finds all upload batches with a specific status
func (r *GormUploadBatchRepository) FindByStatus(ctx context.Context, status bulk.BatchStatus) ([]*bulk.UploadBatch, error) {
	var batchModels []models.UploadBatchModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at DESC").
		Find(&batchModels).Error; err != nil {
		return nil, err
	}

	batches := make([]*bulk.UploadBatch, len(batchModels))
	for i, model := range batchModels {
		batches[i] = model.ToDomain()
	}
	return batches, nil
}

// CountProcessingBatches returns the number of in-flight batches per entity kind.
// Used by the telemetry layer for periodic gauge collection.
func (r *GormUploadBatchRepository) CountProcessingBatches(ctx context.Context) (map[string]int64, error) {
	type kindCount struct {
		EntityKind string
		Count      int64
	}

	var rows []kindCount
	if err := r.db.WithContext(ctx).
		Model(&models.UploadBatchModel{}).
		Select("entity_kind, COUNT(*) as count").
		Where("status = ?", bulk.BatchStatusProcessing).
		Group("entity_kind").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.EntityKind] = row.Count
	}
	return counts, nil
}

// FindExpiredReports returns finished batches that still hold an error
// report and completed before the cutoff, up to limit entries. Used by
// the retention sweep; batch rows themselves are never deleted.
func (r *GormUploadBatchRepository) FindExpiredReports(ctx context.Context, cutoff time.Time, limit int) ([]*bulk.UploadBatch, error) {
	var batchModels []models.UploadBatchModel
	if err := r.db.WithContext(ctx).
		Where("status IN ?", []bulk.BatchStatus{bulk.BatchStatusCompleted, bulk.BatchStatusFailed}).
		Where("completed_at < ?", cutoff).
		Where("report_path IS NOT NULL").
		Order("completed_at ASC").
		Limit(limit).
		Find(&batchModels).Error; err != nil {
		return nil, err
	}

	batches := make([]*bulk.UploadBatch, len(batchModels))
	for i, model := range batchModels {
		batches[i] = model.ToDomain()
	}
	return batches, nil
}

// ClearReport removes the report pointer from a batch row after its blob
// has been deleted by the retention sweep
func (r *GormUploadBatchRepository) ClearReport(ctx context.Context, batchID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.UploadBatchModel{}).
		Where("id = ?", batchID).
		Update("report_path", nil).Error
}

// Save saves an upload batch (create or update)
func (r *GormUploadBatchRepository) Save(ctx context.Context, batch *bulk.UploadBatch) error {
	model := models.UploadBatchModelFromDomain(batch)
	return r.db.WithContext(ctx).Save(model).Error
}

// applyFilters applies filter options to the query
func (r *GormUploadBatchRepository) applyFilters(query *gorm.DB, filter bulk.BatchFilter) *gorm.DB {
	if filter.EntityKind != nil {
		query = query.Where("entity_kind = ?", *filter.EntityKind)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.UploadedBy != nil {
		query = query.Where("uploaded_by = ?", *filter.UploadedBy)
	}
	if filter.StartedFrom != nil {
		query = query.Where("started_at >= ?", *filter.StartedFrom)
	}
	if filter.StartedTo != nil {
		query = query.Where("started_at <= ?", *filter.StartedTo)
	}
	return query
}

// Compile-time interface compliance check
var _ bulk.UploadBatchRepository = (*GormUploadBatchRepository)(nil)
