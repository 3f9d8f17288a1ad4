package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/logimaster/backend/internal/domain/bulk"
	"github.com/logimaster/backend/internal/infrastructure/persistence/models"
)

// validationRecordBatchSize bounds the multi-row insert used by SaveAll
const validationRecordBatchSize = 500

// GormValidationRecordRepository implements ValidationRecordRepository using GORM
type GormValidationRecordRepository struct {
	db *gorm.DB
}

// NewGormValidationRecordRepository creates a new GormValidationRecordRepository
func NewGormValidationRecordRepository(db *gorm.DB) *GormValidationRecordRepository {
	return &GormValidationRecordRepository{db: db}
}

// SaveAll persists validation records in one shot
func (r *GormValidationRecordRepository) SaveAll(ctx context.Context, records []*bulk.ValidationRecord) error {
	if len(records) == 0 {
		return nil
	}
	recordModels := make([]*models.ValidationRecordModel, len(records))
	for i, record := range records {
		recordModels[i] = models.ValidationRecordModelFromDomain(record)
	}
	return r.db.WithContext(ctx).CreateInBatches(recordModels, validationRecordBatchSize).Error
}

// Save persists a single record (create or update)
func (r *GormValidationRecordRepository) Save(ctx context.Context, record *bulk.ValidationRecord) error {
	model := models.ValidationRecordModelFromDomain(record)
	return r.db.WithContext(ctx).Save(model).Error
}

// FindByBatch returns every record of a batch ordered by row number
func (r *GormValidationRecordRepository) FindByBatch(ctx context.Context, batchID uuid.UUID) ([]*bulk.ValidationRecord, error) {
	var recordModels []models.ValidationRecordModel
	if err := r.db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("row_number ASC, reference_id ASC").
		Find(&recordModels).Error; err != nil {
		return nil, err
	}
	return toDomainRecords(recordModels), nil
}

// FindByBatchAndStatus returns a batch's records with the given status,
// ordered by row number
func (r *GormValidationRecordRepository) FindByBatchAndStatus(ctx context.Context, batchID uuid.UUID, status bulk.RecordStatus) ([]*bulk.ValidationRecord, error) {
	var recordModels []models.ValidationRecordModel
	if err := r.db.WithContext(ctx).
		Where("batch_id = ? AND status = ?", batchID, status).
		Order("row_number ASC, reference_id ASC").
		Find(&recordModels).Error; err != nil {
		return nil, err
	}
	return toDomainRecords(recordModels), nil
}

// CountByBatch returns the number of records persisted for a batch
func (r *GormValidationRecordRepository) CountByBatch(ctx context.Context, batchID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ValidationRecordModel{}).
		Where("batch_id = ?", batchID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func toDomainRecords(recordModels []models.ValidationRecordModel) []*bulk.ValidationRecord {
	records := make([]*bulk.ValidationRecord, len(recordModels))
	for i, model := range recordModels {
		records[i] = model.ToDomain()
	}
	return records
}

// Compile-time interface compliance check
var _ bulk.ValidationRecordRepository = (*GormValidationRecordRepository)(nil)
