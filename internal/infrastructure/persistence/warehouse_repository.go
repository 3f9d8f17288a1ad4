package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/logimaster/backend/internal/domain/masterdata"
	"github.com/logimaster/backend/internal/domain/shared"
)

// GormWarehouseRepository implements WarehouseRepository using GORM
type GormWarehouseRepository struct {
	db *gorm.DB
}

// NewGormWarehouseRepository creates a new GormWarehouseRepository
func NewGormWarehouseRepository(db *gorm.DB) *GormWarehouseRepository {
	return &GormWarehouseRepository{db: db}
}

// Create persists a warehouse with its zones and documents
func (r *GormWarehouseRepository) Create(ctx context.Context, warehouse *masterdata.Warehouse) error {
	return r.db.WithContext(ctx).Create(warehouse).Error
}

// FindByID finds a warehouse by ID
func (r *GormWarehouseRepository) FindByID(ctx context.Context, id uuid.UUID) (*masterdata.Warehouse, error) {
	var warehouse masterdata.Warehouse
	if err := r.db.WithContext(ctx).
		Preload("StorageZones").
		Preload("Documents").
		First(&warehouse, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &warehouse, nil
}

// FindByCode finds a warehouse by business code
func (r *GormWarehouseRepository) FindByCode(ctx context.Context, code string) (*masterdata.Warehouse, error) {
	var warehouse masterdata.Warehouse
	if err := r.db.WithContext(ctx).
		Preload("StorageZones").
		Preload("Documents").
		First(&warehouse, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &warehouse, nil
}

// CodeByName returns the code of the warehouse holding a name
func (r *GormWarehouseRepository) CodeByName(ctx context.Context, name string) (string, error) {
	return pluckCode(r.db.WithContext(ctx).
		Model(&masterdata.Warehouse{}).
		Where("LOWER(name) = LOWER(?)", name))
}

// CodeByTaxID returns the code of the warehouse holding a tax id
func (r *GormWarehouseRepository) CodeByTaxID(ctx context.Context, taxID string) (string, error) {
	return pluckCode(r.db.WithContext(ctx).
		Model(&masterdata.Warehouse{}).
		Where("UPPER(tax_id) = UPPER(?)", taxID))
}

// pluckCode reads the code column of the first matching row
func pluckCode(query *gorm.DB) (string, error) {
	var codes []string
	if err := query.Limit(1).Pluck("code", &codes).Error; err != nil {
		return "", err
	}
	if len(codes) == 0 {
		return "", shared.ErrNotFound
	}
	return codes[0], nil
}

// Compile-time interface compliance check
var _ masterdata.WarehouseRepository = (*GormWarehouseRepository)(nil)
