package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/logimaster/backend/internal/domain/masterdata"
	"github.com/logimaster/backend/internal/domain/shared"
)

// GormDriverRepository implements DriverRepository using GORM
type GormDriverRepository struct {
	db *gorm.DB
}

// NewGormDriverRepository creates a new GormDriverRepository
func NewGormDriverRepository(db *gorm.DB) *GormDriverRepository {
	return &GormDriverRepository{db: db}
}

// Create persists a driver with its documents
func (r *GormDriverRepository) Create(ctx context.Context, driver *masterdata.Driver) error {
	return r.db.WithContext(ctx).Create(driver).Error
}

// FindByID finds a driver by ID
func (r *GormDriverRepository) FindByID(ctx context.Context, id uuid.UUID) (*masterdata.Driver, error) {
	var driver masterdata.Driver
	if err := r.db.WithContext(ctx).
		Preload("Documents").
		First(&driver, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &driver, nil
}

// FindByCode finds a driver by business code
func (r *GormDriverRepository) FindByCode(ctx context.Context, code string) (*masterdata.Driver, error) {
	var driver masterdata.Driver
	if err := r.db.WithContext(ctx).
		Preload("Documents").
		First(&driver, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &driver, nil
}

// CodeByLicense returns the code of the driver holding a license number
func (r *GormDriverRepository) CodeByLicense(ctx context.Context, licenseNumber string) (string, error) {
	return pluckCode(r.db.WithContext(ctx).
		Model(&masterdata.Driver{}).
		Where("UPPER(license_number) = UPPER(?)", licenseNumber))
}

// CodeByPhone returns the code of the driver holding a phone number
func (r *GormDriverRepository) CodeByPhone(ctx context.Context, phone string) (string, error) {
	return pluckCode(r.db.WithContext(ctx).
		Model(&masterdata.Driver{}).
		Where("phone = ?", phone))
}

// Compile-time interface compliance check
var _ masterdata.DriverRepository = (*GormDriverRepository)(nil)
