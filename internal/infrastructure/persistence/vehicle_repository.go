package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/logimaster/backend/internal/domain/masterdata"
	"github.com/logimaster/backend/internal/domain/shared"
)

// GormVehicleRepository implements VehicleRepository using GORM
type GormVehicleRepository struct {
	db *gorm.DB
}

// NewGormVehicleRepository creates a new GormVehicleRepository
func NewGormVehicleRepository(db *gorm.DB) *GormVehicleRepository {
	return &GormVehicleRepository{db: db}
}

// Create persists a vehicle with its permits and documents
func (r *GormVehicleRepository) Create(ctx context.Context, vehicle *masterdata.Vehicle) error {
	return r.db.WithContext(ctx).Create(vehicle).Error
}

// FindByID finds a vehicle by ID
func (r *GormVehicleRepository) FindByID(ctx context.Context, id uuid.UUID) (*masterdata.Vehicle, error) {
	var vehicle masterdata.Vehicle
	if err := r.db.WithContext(ctx).
		Preload("Permits").
		Preload("Documents").
		First(&vehicle, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &vehicle, nil
}

// FindByCode finds a vehicle by business code
func (r *GormVehicleRepository) FindByCode(ctx context.Context, code string) (*masterdata.Vehicle, error) {
	var vehicle masterdata.Vehicle
	if err := r.db.WithContext(ctx).
		Preload("Permits").
		Preload("Documents").
		First(&vehicle, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &vehicle, nil
}

// CodeByRegistration returns the code of the vehicle holding a registration
func (r *GormVehicleRepository) CodeByRegistration(ctx context.Context, registrationNumber string) (string, error) {
	return pluckCode(r.db.WithContext(ctx).
		Model(&masterdata.Vehicle{}).
		Where("UPPER(registration_number) = UPPER(?)", registrationNumber))
}

// GormVehicleTypeRepository implements VehicleTypeRepository using GORM
type GormVehicleTypeRepository struct {
	db *gorm.DB
}

// NewGormVehicleTypeRepository creates a new GormVehicleTypeRepository
func NewGormVehicleTypeRepository(db *gorm.DB) *GormVehicleTypeRepository {
	return &GormVehicleTypeRepository{db: db}
}

// Create persists a vehicle type
func (r *GormVehicleTypeRepository) Create(ctx context.Context, vehicleType *masterdata.VehicleType) error {
	return r.db.WithContext(ctx).Create(vehicleType).Error
}

// FindAll returns the full vehicle type lookup table
func (r *GormVehicleTypeRepository) FindAll(ctx context.Context) ([]masterdata.VehicleType, error) {
	var types []masterdata.VehicleType
	if err := r.db.WithContext(ctx).Order("code ASC").Find(&types).Error; err != nil {
		return nil, err
	}
	return types, nil
}

// Compile-time interface compliance checks
var (
	_ masterdata.VehicleRepository     = (*GormVehicleRepository)(nil)
	_ masterdata.VehicleTypeRepository = (*GormVehicleTypeRepository)(nil)
)
