package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/logimaster/backend/internal/domain/masterdata"
	"github.com/logimaster/backend/internal/domain/shared"
)

// GormTransporterRepository implements TransporterRepository using GORM
type GormTransporterRepository struct {
	db *gorm.DB
}

// NewGormTransporterRepository creates a new GormTransporterRepository
func NewGormTransporterRepository(db *gorm.DB) *GormTransporterRepository {
	return &GormTransporterRepository{db: db}
}

// Create persists a transporter with its contacts and documents
func (r *GormTransporterRepository) Create(ctx context.Context, transporter *masterdata.Transporter) error {
	return r.db.WithContext(ctx).Create(transporter).Error
}

// FindByID finds a transporter by ID
func (r *GormTransporterRepository) FindByID(ctx context.Context, id uuid.UUID) (*masterdata.Transporter, error) {
	var transporter masterdata.Transporter
	if err := r.db.WithContext(ctx).
		Preload("Contacts").
		Preload("Documents").
		First(&transporter, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &transporter, nil
}

// FindByCode finds a transporter by business code
func (r *GormTransporterRepository) FindByCode(ctx context.Context, code string) (*masterdata.Transporter, error) {
	var transporter masterdata.Transporter
	if err := r.db.WithContext(ctx).
		Preload("Contacts").
		Preload("Documents").
		First(&transporter, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &transporter, nil
}

// CodeByName returns the code of the transporter holding a name
func (r *GormTransporterRepository) CodeByName(ctx context.Context, name string) (string, error) {
	return pluckCode(r.db.WithContext(ctx).
		Model(&masterdata.Transporter{}).
		Where("LOWER(name) = LOWER(?)", name))
}

// CodeByTaxID returns the code of the transporter holding a tax id
func (r *GormTransporterRepository) CodeByTaxID(ctx context.Context, taxID string) (string, error) {
	return pluckCode(r.db.WithContext(ctx).
		Model(&masterdata.Transporter{}).
		Where("UPPER(tax_id) = UPPER(?)", taxID))
}

// Compile-time interface compliance check
var _ masterdata.TransporterRepository = (*GormTransporterRepository)(nil)
