package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/logimaster/backend/internal/domain/masterdata"
)

// GormUnitOfWork implements masterdata.UnitOfWork over a gorm transaction.
// Each Execute call opens one transaction and hands the caller repositories
// bound to it; returning an error rolls everything back.
type GormUnitOfWork struct {
	db *gorm.DB
}

// NewGormUnitOfWork creates a new GormUnitOfWork
func NewGormUnitOfWork(db *gorm.DB) *GormUnitOfWork {
	return &GormUnitOfWork{db: db}
}

// Execute runs fn inside a transaction with transaction-scoped repositories
func (u *GormUnitOfWork) Execute(ctx context.Context, fn func(ctx context.Context, repos masterdata.Repositories) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, buildRepositories(tx))
	})
}

// Repos returns repositories bound to the base connection, outside any
// transaction
func (u *GormUnitOfWork) Repos() masterdata.Repositories {
	return buildRepositories(u.db)
}

func buildRepositories(db *gorm.DB) masterdata.Repositories {
	return masterdata.Repositories{
		Warehouses:   NewGormWarehouseRepository(db),
		Transporters: NewGormTransporterRepository(db),
		Drivers:      NewGormDriverRepository(db),
		Vehicles:     NewGormVehicleRepository(db),
		VehicleTypes: NewGormVehicleTypeRepository(db),
		Codes:        NewGormCodeStore(db),
	}
}

// Compile-time interface compliance check
var _ masterdata.UnitOfWork = (*GormUnitOfWork)(nil)
