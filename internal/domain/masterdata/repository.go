package masterdata

import (
	"context"

	"github.com/google/uuid"
)

// CodeKind identifies one business-identifier sequence. Parent entities and
// child collections each draw from their own sequence.
type CodeKind string

const (
	CodeKindWarehouse   CodeKind = "warehouse"
	CodeKindStorageZone CodeKind = "storage_zone"
	CodeKindTransporter CodeKind = "transporter"
	CodeKindContact     CodeKind = "contact"
	CodeKindDriver      CodeKind = "driver"
	CodeKindVehicle     CodeKind = "vehicle"
	CodeKindPermit      CodeKind = "permit"
	CodeKindDocument    CodeKind = "document"
)

// CodeStore exposes the queries the identifier allocator needs: how many
// rows exist for a kind, and whether a candidate code is already taken.
type CodeStore interface {
	Count(ctx context.Context, kind CodeKind) (int64, error)
	CodeExists(ctx context.Context, kind CodeKind, code string) (bool, error)
}

// WarehouseRepository defines warehouse persistence
type WarehouseRepository interface {
	Create(ctx context.Context, warehouse *Warehouse) error
	FindByID(ctx context.Context, id uuid.UUID) (*Warehouse, error)
	FindByCode(ctx context.Context, code string) (*Warehouse, error)
	// CodeByName returns the business code of the warehouse holding this
	// name, or shared.ErrNotFound
	CodeByName(ctx context.Context, name string) (string, error)
	// CodeByTaxID returns the business code of the warehouse holding this
	// tax ID, or shared.ErrNotFound
	CodeByTaxID(ctx context.Context, taxID string) (string, error)
}

// TransporterRepository defines transporter persistence
type TransporterRepository interface {
	Create(ctx context.Context, transporter *Transporter) error
	FindByID(ctx context.Context, id uuid.UUID) (*Transporter, error)
	FindByCode(ctx context.Context, code string) (*Transporter, error)
	CodeByName(ctx context.Context, name string) (string, error)
	CodeByTaxID(ctx context.Context, taxID string) (string, error)
}

// DriverRepository defines driver persistence
type DriverRepository interface {
	Create(ctx context.Context, driver *Driver) error
	FindByID(ctx context.Context, id uuid.UUID) (*Driver, error)
	FindByCode(ctx context.Context, code string) (*Driver, error)
	CodeByLicense(ctx context.Context, licenseNumber string) (string, error)
	CodeByPhone(ctx context.Context, phone string) (string, error)
}

// VehicleRepository defines vehicle persistence
type VehicleRepository interface {
	Create(ctx context.Context, vehicle *Vehicle) error
	FindByID(ctx context.Context, id uuid.UUID) (*Vehicle, error)
	FindByCode(ctx context.Context, code string) (*Vehicle, error)
	CodeByRegistration(ctx context.Context, registrationNumber string) (string, error)
}

// VehicleTypeRepository defines the vehicle type lookup
type VehicleTypeRepository interface {
	Create(ctx context.Context, vehicleType *VehicleType) error
	FindAll(ctx context.Context) ([]VehicleType, error)
}

// Repositories bundles every masterdata repository for transactional work
type Repositories struct {
	Warehouses   WarehouseRepository
	Transporters TransporterRepository
	Drivers      DriverRepository
	Vehicles     VehicleRepository
	VehicleTypes VehicleTypeRepository
	Codes        CodeStore
}

// UnitOfWork runs a function against transaction-scoped repositories.
// The function's error rolls the whole transaction back.
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
	// Repos returns repositories bound to the base connection, outside
	// any transaction
	Repos() Repositories
}
