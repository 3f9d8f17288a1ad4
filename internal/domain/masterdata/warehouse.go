package masterdata

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/logimaster/backend/internal/domain/shared"
)

// WarehouseType represents the operational role of a warehouse
type WarehouseType string

const (
	WarehouseTypePlant        WarehouseType = "plant"
	WarehouseTypeDistribution WarehouseType = "distribution"
	WarehouseTypeCrossDock    WarehouseType = "cross_dock"
)

// IsValid checks if the warehouse type is valid
func (t WarehouseType) IsValid() bool {
	switch t {
	case WarehouseTypePlant, WarehouseTypeDistribution, WarehouseTypeCrossDock:
		return true
	}
	return false
}

var (
	gstinPattern      = regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z][0-9A-Z][Z][0-9A-Z]$`)
	postalCodePattern = regexp.MustCompile(`^[1-9][0-9]{5}$`)
)

// GeoPoint is one vertex of a geofence polygon
type GeoPoint struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// Validate checks coordinate bounds
func (p GeoPoint) Validate() error {
	if p.Latitude < -90 || p.Latitude > 90 {
		return shared.NewDomainError("INVALID_LATITUDE", fmt.Sprintf("Latitude out of range: %f", p.Latitude))
	}
	if p.Longitude < -180 || p.Longitude > 180 {
		return shared.NewDomainError("INVALID_LONGITUDE", fmt.Sprintf("Longitude out of range: %f", p.Longitude))
	}
	return nil
}

// Warehouse is the aggregate root for warehouse master data
type Warehouse struct {
	shared.AuditedAggregateRoot
	Code           string        `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name           string        `gorm:"type:varchar(200);not null;uniqueIndex"`
	Type           WarehouseType `gorm:"type:varchar(20);not null"`
	TaxID          string        `gorm:"type:varchar(20);uniqueIndex"`
	CapacityUnits  int           `gorm:"not null;default:0"`
	AddressLine    string        `gorm:"type:text"`
	City           string        `gorm:"type:varchar(100)"`
	State          string        `gorm:"type:varchar(100)"`
	PostalCode     string        `gorm:"type:varchar(10)"`
	ValidFrom      *time.Time
	ValidTo        *time.Time
	ApprovalStatus ApprovalStatus `gorm:"type:varchar(30);not null;default:'pending_approval'"`
	StorageZones   []StorageZone  `gorm:"foreignKey:WarehouseID;constraint:OnDelete:CASCADE"`
	Documents      []Document     `gorm:"polymorphic:Owner;polymorphicValue:warehouse"`
}

// TableName returns the table name for GORM
func (Warehouse) TableName() string {
	return "warehouses"
}

// NewWarehouse creates a new warehouse pending approval
func NewWarehouse(name string, warehouseType WarehouseType, taxID string) (*Warehouse, error) {
	if err := validateEntityName(name); err != nil {
		return nil, err
	}
	if !warehouseType.IsValid() {
		return nil, shared.NewDomainError("INVALID_WAREHOUSE_TYPE", fmt.Sprintf("Invalid warehouse type: %s", warehouseType))
	}
	if taxID != "" && !gstinPattern.MatchString(taxID) {
		return nil, shared.NewDomainError("INVALID_TAX_ID", "Tax ID does not match the GSTIN format")
	}

	return &Warehouse{
		AuditedAggregateRoot: shared.AuditedAggregateRoot{BaseAggregateRoot: shared.NewBaseAggregateRoot()},
		Name:                 strings.TrimSpace(name),
		Type:                 warehouseType,
		TaxID:                strings.ToUpper(taxID),
		ApprovalStatus:       ApprovalStatusPending,
	}, nil
}

// SetCode assigns the allocated business identifier
func (w *Warehouse) SetCode(code string) error {
	if code == "" {
		return shared.NewDomainError("INVALID_CODE", "Warehouse code cannot be empty")
	}
	w.Code = code
	w.UpdatedAt = time.Now()
	return nil
}

// SetAddress sets the warehouse's address
func (w *Warehouse) SetAddress(line, city, state, postalCode string) error {
	if postalCode != "" && !postalCodePattern.MatchString(postalCode) {
		return shared.NewDomainError("INVALID_POSTAL_CODE", "Postal code must be six digits")
	}
	w.AddressLine = line
	w.City = city
	w.State = state
	w.PostalCode = postalCode
	w.UpdatedAt = time.Now()
	return nil
}

// SetValidity sets the operational validity window
func (w *Warehouse) SetValidity(from, to *time.Time) error {
	if from != nil && to != nil && to.Before(*from) {
		return shared.NewDomainError("INVALID_VALIDITY", "Valid-to date precedes valid-from date")
	}
	w.ValidFrom = from
	w.ValidTo = to
	w.UpdatedAt = time.Now()
	return nil
}

// SetCapacity sets the storage capacity in units
func (w *Warehouse) SetCapacity(units int) error {
	if units < 0 {
		return shared.NewDomainError("INVALID_CAPACITY", "Capacity cannot be negative")
	}
	w.CapacityUnits = units
	w.UpdatedAt = time.Now()
	return nil
}

// AddStorageZone appends a storage zone to the warehouse
func (w *Warehouse) AddStorageZone(zone *StorageZone) {
	zone.WarehouseID = w.ID
	w.StorageZones = append(w.StorageZones, *zone)
	w.UpdatedAt = time.Now()
}

// AddDocument attaches a compliance document
func (w *Warehouse) AddDocument(doc *Document) {
	doc.OwnerID = w.ID
	doc.OwnerType = "warehouse"
	w.Documents = append(w.Documents, *doc)
	w.UpdatedAt = time.Now()
}

// StorageZone is a sub-location of a warehouse, optionally bounded by a
// geofence polygon
type StorageZone struct {
	shared.BaseEntity
	WarehouseID uuid.UUID `gorm:"type:uuid;not null;index"`
	Code        string    `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name        string    `gorm:"type:varchar(200);not null"`
	Geofence    string    `gorm:"type:jsonb"`
}

// TableName returns the table name for GORM
func (StorageZone) TableName() string {
	return "storage_zones"
}

// NewStorageZone creates a storage zone with an optional geofence polygon
func NewStorageZone(name string, geofence []GeoPoint) (*StorageZone, error) {
	if err := validateEntityName(name); err != nil {
		return nil, err
	}
	if len(geofence) > 0 && len(geofence) < 3 {
		return nil, shared.NewDomainError("INVALID_GEOFENCE", "A geofence polygon needs at least three points")
	}
	for _, p := range geofence {
		if err := p.Validate(); err != nil {
			return nil, err
		}
	}

	zone := &StorageZone{
		BaseEntity: shared.NewBaseEntity(),
		Name:       strings.TrimSpace(name),
		Geofence:   "[]",
	}
	if len(geofence) > 0 {
		data, err := json.Marshal(geofence)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal geofence: %w", err)
		}
		zone.Geofence = string(data)
	}
	return zone, nil
}

// SetCode assigns the allocated business identifier
func (z *StorageZone) SetCode(code string) {
	z.Code = code
	z.UpdatedAt = time.Now()
}

// GeofencePoints decodes the stored polygon
func (z *StorageZone) GeofencePoints() ([]GeoPoint, error) {
	if z.Geofence == "" || z.Geofence == "[]" {
		return nil, nil
	}
	var points []GeoPoint
	if err := json.Unmarshal([]byte(z.Geofence), &points); err != nil {
		return nil, fmt.Errorf("failed to unmarshal geofence: %w", err)
	}
	return points, nil
}

func validateEntityName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Name cannot exceed 200 characters")
	}
	return nil
}
