package masterdata

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/logimaster/backend/internal/domain/shared"
)

var registrationPattern = regexp.MustCompile(`^[A-Z]{2}[0-9]{1,2}[A-Z]{0,3}[0-9]{4}$`)

// MaxVehicleSpeedKmph is the regulatory ceiling for commercial vehicles
const MaxVehicleSpeedKmph = 120

// VehicleType is a configurable lookup for vehicle classes. Spreadsheets may
// reference a type by its code or its human-readable name.
type VehicleType struct {
	shared.BaseEntity
	Code string `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name string `gorm:"type:varchar(200);not null;uniqueIndex"`
}

// TableName returns the table name for GORM
func (VehicleType) TableName() string {
	return "vehicle_types"
}

// Vehicle is the aggregate root for vehicle master data
type Vehicle struct {
	shared.AuditedAggregateRoot
	Code               string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	RegistrationNumber string          `gorm:"type:varchar(20);not null;uniqueIndex"`
	VehicleTypeID      *uuid.UUID      `gorm:"type:uuid;index"`
	CapacityTons       decimal.Decimal `gorm:"type:decimal(8,2)"`
	MaxSpeedKmph       int             `gorm:"not null;default:0"`
	ApprovalStatus     ApprovalStatus  `gorm:"type:varchar(30);not null;default:'pending_approval'"`
	Permits            []VehiclePermit `gorm:"foreignKey:VehicleID;constraint:OnDelete:CASCADE"`
	Documents          []Document      `gorm:"polymorphic:Owner;polymorphicValue:vehicle"`
}

// TableName returns the table name for GORM
func (Vehicle) TableName() string {
	return "vehicles"
}

// NewVehicle creates a new vehicle pending approval
func NewVehicle(registrationNumber string) (*Vehicle, error) {
	registrationNumber = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(registrationNumber), " ", ""))
	if !registrationPattern.MatchString(registrationNumber) {
		return nil, shared.NewDomainError("INVALID_REGISTRATION", "Registration number is not valid")
	}

	return &Vehicle{
		AuditedAggregateRoot: shared.AuditedAggregateRoot{BaseAggregateRoot: shared.NewBaseAggregateRoot()},
		RegistrationNumber:   registrationNumber,
		ApprovalStatus:       ApprovalStatusPending,
	}, nil
}

// SetCode assigns the allocated business identifier
func (v *Vehicle) SetCode(code string) error {
	if code == "" {
		return shared.NewDomainError("INVALID_CODE", "Vehicle code cannot be empty")
	}
	v.Code = code
	v.UpdatedAt = time.Now()
	return nil
}

// SetVehicleType links the vehicle to a type from the lookup
func (v *Vehicle) SetVehicleType(typeID uuid.UUID) {
	v.VehicleTypeID = &typeID
	v.UpdatedAt = time.Now()
}

// SetCapacity sets the load capacity in tons
func (v *Vehicle) SetCapacity(tons decimal.Decimal) error {
	if tons.IsNegative() {
		return shared.NewDomainError("INVALID_CAPACITY", "Capacity cannot be negative")
	}
	v.CapacityTons = tons
	v.UpdatedAt = time.Now()
	return nil
}

// SetMaxSpeed sets the governed maximum speed
func (v *Vehicle) SetMaxSpeed(kmph int) error {
	if kmph < 0 || kmph > MaxVehicleSpeedKmph {
		return shared.NewDomainError("INVALID_MAX_SPEED", "Max speed must be between 0 and 120 km/h")
	}
	v.MaxSpeedKmph = kmph
	v.UpdatedAt = time.Now()
	return nil
}

// AddPermit appends a transit permit
func (v *Vehicle) AddPermit(permit *VehiclePermit) {
	permit.VehicleID = v.ID
	v.Permits = append(v.Permits, *permit)
	v.UpdatedAt = time.Now()
}

// AddDocument attaches a compliance document
func (v *Vehicle) AddDocument(doc *Document) {
	doc.OwnerID = v.ID
	doc.OwnerType = "vehicle"
	v.Documents = append(v.Documents, *doc)
	v.UpdatedAt = time.Now()
}

// VehiclePermit is a state transit permit attached to a vehicle
type VehiclePermit struct {
	shared.BaseEntity
	VehicleID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Code       string    `gorm:"type:varchar(50);not null;uniqueIndex"`
	PermitNo   string    `gorm:"type:varchar(100);not null"`
	State      string    `gorm:"type:varchar(100);not null"`
	ValidUntil *time.Time
}

// TableName returns the table name for GORM
func (VehiclePermit) TableName() string {
	return "vehicle_permits"
}

// NewVehiclePermit creates a transit permit
func NewVehiclePermit(permitNo, state string, validUntil *time.Time) (*VehiclePermit, error) {
	permitNo = strings.TrimSpace(permitNo)
	if permitNo == "" {
		return nil, shared.NewDomainError("INVALID_PERMIT_NO", "Permit number cannot be empty")
	}
	if strings.TrimSpace(state) == "" {
		return nil, shared.NewDomainError("INVALID_PERMIT_STATE", "Permit state cannot be empty")
	}

	return &VehiclePermit{
		BaseEntity: shared.NewBaseEntity(),
		PermitNo:   permitNo,
		State:      strings.TrimSpace(state),
		ValidUntil: validUntil,
	}, nil
}

// SetCode assigns the allocated business identifier
func (p *VehiclePermit) SetCode(code string) {
	p.Code = code
	p.UpdatedAt = time.Now()
}
