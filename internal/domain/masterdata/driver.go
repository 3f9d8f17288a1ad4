package masterdata

import (
	"strings"
	"time"

	"github.com/logimaster/backend/internal/domain/shared"
)

// Driver is the aggregate root for driver master data
type Driver struct {
	shared.AuditedAggregateRoot
	Code           string `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name           string `gorm:"type:varchar(200);not null"`
	LicenseNumber  string `gorm:"type:varchar(50);not null;uniqueIndex"`
	Phone          string `gorm:"type:varchar(20);not null;uniqueIndex"`
	DateOfBirth    *time.Time
	LicenseIssued  *time.Time
	LicenseExpiry  *time.Time
	AddressLine    string         `gorm:"type:text"`
	City           string         `gorm:"type:varchar(100)"`
	State          string         `gorm:"type:varchar(100)"`
	PostalCode     string         `gorm:"type:varchar(10)"`
	ApprovalStatus ApprovalStatus `gorm:"type:varchar(30);not null;default:'pending_approval'"`
	Documents      []Document     `gorm:"polymorphic:Owner;polymorphicValue:driver"`
}

// TableName returns the table name for GORM
func (Driver) TableName() string {
	return "drivers"
}

// NewDriver creates a new driver pending approval
func NewDriver(name, licenseNumber, phone string) (*Driver, error) {
	if err := validateEntityName(name); err != nil {
		return nil, err
	}
	licenseNumber = strings.ToUpper(strings.TrimSpace(licenseNumber))
	if licenseNumber == "" {
		return nil, shared.NewDomainError("INVALID_LICENSE", "License number cannot be empty")
	}
	if !phonePattern.MatchString(phone) {
		return nil, shared.NewDomainError("INVALID_PHONE", "Phone number is not valid")
	}

	return &Driver{
		AuditedAggregateRoot: shared.AuditedAggregateRoot{BaseAggregateRoot: shared.NewBaseAggregateRoot()},
		Name:                 strings.TrimSpace(name),
		LicenseNumber:        licenseNumber,
		Phone:                phone,
		ApprovalStatus:       ApprovalStatusPending,
	}, nil
}

// SetCode assigns the allocated business identifier
func (d *Driver) SetCode(code string) error {
	if code == "" {
		return shared.NewDomainError("INVALID_CODE", "Driver code cannot be empty")
	}
	d.Code = code
	d.UpdatedAt = time.Now()
	return nil
}

// SetLicenseWindow sets the license issue and expiry dates
func (d *Driver) SetLicenseWindow(issued, expiry *time.Time) error {
	if issued != nil && expiry != nil && expiry.Before(*issued) {
		return shared.NewDomainError("INVALID_LICENSE_WINDOW", "License expiry precedes issue date")
	}
	d.LicenseIssued = issued
	d.LicenseExpiry = expiry
	d.UpdatedAt = time.Now()
	return nil
}

// SetDateOfBirth sets the driver's date of birth
func (d *Driver) SetDateOfBirth(dob time.Time) error {
	if dob.After(time.Now().AddDate(-18, 0, 0)) {
		return shared.NewDomainError("INVALID_DATE_OF_BIRTH", "Driver must be at least 18 years old")
	}
	d.DateOfBirth = &dob
	d.UpdatedAt = time.Now()
	return nil
}

// SetAddress sets the driver's address
func (d *Driver) SetAddress(line, city, state, postalCode string) error {
	if postalCode != "" && !postalCodePattern.MatchString(postalCode) {
		return shared.NewDomainError("INVALID_POSTAL_CODE", "Postal code must be six digits")
	}
	d.AddressLine = line
	d.City = city
	d.State = state
	d.PostalCode = postalCode
	d.UpdatedAt = time.Now()
	return nil
}

// AddDocument attaches a compliance document
func (d *Driver) AddDocument(doc *Document) {
	doc.OwnerID = d.ID
	doc.OwnerType = "driver"
	d.Documents = append(d.Documents, *doc)
	d.UpdatedAt = time.Now()
}
