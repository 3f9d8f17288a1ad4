package masterdata

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/logimaster/backend/internal/domain/shared"
)

var (
	panPattern   = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)
	phonePattern = regexp.MustCompile(`^[+]?[0-9]{10,15}$`)
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// Transporter is the aggregate root for transport vendor master data
type Transporter struct {
	shared.AuditedAggregateRoot
	Code              string               `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name              string               `gorm:"type:varchar(200);not null;uniqueIndex"`
	TaxID             string               `gorm:"type:varchar(20);uniqueIndex"`
	PermanentAcctNo   string               `gorm:"type:varchar(10)"`
	OnTimePerformance decimal.Decimal      `gorm:"type:decimal(5,2)"`
	AddressLine       string               `gorm:"type:text"`
	City              string               `gorm:"type:varchar(100)"`
	State             string               `gorm:"type:varchar(100)"`
	PostalCode        string               `gorm:"type:varchar(10)"`
	ApprovalStatus    ApprovalStatus       `gorm:"type:varchar(30);not null;default:'pending_approval'"`
	Contacts          []TransporterContact `gorm:"foreignKey:TransporterID;constraint:OnDelete:CASCADE"`
	Documents         []Document           `gorm:"polymorphic:Owner;polymorphicValue:transporter"`
}

// TableName returns the table name for GORM
func (Transporter) TableName() string {
	return "transporters"
}

// NewTransporter creates a new transporter pending approval
func NewTransporter(name, taxID, permanentAcctNo string) (*Transporter, error) {
	if err := validateEntityName(name); err != nil {
		return nil, err
	}
	if taxID != "" && !gstinPattern.MatchString(taxID) {
		return nil, shared.NewDomainError("INVALID_TAX_ID", "Tax ID does not match the GSTIN format")
	}
	if permanentAcctNo != "" && !panPattern.MatchString(permanentAcctNo) {
		return nil, shared.NewDomainError("INVALID_PAN", "Permanent account number does not match the PAN format")
	}

	return &Transporter{
		AuditedAggregateRoot: shared.AuditedAggregateRoot{BaseAggregateRoot: shared.NewBaseAggregateRoot()},
		Name:                 strings.TrimSpace(name),
		TaxID:                strings.ToUpper(taxID),
		PermanentAcctNo:      strings.ToUpper(permanentAcctNo),
		ApprovalStatus:       ApprovalStatusPending,
	}, nil
}

// SetCode assigns the allocated business identifier
func (t *Transporter) SetCode(code string) error {
	if code == "" {
		return shared.NewDomainError("INVALID_CODE", "Transporter code cannot be empty")
	}
	t.Code = code
	t.UpdatedAt = time.Now()
	return nil
}

// SetOnTimePerformance records the delivery performance percentage
func (t *Transporter) SetOnTimePerformance(pct decimal.Decimal) error {
	if pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(100)) {
		return shared.NewDomainError("INVALID_PERFORMANCE", "On-time performance must be between 0 and 100")
	}
	t.OnTimePerformance = pct
	t.UpdatedAt = time.Now()
	return nil
}

// SetAddress sets the transporter's registered address
func (t *Transporter) SetAddress(line, city, state, postalCode string) error {
	if postalCode != "" && !postalCodePattern.MatchString(postalCode) {
		return shared.NewDomainError("INVALID_POSTAL_CODE", "Postal code must be six digits")
	}
	t.AddressLine = line
	t.City = city
	t.State = state
	t.PostalCode = postalCode
	t.UpdatedAt = time.Now()
	return nil
}

// AddContact appends a contact person
func (t *Transporter) AddContact(contact *TransporterContact) {
	contact.TransporterID = t.ID
	t.Contacts = append(t.Contacts, *contact)
	t.UpdatedAt = time.Now()
}

// AddDocument attaches a compliance document
func (t *Transporter) AddDocument(doc *Document) {
	doc.OwnerID = t.ID
	doc.OwnerType = "transporter"
	t.Documents = append(t.Documents, *doc)
	t.UpdatedAt = time.Now()
}

// TransporterContact is a contact person for a transporter
type TransporterContact struct {
	shared.BaseEntity
	TransporterID uuid.UUID `gorm:"type:uuid;not null;index"`
	Code          string    `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name          string    `gorm:"type:varchar(100);not null"`
	Phone         string    `gorm:"type:varchar(20)"`
	Email         string    `gorm:"type:varchar(200)"`
}

// TableName returns the table name for GORM
func (TransporterContact) TableName() string {
	return "transporter_contacts"
}

// NewTransporterContact creates a contact person
func NewTransporterContact(name, phone, email string) (*TransporterContact, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_CONTACT_NAME", "Contact name cannot be empty")
	}
	if phone != "" && !phonePattern.MatchString(phone) {
		return nil, shared.NewDomainError("INVALID_PHONE", "Phone number is not valid")
	}
	if email != "" && !emailPattern.MatchString(email) {
		return nil, shared.NewDomainError("INVALID_EMAIL", "Email address is not valid")
	}

	return &TransporterContact{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		Phone:      phone,
		Email:      email,
	}, nil
}

// SetCode assigns the allocated business identifier
func (c *TransporterContact) SetCode(code string) {
	c.Code = code
	c.UpdatedAt = time.Now()
}
