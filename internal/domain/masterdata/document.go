package masterdata

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/logimaster/backend/internal/domain/shared"
)

// DocumentType classifies attached compliance documents
type DocumentType string

const (
	DocumentTypeRegistration DocumentType = "registration"
	DocumentTypeInsurance    DocumentType = "insurance"
	DocumentTypeTaxCert      DocumentType = "tax_certificate"
	DocumentTypeLicense      DocumentType = "license"
	DocumentTypeOther        DocumentType = "other"
)

// IsValid checks if the document type is valid
func (d DocumentType) IsValid() bool {
	switch d {
	case DocumentTypeRegistration, DocumentTypeInsurance, DocumentTypeTaxCert,
		DocumentTypeLicense, DocumentTypeOther:
		return true
	}
	return false
}

// Document is a compliance document attached to any master-data entity
type Document struct {
	shared.BaseEntity
	OwnerID    uuid.UUID    `gorm:"type:uuid;not null;index"`
	OwnerType  string       `gorm:"type:varchar(50);not null;index"`
	Code       string       `gorm:"type:varchar(50);not null;uniqueIndex"`
	Type       DocumentType `gorm:"type:varchar(30);not null"`
	Number     string       `gorm:"type:varchar(100);not null"`
	IssuedBy   string       `gorm:"type:varchar(200)"`
	ValidUntil *time.Time
}

// TableName returns the table name for GORM
func (Document) TableName() string {
	return "entity_documents"
}

// NewDocument creates a document attached to an owner entity
func NewDocument(ownerID uuid.UUID, ownerType string, docType DocumentType, number string) (*Document, error) {
	if !docType.IsValid() {
		return nil, shared.NewDomainError("INVALID_DOCUMENT_TYPE", "Invalid document type: "+string(docType))
	}
	if strings.TrimSpace(number) == "" {
		return nil, shared.NewDomainError("INVALID_DOCUMENT_NUMBER", "Document number cannot be empty")
	}

	return &Document{
		BaseEntity: shared.NewBaseEntity(),
		OwnerID:    ownerID,
		OwnerType:  ownerType,
		Type:       docType,
		Number:     strings.TrimSpace(number),
	}, nil
}

// SetCode assigns the allocated business identifier
func (d *Document) SetCode(code string) {
	d.Code = code
	d.UpdatedAt = time.Now()
}
